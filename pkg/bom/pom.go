package bom

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depmanifest/pkg/integrations/maven"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// DefaultMaxDepth bounds how many parent and import hops a BOM may take.
const DefaultMaxDepth = 8

// Fetcher retrieves POM documents. Both [maven.Client] and
// [maven.LocalRepository] implement it.
type Fetcher interface {
	FetchPOM(ctx context.Context, group, artifact, version string) (*maven.Project, error)
}

// POMLoader builds version tables from Maven BOM documents. Parent POMs
// contribute properties and managed versions; imported BOMs contribute
// entries the importing BOM does not declare itself.
type POMLoader struct {
	fetcher  Fetcher
	maxDepth int
	logger   *log.Logger
}

// NewPOMLoader returns a loader that reads POMs through f.
func NewPOMLoader(f Fetcher, logger *log.Logger) *POMLoader {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &POMLoader{fetcher: f, maxDepth: DefaultMaxDepth, logger: logger}
}

// NewMavenLoader loads BOMs from a remote Maven repository.
func NewMavenLoader(client *maven.Client, logger *log.Logger) *POMLoader {
	return NewPOMLoader(client, logger)
}

// NewFileLoader loads BOMs from a local repository directory
// (~/.m2/repository when dir is empty).
func NewFileLoader(dir string, logger *log.Logger) *POMLoader {
	return NewPOMLoader(maven.NewLocalRepository(dir), logger)
}

// Source implements [Sourcer] with the fetcher's origin.
func (l *POMLoader) Source() string { return SourceOf(l.fetcher) }

// Load implements [Loader].
func (l *POMLoader) Load(ctx context.Context, c manifest.Coordinate, version string) (map[string]string, error) {
	return l.table(ctx, c.Group, c.Artifact, version, 0, map[string]bool{})
}

func (l *POMLoader) table(ctx context.Context, group, artifact, version string, depth int, visiting map[string]bool) (map[string]string, error) {
	id := group + ":" + artifact + ":" + version
	if depth > l.maxDepth {
		return nil, fmt.Errorf("bom %s: nesting deeper than %d", id, l.maxDepth)
	}
	if visiting[id] {
		return nil, fmt.Errorf("bom %s: import cycle", id)
	}
	visiting[id] = true
	defer delete(visiting, id)

	p, err := l.effective(ctx, group, artifact, version, depth, visiting)
	if err != nil {
		return nil, err
	}

	table := p.ManagedVersions()
	for _, imp := range p.Imports() {
		if maven.Unresolved(imp.Key()) || maven.Unresolved(imp.Version) {
			l.logger.Warn("skipping unresolved bom import", "bom", id, "import", imp.Key()+":"+imp.Version)
			continue
		}
		sub, err := l.table(ctx, imp.GroupID, imp.ArtifactID, imp.Version, depth+1, visiting)
		if err != nil {
			return nil, fmt.Errorf("bom %s: import: %w", id, err)
		}
		for k, v := range sub {
			if _, ok := table[k]; !ok {
				table[k] = v
			}
		}
	}

	l.logger.Debug("loaded bom", "bom", id, "managed", len(table))
	return table, nil
}

// effective fetches a POM and folds its parent chain into it.
func (l *POMLoader) effective(ctx context.Context, group, artifact, version string, depth int, visiting map[string]bool) (*maven.Project, error) {
	p, err := l.fetcher.FetchPOM(ctx, group, artifact, version)
	if err != nil {
		return nil, fmt.Errorf("fetch bom %s:%s:%s: %w", group, artifact, version, err)
	}
	if p.Parent == nil || p.Parent.ArtifactID == "" || p.Parent.Version == "" {
		return p, nil
	}

	pid := p.Parent.GroupID + ":" + p.Parent.ArtifactID + ":" + p.Parent.Version
	if depth+1 > l.maxDepth {
		return nil, fmt.Errorf("bom %s:%s:%s: parent chain deeper than %d", group, artifact, version, l.maxDepth)
	}
	if visiting[pid] {
		return nil, fmt.Errorf("bom %s:%s:%s: parent cycle", group, artifact, version)
	}
	visiting[pid] = true
	defer delete(visiting, pid)

	parent, err := l.effective(ctx, p.Parent.GroupID, p.Parent.ArtifactID, p.Parent.Version, depth+1, visiting)
	if err != nil {
		return nil, err
	}
	p.Inherit(parent)
	return p, nil
}
