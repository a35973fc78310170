// Package bom loads the version tables of platform (BOM) entries.
//
// A platform declared as platform("org.junit:junit-bom:5.10.0") carries a
// version but no table. [Apply] asks a [Loader] for the table and returns
// entries ready for manifest.Resolve:
//
//	loader := bom.NewChainLoader(
//	    bom.NewFileLoader("", logger),
//	    bom.NewMavenLoader(maven.NewClient(c, ttl, ""), logger),
//	)
//	entries, err := bom.Apply(ctx, bom.NewCachedLoader(loader, c, nil, ttl), doc.Entries)
package bom

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/integrations"
	"github.com/matzehuels/depmanifest/pkg/manifest"
	"github.com/matzehuels/depmanifest/pkg/observability"
)

// Loader returns the managed version table of a platform, keyed by
// "group:artifact".
type Loader interface {
	Load(ctx context.Context, c manifest.Coordinate, version string) (map[string]string, error)
}

// Sourcer is implemented by loaders and fetchers that can name where their
// tables come from, such as a repository URL or directory.
type Sourcer interface {
	Source() string
}

// SourceOf names the origin of l's tables. Loaders that do not implement
// [Sourcer] are named by their type.
func SourceOf(l any) string {
	if s, ok := l.(Sourcer); ok {
		return s.Source()
	}
	return fmt.Sprintf("%T", l)
}

// LoaderFunc adapts a function to [Loader].
type LoaderFunc func(ctx context.Context, c manifest.Coordinate, version string) (map[string]string, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, c manifest.Coordinate, version string) (map[string]string, error) {
	return f(ctx, c, version)
}

// Apply fills in the version table of every active platform entry that
// has a version but no table. Entries are copied; the input is not
// modified. Disabled platforms are never loaded.
//
// A platform the loader cannot find fails with BOM_NOT_FOUND; network
// failures keep the NETWORK_ERROR code.
func Apply(ctx context.Context, loader Loader, entries []manifest.Entry) ([]manifest.Entry, error) {
	out := make([]manifest.Entry, len(entries))
	copy(out, entries)

	for i, e := range out {
		if !e.Active() || len(e.Versions) > 0 || e.Version == "" {
			continue
		}
		if loader == nil {
			return nil, errs.New(errs.ErrCodeBOMNotFound, "platform %s:%s has no version table and no BOM loader is configured", e.Coordinate, e.Version)
		}

		start := time.Now()
		table, err := loader.Load(ctx, e.Coordinate, e.Version)
		observability.Resolve().OnBOMLoad(ctx, e.Coordinate.String(), e.Version, len(table), time.Since(start), err)
		if err != nil {
			return nil, classify(err, e)
		}

		e = e.Clone()
		e.Versions = table
		out[i] = e
	}
	return out, nil
}

func classify(err error, e manifest.Entry) error {
	if errs.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return errs.Wrap(errs.ErrCodeBOMNotFound, err, "platform %s:%s", e.Coordinate, e.Version)
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(errs.ErrCodeTimeout, err, "platform %s:%s", e.Coordinate, e.Version)
	case errors.Is(err, integrations.ErrNetwork):
		return errs.Wrap(errs.ErrCodeNetwork, err, "platform %s:%s", e.Coordinate, e.Version)
	default:
		return errs.Wrap(errs.ErrCodeInvalidManifest, err, "platform %s:%s", e.Coordinate, e.Version)
	}
}
