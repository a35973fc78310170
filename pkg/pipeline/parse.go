package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/depmanifest/pkg/catalog"
	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
	"github.com/matzehuels/depmanifest/pkg/source"
)

// CatalogFile is where Gradle looks for the default version catalog,
// relative to the root project.
var CatalogFile = filepath.Join("gradle", "libs.versions.toml")

// inputs holds the raw bytes a resolution depends on.
type inputs struct {
	manifest    []byte
	catalog     []byte
	catalogName string
	dir         string // directory of a manifest read from disk
}

// readInputs loads manifest and catalog content from disk or from the
// inline fields of opts.
func readInputs(opts Options) (inputs, error) {
	in := inputs{catalogName: catalog.DefaultName}

	if opts.Manifest != "" {
		in.manifest = []byte(opts.Manifest)
	} else {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return in, errs.Wrap(errs.ErrCodeFileNotFound, err, "manifest %s", opts.Path)
			}
			return in, fmt.Errorf("read manifest: %w", err)
		}
		in.manifest = data
		if abs, err := filepath.Abs(opts.Path); err == nil {
			in.dir = filepath.Dir(abs)
		}
	}

	switch {
	case opts.Catalog != "":
		in.catalog = []byte(opts.Catalog)
	case opts.CatalogPath != "":
		data, err := os.ReadFile(opts.CatalogPath)
		if err != nil {
			if os.IsNotExist(err) {
				return in, errs.Wrap(errs.ErrCodeFileNotFound, err, "catalog %s", opts.CatalogPath)
			}
			return in, fmt.Errorf("read catalog: %w", err)
		}
		in.catalog = data
		in.catalogName = catalog.NameFromPath(opts.CatalogPath)
	case in.dir != "":
		if path := FindCatalog(in.dir); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return in, fmt.Errorf("read catalog: %w", err)
			}
			opts.Logger.Debug("using version catalog", "path", path)
			in.catalog = data
		}
	}
	return in, nil
}

// FindCatalog looks for gradle/libs.versions.toml in dir and its parents,
// the way a subproject build sees the catalog of its root project.
// It returns "" when there is none.
func FindCatalog(dir string) string {
	for {
		path := filepath.Join(dir, CatalogFile)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// parse turns the inputs into expanded manifest entries.
func parse(opts Options, in inputs) (*manifest.Document, error) {
	parsers := source.DefaultParsers(source.Options{Configurations: opts.confs})
	doc, err := source.ParseBytes(opts.ManifestFilename, in.manifest, parsers...)
	if err != nil {
		return nil, err
	}
	if doc.Project == "" && in.dir != "" {
		doc.Project = filepath.Base(in.dir)
	}

	var cat *catalog.Catalog
	if in.catalog != nil {
		if cat, err = catalog.Parse(in.catalog, in.catalogName); err != nil {
			return nil, err
		}
	}
	if doc.Entries, err = catalog.Expand(cat, doc.Entries); err != nil {
		return nil, err
	}
	return doc, nil
}
