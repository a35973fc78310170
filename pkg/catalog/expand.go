package catalog

import (
	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// Expand replaces alias-only entries with catalog coordinates. Explicit
// entry versions win over catalog versions. A bundle alias on a dependency
// entry expands into one entry per bundle member, in bundle order.
//
// Entries that already carry a coordinate are returned unchanged. A nil
// catalog expands nothing, so alias-only entries fail with UNKNOWN_ALIAS.
func Expand(c *Catalog, entries []manifest.Entry) ([]manifest.Entry, error) {
	out := make([]manifest.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Alias == "" || !e.Coordinate.IsZero() {
			out = append(out, e)
			continue
		}
		if c == nil {
			return nil, errs.New(errs.ErrCodeUnknownAlias, "no version catalog loaded for alias %s%s", e.Alias, at(e))
		}

		if lib, ok := c.Lookup(e.Alias); ok {
			out = append(out, apply(e, lib))
			continue
		}

		if libs, ok := c.Bundle(e.Alias); ok && e.Kind == manifest.KindDependency {
			for _, lib := range libs {
				out = append(out, apply(e, lib))
			}
			continue
		}

		return nil, errs.New(errs.ErrCodeUnknownAlias, "unknown catalog alias %s%s", e.Alias, at(e))
	}
	return out, nil
}

func apply(e manifest.Entry, lib Library) manifest.Entry {
	e = e.Clone()
	e.Coordinate = lib.Coordinate
	if e.Version == "" {
		e.Version = lib.Version
	}
	return e
}

func at(e manifest.Entry) string {
	if e.Source == "" {
		return ""
	}
	return " (" + e.Source + ")"
}
