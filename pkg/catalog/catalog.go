package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// DefaultName is the accessor name Gradle gives to gradle/libs.versions.toml.
const DefaultName = "libs"

// Library is one [libraries] entry.
type Library struct {
	Alias      string              // alias as written in the catalog
	Coordinate manifest.Coordinate // group and artifact
	Version    string              // resolved version; empty when BOM-managed
}

// Catalog is a parsed version catalog.
type Catalog struct {
	Name      string             // accessor name, e.g. "libs"
	Versions  map[string]string  // [versions], keyed by normalized alias
	Libraries map[string]Library // [libraries], keyed by normalized alias
	Bundles   map[string][]string
}

type catalogFile struct {
	Versions  map[string]any      `toml:"versions"`
	Libraries map[string]any      `toml:"libraries"`
	Bundles   map[string][]string `toml:"bundles"`
}

// Load reads a catalog file. The accessor name is derived from the file
// name: "libs.versions.toml" gives "libs".
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, NameFromPath(path))
}

// NameFromPath returns the accessor name for a catalog file path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if name, ok := strings.CutSuffix(base, ".versions.toml"); ok && name != "" {
		return name
	}
	return DefaultName
}

// Parse decodes catalog TOML.
func Parse(data []byte, name string) (*Catalog, error) {
	var raw catalogFile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "parse catalog")
	}
	if name == "" {
		name = DefaultName
	}

	c := &Catalog{
		Name:      name,
		Versions:  make(map[string]string, len(raw.Versions)),
		Libraries: make(map[string]Library, len(raw.Libraries)),
		Bundles:   make(map[string][]string, len(raw.Bundles)),
	}

	for alias, v := range raw.Versions {
		s, err := versionString(v)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "versions.%s", alias)
		}
		c.Versions[NormalizeAlias(alias)] = s
	}

	for alias, v := range raw.Libraries {
		lib, err := c.parseLibrary(alias, v)
		if err != nil {
			return nil, err
		}
		c.Libraries[NormalizeAlias(alias)] = lib
	}

	for alias, members := range raw.Bundles {
		key := NormalizeAlias(alias)
		for _, m := range members {
			if _, ok := c.Libraries[NormalizeAlias(m)]; !ok {
				return nil, errs.New(errs.ErrCodeInvalidCatalog, "bundle %s references unknown library %s", alias, m)
			}
			c.Bundles[key] = append(c.Bundles[key], NormalizeAlias(m))
		}
	}

	return c, nil
}

func (c *Catalog) parseLibrary(alias string, v any) (Library, error) {
	lib := Library{Alias: alias}
	invalid := func(format string, args ...any) error {
		return errs.New(errs.ErrCodeInvalidCatalog, "libraries.%s: %s", alias, fmt.Sprintf(format, args...))
	}

	switch t := v.(type) {
	case string:
		coord, version, err := manifest.ParseCoordinate(t)
		if err != nil {
			return lib, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "libraries.%s", alias)
		}
		if coord.Group == "" {
			return lib, invalid("notation %q needs group:artifact", t)
		}
		lib.Coordinate, lib.Version = coord, version

	case map[string]any:
		if module, ok := t["module"].(string); ok {
			coord, _, err := manifest.ParseCoordinate(module)
			if err != nil || coord.Group == "" {
				return lib, invalid("invalid module %q", module)
			}
			lib.Coordinate = coord
		} else {
			group, _ := t["group"].(string)
			name, _ := t["name"].(string)
			lib.Coordinate = manifest.Coordinate{Group: group, Artifact: name}
			if group == "" || name == "" {
				return lib, invalid("needs module or group and name")
			}
			if err := lib.Coordinate.Validate(); err != nil {
				return lib, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "libraries.%s", alias)
			}
		}

		if raw, ok := t["version"]; ok {
			version, err := c.libraryVersion(raw)
			if err != nil {
				return lib, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "libraries.%s", alias)
			}
			lib.Version = version
		}

	default:
		return lib, invalid("unsupported value of type %T", v)
	}

	return lib, nil
}

// libraryVersion handles version = "x", version.ref = "alias" and rich
// version tables.
func (c *Catalog) libraryVersion(raw any) (string, error) {
	if t, ok := raw.(map[string]any); ok {
		if ref, ok := t["ref"].(string); ok {
			v, found := c.Versions[NormalizeAlias(ref)]
			if !found {
				return "", fmt.Errorf("unknown version.ref %q", ref)
			}
			return v, nil
		}
	}
	return versionString(raw)
}

// versionString reads a plain version or a rich version table, preferring
// strictly, then require, then prefer.
func versionString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case map[string]any:
		for _, key := range []string{"strictly", "require", "prefer"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s, nil
			}
		}
		return "", fmt.Errorf("rich version without strictly, require or prefer")
	default:
		return "", fmt.Errorf("unsupported version value of type %T", v)
	}
}

// NormalizeAlias maps an alias or accessor path to its lookup key:
// lowercase with '-' and '_' replaced by '.'.
func NormalizeAlias(alias string) string {
	return strings.NewReplacer("-", ".", "_", ".").Replace(strings.ToLower(strings.TrimSpace(alias)))
}

// Lookup finds a library by alias or accessor ("libs.mybatis", "mybatis").
func (c *Catalog) Lookup(ref string) (Library, bool) {
	lib, ok := c.Libraries[c.key(ref)]
	return lib, ok
}

// Bundle returns the libraries of a bundle referenced as
// "libs.bundles.testing" or "bundles.testing".
func (c *Catalog) Bundle(ref string) ([]Library, bool) {
	key, ok := strings.CutPrefix(c.key(ref), "bundles.")
	if !ok {
		return nil, false
	}
	members, ok := c.Bundles[key]
	if !ok {
		return nil, false
	}
	libs := make([]Library, 0, len(members))
	for _, m := range members {
		libs = append(libs, c.Libraries[m])
	}
	return libs, true
}

// Aliases returns the library aliases in sorted order.
func (c *Catalog) Aliases() []string {
	out := make([]string, 0, len(c.Libraries))
	for _, lib := range c.Libraries {
		out = append(out, lib.Alias)
	}
	slices.Sort(out)
	return out
}

// IsReference reports whether ref is an accessor into this catalog.
func (c *Catalog) IsReference(ref string) bool {
	return strings.HasPrefix(NormalizeAlias(ref), NormalizeAlias(c.Name)+".")
}

func (c *Catalog) key(ref string) string {
	key := NormalizeAlias(ref)
	if trimmed, ok := strings.CutPrefix(key, NormalizeAlias(c.Name)+"."); ok {
		return trimmed
	}
	return key
}
