package manifest

import "maps"

// Kind distinguishes platform entries from dependency entries.
type Kind int

const (
	KindDependency Kind = iota
	KindPlatform
)

func (k Kind) String() string {
	switch k {
	case KindDependency:
		return "dependency"
	case KindPlatform:
		return "platform"
	default:
		return "unknown"
	}
}

// Entry is one declaration read from a manifest.
type Entry struct {
	Kind       Kind
	Coordinate Coordinate
	Version    string // explicit version; empty means inherit from the platform
	Role       Role   // dependency entries only

	// Platform entries only.
	Versions map[string]string // managed versions keyed by "group:artifact", "group" or "artifact"
	Disabled bool              // a disabled platform supplies no versions

	Alias  string // catalog alias the entry was declared through, if any
	Source string // origin for diagnostics, e.g. "build.gradle.kts:12"
}

// Platform returns an active platform entry with the given version table.
func Platform(c Coordinate, versions map[string]string) Entry {
	return Entry{Kind: KindPlatform, Coordinate: c, Versions: versions}
}

// Dependency returns a dependency entry. An empty version inherits from the platform.
func Dependency(c Coordinate, version string, role Role) Entry {
	return Entry{Kind: KindDependency, Coordinate: c, Version: version, Role: role}
}

// Active reports whether e is a platform that supplies versions.
func (e Entry) Active() bool {
	return e.Kind == KindPlatform && !e.Disabled
}

// Lookup returns the version e manages for c. Keys are tried from most to
// least specific: "group:artifact", "group", "artifact".
func (e Entry) Lookup(c Coordinate) (string, bool) {
	if len(e.Versions) == 0 {
		return "", false
	}
	if v, ok := e.Versions[c.String()]; ok && v != "" {
		return v, true
	}
	if c.Group != "" {
		if v, ok := e.Versions[c.Group]; ok && v != "" {
			return v, true
		}
	}
	if v, ok := e.Versions[c.Artifact]; ok && v != "" {
		return v, true
	}
	return "", false
}

// Clone returns a copy of e whose version table can be modified freely.
func (e Entry) Clone() Entry {
	e.Versions = maps.Clone(e.Versions)
	return e
}

// Document is a parsed manifest file: the declaring project plus its entries
// in declaration order.
type Document struct {
	Project string  // project or module name, if the format declares one
	Type    string  // manifest kind, e.g. "build.gradle.kts" or "pom.xml"
	Entries []Entry // declarations in source order
}

// Platforms returns the platform entries of d in order.
func (d *Document) Platforms() []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.Kind == KindPlatform {
			out = append(out, e)
		}
	}
	return out
}

// Resolved is a dependency with its effective version and role.
type Resolved struct {
	Coordinate Coordinate `json:"coordinate" yaml:"coordinate"`
	Version    string     `json:"version" yaml:"version"`
	Role       Role       `json:"role" yaml:"role"`
	Managed    bool       `json:"managed,omitempty" yaml:"managed,omitempty"` // version came from the platform
}

// String formats r as "group:artifact:version".
func (r Resolved) String() string {
	return r.Coordinate.String() + ":" + r.Version
}
