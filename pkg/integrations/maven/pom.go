package maven

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// Project is the subset of a POM document depmanifest reads.
type Project struct {
	XMLName    xml.Name   `xml:"project"`
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Version    string     `xml:"version"`
	Packaging  string     `xml:"packaging"`
	Name       string     `xml:"name"`
	Parent     *Parent    `xml:"parent"`
	Properties Properties `xml:"properties"`

	DependencyManagement []Dependency `xml:"dependencyManagement>dependencies>dependency"`
	Dependencies         []Dependency `xml:"dependencies>dependency"`
}

// Parent references the parent POM.
type Parent struct {
	GroupID      string `xml:"groupId"`
	ArtifactID   string `xml:"artifactId"`
	Version      string `xml:"version"`
	RelativePath string `xml:"relativePath"`
}

// Dependency is a <dependency> element, in either <dependencies> or
// <dependencyManagement>.
type Dependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Type       string `xml:"type"`
	Classifier string `xml:"classifier"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

// Key returns "groupId:artifactId".
func (d Dependency) Key() string { return d.GroupID + ":" + d.ArtifactID }

// IsImport reports whether d is a BOM import (scope import, type pom).
func (d Dependency) IsImport() bool {
	return d.Scope == "import" && d.Type == "pom"
}

// IsOptional reports whether <optional> is true.
func (d Dependency) IsOptional() bool {
	return strings.EqualFold(strings.TrimSpace(d.Optional), "true")
}

// Properties holds the free-form <properties> element.
type Properties map[string]string

// UnmarshalXML reads every child element of <properties> as name -> text.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	props := Properties{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			props[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			*p = props
			return nil
		}
	}
}

// ParsePOM decodes a POM document.
func ParsePOM(data []byte) (*Project, error) {
	var p Project
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pom: %w", err)
	}
	if p.Properties == nil {
		p.Properties = Properties{}
	}
	return &p, nil
}

// EffectiveGroupID returns the groupId, inherited from the parent when absent.
func (p *Project) EffectiveGroupID() string {
	if p.GroupID == "" && p.Parent != nil {
		return p.Parent.GroupID
	}
	return p.GroupID
}

// EffectiveVersion returns the version, inherited from the parent when absent.
func (p *Project) EffectiveVersion() string {
	if p.Version == "" && p.Parent != nil {
		return p.Parent.Version
	}
	return p.Version
}

// Inherit merges a parent's properties and managed dependencies into p.
// Values already declared by p win.
func (p *Project) Inherit(parent *Project) {
	if p.Properties == nil {
		p.Properties = Properties{}
	}
	for k, v := range parent.Properties {
		if _, ok := p.Properties[k]; !ok {
			p.Properties[k] = v
		}
	}

	declared := make(map[string]bool, len(p.DependencyManagement))
	for _, d := range p.DependencyManagement {
		declared[d.Key()] = true
	}
	for _, d := range parent.DependencyManagement {
		if declared[d.Key()] {
			continue
		}
		// Parent expressions referring to project.* must resolve against
		// the parent, so they are interpolated before merging.
		d.GroupID = parent.Interpolate(d.GroupID)
		d.ArtifactID = parent.Interpolate(d.ArtifactID)
		d.Version = parent.Interpolate(d.Version)
		p.DependencyManagement = append(p.DependencyManagement, d)
	}
}

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// maxInterpolationPasses bounds nested property expansion.
const maxInterpolationPasses = 8

// Interpolate replaces ${name} references using the project's properties
// and the built-in project.* values. Unknown references are left as is.
func (p *Project) Interpolate(s string) string {
	for range maxInterpolationPasses {
		if !strings.Contains(s, "${") {
			break
		}
		next := propertyRef.ReplaceAllStringFunc(s, func(m string) string {
			if v, ok := p.lookup(m[2 : len(m)-1]); ok {
				return v
			}
			return m
		})
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

func (p *Project) lookup(name string) (string, bool) {
	switch name {
	case "project.version", "pom.version", "version":
		return p.EffectiveVersion(), p.EffectiveVersion() != ""
	case "project.groupId", "pom.groupId", "groupId":
		return p.EffectiveGroupID(), p.EffectiveGroupID() != ""
	case "project.artifactId", "pom.artifactId", "artifactId":
		return p.ArtifactID, p.ArtifactID != ""
	case "project.parent.version", "parent.version":
		if p.Parent != nil && p.Parent.Version != "" {
			return p.Parent.Version, true
		}
		return "", false
	case "project.parent.groupId", "parent.groupId":
		if p.Parent != nil && p.Parent.GroupID != "" {
			return p.Parent.GroupID, true
		}
		return "", false
	}
	v, ok := p.Properties[name]
	return v, ok
}

// Unresolved reports whether s still contains a ${...} reference.
func Unresolved(s string) bool {
	return strings.Contains(s, "${")
}

// ManagedVersions returns the version table declared by
// <dependencyManagement>, keyed by "groupId:artifactId". Imports, entries
// without a version and entries whose coordinate or version cannot be
// interpolated are skipped. The first declaration of a key wins.
func (p *Project) ManagedVersions() map[string]string {
	table := make(map[string]string, len(p.DependencyManagement))
	for _, d := range p.DependencyManagement {
		if d.IsImport() {
			continue
		}
		d = p.interpolateDependency(d)
		if d.Version == "" || Unresolved(d.Key()) || Unresolved(d.Version) {
			continue
		}
		if _, ok := table[d.Key()]; !ok {
			table[d.Key()] = d.Version
		}
	}
	return table
}

// Imports returns the interpolated BOM imports in declaration order.
func (p *Project) Imports() []Dependency {
	var out []Dependency
	for _, d := range p.DependencyManagement {
		if d.IsImport() {
			out = append(out, p.interpolateDependency(d))
		}
	}
	return out
}

// ResolvedDependencies returns <dependencies> with property references
// interpolated.
func (p *Project) ResolvedDependencies() []Dependency {
	out := make([]Dependency, len(p.Dependencies))
	for i, d := range p.Dependencies {
		out[i] = p.interpolateDependency(d)
	}
	return out
}

func (p *Project) interpolateDependency(d Dependency) Dependency {
	d.GroupID = p.Interpolate(d.GroupID)
	d.ArtifactID = p.Interpolate(d.ArtifactID)
	d.Version = p.Interpolate(d.Version)
	d.Scope = strings.TrimSpace(d.Scope)
	d.Type = strings.TrimSpace(d.Type)
	return d
}
