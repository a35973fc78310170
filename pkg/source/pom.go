package source

import (
	"fmt"
	"strings"

	"github.com/matzehuels/depmanifest/pkg/integrations/maven"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// POMParser reads a Maven pom.xml.
//
// <dependencies> become dependency entries: scope test maps to test-only,
// optional or provided/system scope to optional-compile, anything else to
// compile-and-export. BOM imports in <dependencyManagement> become
// platform entries. Other managed entries supply versions directly to the
// project's own dependencies.
type POMParser struct{}

// NewPOMParser returns a pom.xml parser.
func NewPOMParser() *POMParser { return &POMParser{} }

func (p *POMParser) Type() string              { return "pom.xml" }
func (p *POMParser) Supports(name string) bool { return name == "pom.xml" }

func (p *POMParser) Parse(filename string, data []byte) (*manifest.Document, error) {
	pom, err := maven.ParsePOM(data)
	if err != nil {
		return nil, invalid(filename, "%v", err)
	}

	doc := &manifest.Document{Project: pom.ArtifactID}

	for i, imp := range pom.Imports() {
		where := fmt.Sprintf("%s:dependencyManagement[%d]", filename, i)
		c, err := pomCoordinate(imp, where)
		if err != nil {
			return nil, err
		}
		if imp.Version == "" || maven.Unresolved(imp.Version) {
			return nil, invalid(where, "bom import %s needs a resolvable version", c)
		}
		doc.Entries = append(doc.Entries, manifest.Entry{
			Kind:       manifest.KindPlatform,
			Coordinate: c,
			Version:    imp.Version,
			Source:     where,
		})
	}

	managed := pom.ManagedVersions()
	for i, d := range pom.ResolvedDependencies() {
		where := fmt.Sprintf("%s:dependencies[%d]", filename, i)
		c, err := pomCoordinate(d, where)
		if err != nil {
			return nil, err
		}
		version := d.Version
		if maven.Unresolved(version) {
			return nil, invalid(where, "unresolved property in version %q of %s", version, c)
		}
		if version == "" {
			version = managed[c.String()]
		}
		doc.Entries = append(doc.Entries, manifest.Entry{
			Kind:       manifest.KindDependency,
			Coordinate: c,
			Version:    version,
			Role:       pomRole(d),
			Source:     where,
		})
	}
	return doc, nil
}

func pomCoordinate(d maven.Dependency, where string) (manifest.Coordinate, error) {
	if maven.Unresolved(d.Key()) {
		return manifest.Coordinate{}, invalid(where, "unresolved property in %q", d.Key())
	}
	c := manifest.Coordinate{Group: strings.TrimSpace(d.GroupID), Artifact: strings.TrimSpace(d.ArtifactID)}
	if err := c.Validate(); err != nil {
		return c, invalid(where, "%v", err)
	}
	return c, nil
}

func pomRole(d maven.Dependency) manifest.Role {
	switch {
	case d.Scope == "test":
		return manifest.RoleTestOnly
	case d.IsOptional(), d.Scope == "provided", d.Scope == "system":
		return manifest.RoleOptionalCompile
	default:
		return manifest.RoleCompileExport
	}
}
