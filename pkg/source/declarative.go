package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// declFile is the schema shared by the YAML, JSON and TOML manifests:
//
//	project: microsphere-mybatis-test
//	platforms:
//	  - coordinate: io.github.microsphere-projects:microsphere-java-dependencies:0.0.1
//	dependencies:
//	  - alias: libs.mybatis
//	    role: optional-compile
//	  - coordinate: com.h2database:h2
//	    role: compile-and-export
type declFile struct {
	Project      string      `json:"project" yaml:"project" toml:"project"`
	Platforms    []declEntry `json:"platforms" yaml:"platforms" toml:"platforms"`
	Dependencies []declEntry `json:"dependencies" yaml:"dependencies" toml:"dependencies"`
}

type declEntry struct {
	Coordinate string            `json:"coordinate" yaml:"coordinate" toml:"coordinate"`
	Alias      string            `json:"alias" yaml:"alias" toml:"alias"`
	Version    string            `json:"version" yaml:"version" toml:"version"`
	Role       string            `json:"role" yaml:"role" toml:"role"`
	Versions   map[string]string `json:"versions" yaml:"versions" toml:"versions"`
	Disabled   bool              `json:"disabled" yaml:"disabled" toml:"disabled"`
}

// DeclarativeParser parses depmanifest.{yaml,yml,json,toml}.
type DeclarativeParser struct {
	typ    string
	exts   []string
	decode func(data []byte, v *declFile) error
}

// NewYAMLParser parses depmanifest.yaml and depmanifest.yml.
func NewYAMLParser() *DeclarativeParser {
	return &DeclarativeParser{typ: "yaml", exts: []string{".yaml", ".yml"}, decode: decodeYAML}
}

// NewJSONParser parses depmanifest.json.
func NewJSONParser() *DeclarativeParser {
	return &DeclarativeParser{typ: "json", exts: []string{".json"}, decode: decodeJSON}
}

// NewTOMLParser parses depmanifest.toml.
func NewTOMLParser() *DeclarativeParser {
	return &DeclarativeParser{typ: "toml", exts: []string{".toml"}, decode: decodeTOML}
}

func (p *DeclarativeParser) Type() string { return "depmanifest." + p.typ }

func (p *DeclarativeParser) Supports(name string) bool {
	base, ext, ok := strings.Cut(name, ".")
	return ok && base == "depmanifest" && slices.Contains(p.exts, "."+ext)
}

func (p *DeclarativeParser) Parse(filename string, data []byte) (*manifest.Document, error) {
	var f declFile
	if err := p.decode(data, &f); err != nil {
		return nil, invalid(filename, "%v", err)
	}

	doc := &manifest.Document{Project: strings.TrimSpace(f.Project)}
	for i, d := range f.Platforms {
		e, err := d.toPlatform(fmt.Sprintf("%s:platforms[%d]", filename, i))
		if err != nil {
			return nil, err
		}
		doc.Entries = append(doc.Entries, e)
	}
	for i, d := range f.Dependencies {
		e, err := d.toDependency(fmt.Sprintf("%s:dependencies[%d]", filename, i))
		if err != nil {
			return nil, err
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc, nil
}

func decodeYAML(data []byte, v *declFile) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeJSON(data []byte, v *declFile) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func decodeTOML(data []byte, v *declFile) error {
	md, err := toml.Decode(string(data), v)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown field %q", undecoded[0].String())
	}
	return nil
}

// base builds the coordinate, alias and version shared by both entry kinds.
func (d declEntry) base(src string) (manifest.Entry, error) {
	e := manifest.Entry{Source: src, Alias: strings.TrimSpace(d.Alias), Version: strings.TrimSpace(d.Version)}
	coord := strings.TrimSpace(d.Coordinate)

	switch {
	case coord != "" && e.Alias != "":
		return e, invalid(src, "coordinate and alias are mutually exclusive")
	case coord == "" && e.Alias == "":
		return e, invalid(src, "coordinate or alias is required")
	case coord != "":
		c, v, err := manifest.ParseCoordinate(coord)
		if err != nil {
			return e, invalid(src, "%v", err)
		}
		if v != "" && e.Version != "" && v != e.Version {
			return e, invalid(src, "version %q conflicts with coordinate version %q", e.Version, v)
		}
		e.Coordinate = c
		if e.Version == "" {
			e.Version = v
		}
	}
	return e, nil
}

func (d declEntry) toPlatform(src string) (manifest.Entry, error) {
	e, err := d.base(src)
	if err != nil {
		return e, err
	}
	if d.Role != "" {
		return e, invalid(src, "platforms do not take a role")
	}
	e.Kind = manifest.KindPlatform
	e.Versions = d.Versions
	e.Disabled = d.Disabled
	return e, nil
}

func (d declEntry) toDependency(src string) (manifest.Entry, error) {
	e, err := d.base(src)
	if err != nil {
		return e, err
	}
	if len(d.Versions) > 0 || d.Disabled {
		return e, invalid(src, "versions and disabled apply to platforms only")
	}
	if strings.TrimSpace(d.Role) == "" {
		return e, invalid(src, "role is required")
	}
	role, err := manifest.ParseRole(d.Role)
	if err != nil {
		return e, invalid(src, "%v", err)
	}
	e.Kind = manifest.KindDependency
	e.Role = role
	return e, nil
}
