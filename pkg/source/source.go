// Package source reads manifest files into [manifest.Document] values.
//
// Supported formats:
//   - depmanifest.yaml, depmanifest.yml, depmanifest.json, depmanifest.toml
//   - build.gradle.kts and build.gradle (the top-level dependencies block)
//   - pom.xml
//
// Parsers only translate syntax into entries. Catalog aliases stay
// unexpanded and BOM tables stay empty; package pipeline handles both.
//
//	doc, err := source.ParseFile("build.gradle.kts", source.DefaultParsers(source.Options{})...)
package source

import (
	"fmt"
	"os"
	"path/filepath"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// ManifestParser reads dependency declarations from one manifest format.
type ManifestParser interface {
	// Parse decodes data, read from a file named filename.
	Parse(filename string, data []byte) (*manifest.Document, error)
	// Supports reports whether this parser handles the given filename.
	Supports(filename string) bool
	// Type returns the parser identifier (e.g. "gradle", "pom.xml").
	// Parsers that read several file kinds set [manifest.Document.Type]
	// themselves; otherwise it defaults to Type.
	Type() string
}

// Options configures the built-in parsers.
type Options struct {
	// Configurations overrides or extends the Gradle configuration to role
	// mapping, e.g. {"annotationProcessor": RoleOptionalCompile}.
	Configurations map[string]manifest.Role
}

// DefaultParsers returns every built-in parser.
func DefaultParsers(opts Options) []ManifestParser {
	return []ManifestParser{
		NewYAMLParser(),
		NewJSONParser(),
		NewTOMLParser(),
		NewGradleParser(opts.Configurations),
		NewPOMParser(),
	}
}

// DetectManifest finds a parser that supports the given file path.
func DetectManifest(path string, parsers ...ManifestParser) (ManifestParser, error) {
	name := filepath.Base(path)
	for _, p := range parsers {
		if p.Supports(name) {
			return p, nil
		}
	}
	return nil, errs.New(errs.ErrCodeUnsupported, "unsupported manifest: %s", name)
}

// ParseFile reads and parses the manifest at path. When the format does
// not name the project, the name of the containing directory is used.
func ParseFile(path string, parsers ...ManifestParser) (*manifest.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "manifest %s", path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	doc, err := ParseBytes(filepath.Base(path), data, parsers...)
	if err != nil {
		return nil, err
	}
	if doc.Project == "" {
		if abs, err := filepath.Abs(path); err == nil {
			doc.Project = filepath.Base(filepath.Dir(abs))
		}
	}
	return doc, nil
}

// ParseBytes parses in-memory manifest content. filename selects the parser
// and appears in entry sources.
func ParseBytes(filename string, data []byte, parsers ...ManifestParser) (*manifest.Document, error) {
	if err := errs.ValidateManifestFilename(filename); err != nil {
		return nil, err
	}
	p, err := DetectManifest(filename, parsers...)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(filepath.Base(filename), data)
	if err != nil {
		return nil, err
	}
	if doc.Type == "" {
		doc.Type = p.Type()
	}
	return doc, nil
}

func invalid(source, format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidManifest, "%s: %s", source, fmt.Sprintf(format, args...))
}
