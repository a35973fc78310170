package io

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
	FormatLock = "lock"
)

// Formats lists every supported output format.
var Formats = []string{FormatJSON, FormatYAML, FormatText, FormatLock}

// Report is a resolution result ready to be written.
type Report struct {
	Project      string              `json:"project,omitempty" yaml:"project,omitempty"`
	Platform     string              `json:"platform,omitempty" yaml:"platform,omitempty"` // "group:artifact:version"
	Dependencies []manifest.Resolved `json:"dependencies" yaml:"dependencies"`
}

// ValidateFormat checks that format is one of [Formats].
func ValidateFormat(format string) error {
	if slices.Contains(Formats, format) {
		return nil
	}
	return errs.New(errs.ErrCodeInvalidFormat, "invalid output format %q (want %s)", format, strings.Join(Formats, ", "))
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r Report, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	case FormatText:
		return WriteText(w, r.Dependencies)
	case FormatLock:
		return WriteLock(w, r)
	}
	return ValidateFormat(format)
}

// WriteJSON encodes r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	if r.Dependencies == nil {
		r.Dependencies = []manifest.Resolved{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes r as YAML.
func WriteYAML(w io.Writer, r Report) error {
	if r.Dependencies == nil {
		r.Dependencies = []manifest.Resolved{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// WriteText writes one "group:artifact:version  role" line per dependency,
// with the role column aligned.
func WriteText(w io.Writer, deps []manifest.Resolved) error {
	width := 0
	for _, d := range deps {
		width = max(width, len(d.String()))
	}
	for _, d := range deps {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width, d.String(), d.Role); err != nil {
			return err
		}
	}
	return nil
}

const lockHeader = `# This is a depmanifest lockfile. It is not meant to be edited manually.
# Regenerate it with: depmanifest resolve --format lock
`

// WriteLock writes a lockfile: a comment header, the project and platform
// as comments, then sorted "group:artifact:version=role" lines.
func WriteLock(w io.Writer, r Report) error {
	var b strings.Builder
	b.WriteString(lockHeader)
	if r.Project != "" {
		fmt.Fprintf(&b, "# project: %s\n", r.Project)
	}
	if r.Platform != "" {
		fmt.Fprintf(&b, "# platform: %s\n", r.Platform)
	}
	for _, d := range sortedByCoordinate(r.Dependencies) {
		fmt.Fprintf(&b, "%s=%s\n", d.String(), d.Role)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Export writes r to a file at path.
// This is a convenience wrapper around [Write] for file-based output.
func Export(r Report, format, path string) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, r, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sortedByCoordinate(deps []manifest.Resolved) []manifest.Resolved {
	out := slices.Clone(deps)
	slices.SortStableFunc(out, func(a, b manifest.Resolved) int {
		return cmp.Or(
			cmp.Compare(a.Coordinate.Group, b.Coordinate.Group),
			cmp.Compare(a.Coordinate.Artifact, b.Coordinate.Artifact),
		)
	})
	return out
}
