package source

import (
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"strings"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// DefaultConfigurations maps Gradle dependency configurations to roles.
// Any configuration starting with "test" maps to test-only.
var DefaultConfigurations = map[string]manifest.Role{
	"optionalApi":    manifest.RoleOptionalCompile,
	"compileOnly":    manifest.RoleOptionalCompile,
	"compileOnlyApi": manifest.RoleOptionalCompile,
	"api":            manifest.RoleCompileExport,
	"implementation": manifest.RoleCompileExport,
	"runtimeOnly":    manifest.RoleCompileExport,
}

// GradleParser reads the top-level dependencies block of a Kotlin or
// Groovy Gradle build script.
//
// Supported notations:
//
//	api("g:a:v")                       implementation 'g:a:v'
//	"optionalApi"(libs.mybatis)        testImplementation libs.junit
//	implementation(platform("g:a:v"))  api enforcedPlatform('g:a:v')
//	implementation(group = "g", name = "a", version = "v")
//	implementation group: 'g', name: 'a', version: 'v'
//
// project(...) dependencies and constraints blocks are skipped. Anything
// else, including string interpolation, is rejected.
type GradleParser struct {
	configurations map[string]manifest.Role
}

// NewGradleParser returns a parser using [DefaultConfigurations] extended
// by overrides.
func NewGradleParser(overrides map[string]manifest.Role) *GradleParser {
	confs := maps.Clone(DefaultConfigurations)
	maps.Copy(confs, overrides)
	return &GradleParser{configurations: confs}
}

func (p *GradleParser) Type() string { return "gradle" }

func (p *GradleParser) Supports(name string) bool {
	return name == "build.gradle.kts" || name == "build.gradle"
}

// Role returns the role of a configuration.
func (p *GradleParser) Role(configuration string) (manifest.Role, bool) {
	if r, ok := p.configurations[configuration]; ok {
		return r, true
	}
	if strings.HasPrefix(configuration, "test") {
		return manifest.RoleTestOnly, true
	}
	return manifest.RoleUnknown, false
}

func (p *GradleParser) Parse(filename string, data []byte) (*manifest.Document, error) {
	src := stripComments(string(data))
	blocks, err := dependencyBlocks(src)
	if err != nil {
		return nil, invalid(filename, "%v", err)
	}

	doc := &manifest.Document{Type: filepath.Base(filename)}
	for _, b := range blocks {
		for _, st := range statements(src, b) {
			where := fmt.Sprintf("%s:%d", filename, lineAt(src, st.offset))
			entries, err := p.statement(st.text, where)
			if err != nil {
				return nil, err
			}
			doc.Entries = append(doc.Entries, entries...)
		}
	}
	return doc, nil
}

var (
	callStart   = regexp.MustCompile(`^"?([A-Za-z_]\w*)"?\s*\(`)
	groovyStart = regexp.MustCompile(`^([A-Za-z_]\w*)\s+(\S.*)$`)
	aliasRef    = regexp.MustCompile(`^[A-Za-z_]\w*(\.[A-Za-z_][\w-]*)+$`)
	namedArg    = regexp.MustCompile(`^(group|name|version|classifier|ext)\s*[:=]\s*(.+)$`)
)

func (p *GradleParser) statement(s, where string) ([]manifest.Entry, error) {
	var conf, args string
	switch {
	case callStart.MatchString(s):
		m := callStart.FindStringSubmatch(s)
		conf = m[1]
		open := len(m[0]) - 1
		end := matching(s, open, '(', ')')
		if end < 0 {
			return nil, invalid(where, "unbalanced parentheses")
		}
		if rest := strings.TrimSpace(s[end+1:]); rest != "" && !strings.HasPrefix(rest, "{") {
			return nil, invalid(where, "unsupported dependency notation %q", s)
		}
		args = s[open+1 : end]
	case groovyStart.MatchString(s):
		m := groovyStart.FindStringSubmatch(s)
		conf, args = m[1], m[2]
	default:
		return nil, invalid(where, "unsupported statement %q", s)
	}

	if conf == "constraints" {
		return nil, nil
	}

	parts := splitArgs(args)
	if len(parts) > 0 && namedArg.MatchString(parts[0]) {
		coord, err := namedCoordinate(parts, where)
		if err != nil {
			return nil, err
		}
		parts = []string{coord}
	}

	var entries []manifest.Entry
	for _, arg := range parts {
		if strings.HasPrefix(arg, "{") {
			continue // configuration closure
		}
		e, skip, err := p.notation(conf, arg, where)
		if err != nil {
			return nil, err
		}
		if !skip {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// notation parses one dependency notation. skip is true for notations that
// declare no external module, such as project(":core").
func (p *GradleParser) notation(conf, arg, where string) (e manifest.Entry, skip bool, err error) {
	e.Source = where

	for _, fn := range []string{"platform", "enforcedPlatform"} {
		if inner, ok := unwrapCall(arg, fn); ok {
			e.Kind = manifest.KindPlatform
			return e, false, target(&e, inner, where)
		}
	}
	if _, ok := unwrapCall(arg, "project"); ok {
		return e, true, nil
	}

	role, ok := p.Role(conf)
	if !ok {
		return e, false, errs.New(errs.ErrCodeConfiguration,
			"%s: unknown configuration %q (map it to a role under \"configurations\" in the config file)", where, conf)
	}
	e.Kind = manifest.KindDependency
	e.Role = role
	return e, false, target(&e, arg, where)
}

// target sets the coordinate or alias of e from a string literal or a
// catalog accessor.
func target(e *manifest.Entry, arg, where string) error {
	arg = strings.TrimSpace(arg)
	if lit, ok := unquote(arg); ok {
		if strings.Contains(lit, "$") {
			return invalid(where, "string interpolation is not supported: %s", arg)
		}
		c, v, err := manifest.ParseCoordinate(lit)
		if err != nil {
			return invalid(where, "%v", err)
		}
		e.Coordinate, e.Version = c, v
		return nil
	}

	ref := strings.TrimSuffix(arg, ".get()")
	if aliasRef.MatchString(ref) {
		e.Alias = ref
		return nil
	}
	return invalid(where, "unsupported dependency notation %q", arg)
}

func namedCoordinate(parts []string, where string) (string, error) {
	fields := map[string]string{}
	for _, part := range parts {
		m := namedArg.FindStringSubmatch(part)
		if m == nil {
			return "", invalid(where, "cannot mix named and positional arguments: %q", part)
		}
		v, ok := unquote(strings.TrimSpace(m[2]))
		if !ok {
			return "", invalid(where, "%s must be a string literal", m[1])
		}
		fields[m[1]] = v
	}
	if fields["classifier"] != "" || fields["ext"] != "" {
		return "", invalid(where, "classifiers are not supported")
	}
	if fields["name"] == "" {
		return "", invalid(where, "name is required")
	}
	coord := fields["group"] + ":" + fields["name"]
	if fields["version"] != "" {
		coord += ":" + fields["version"]
	}
	return `"` + coord + `"`, nil
}

func unwrapCall(s, fn string) (string, bool) {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, fn)
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", false
	}
	if matching(rest, 0, '(', ')') != len(rest)-1 {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// =============================================================================
// Scanning
// =============================================================================

// stripComments blanks out // and /* */ comments outside string literals.
// Newlines are kept so offsets still map to the original line numbers.
func stripComments(src string) string {
	out := []byte(src)
	var quote byte
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote || c == '\n' {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			for i < len(out) && out[i] != '\n' {
				out[i] = ' '
				i++
			}
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			out[i], out[i+1] = ' ', ' '
			i += 2
			for i < len(out) && !(out[i] == '*' && i+1 < len(out) && out[i+1] == '/') {
				if out[i] != '\n' {
					out[i] = ' '
				}
				i++
			}
			if i < len(out) {
				out[i], out[i+1] = ' ', ' '
				i++
			}
		}
	}
	return string(out)
}

type span struct{ start, end int }

// dependencyBlocks returns the bodies of top-level dependencies { } blocks.
// Blocks nested in buildscript, subprojects and similar are ignored.
func dependencyBlocks(src string) ([]span, error) {
	var blocks []span
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote || c == '\n' {
				quote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced braces at line %d", lineAt(src, i))
			}
		case depth == 0 && strings.HasPrefix(src[i:], "dependencies") && !identBefore(src, i):
			j := i + len("dependencies")
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
				j++
			}
			if j >= len(src) || src[j] != '{' {
				continue
			}
			end := matching(src, j, '{', '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated dependencies block at line %d", lineAt(src, i))
			}
			blocks = append(blocks, span{j + 1, end})
			i = end
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced braces")
	}
	return blocks, nil
}

type statement struct {
	text   string
	offset int
}

// statements splits a block body at newlines and semicolons that are not
// inside brackets or strings. A trailing comma continues the statement.
func statements(src string, b span) []statement {
	var out []statement
	depth := 0
	var quote byte
	start := b.start

	flush := func(end int) {
		raw := src[start:end]
		text := strings.TrimSpace(raw)
		if text != "" {
			off := start + strings.Index(raw, text)
			out = append(out, statement{text: strings.Join(strings.Fields(text), " "), offset: off})
		}
		start = end + 1
	}

	for i := b.start; i < b.end; i++ {
		c := src[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case '\n', ';':
			if depth == 0 && !strings.HasSuffix(strings.TrimSpace(src[start:i]), ",") {
				flush(i)
			}
		}
	}
	flush(b.end)
	return out
}

// splitArgs splits an argument list at top-level commas.
func splitArgs(s string) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case ',':
			if depth == 0 {
				if a := strings.TrimSpace(s[start:i]); a != "" {
					out = append(out, a)
				}
				start = i + 1
			}
		}
	}
	if a := strings.TrimSpace(s[start:]); a != "" {
		out = append(out, a)
	}
	return out
}

// matching returns the index of the bracket closing the one at open, or -1.
func matching(s string, open int, l, r byte) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case l:
			depth++
		case r:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func identBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	c := s[i-1]
	return c == '.' || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func lineAt(s string, offset int) int {
	return strings.Count(s[:offset], "\n") + 1
}
