package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG}

// Input is what a graph is drawn from.
type Input struct {
	Project      string // root node label; "project" when empty
	Platform     string // active platform as "group:artifact:version", if any
	Dependencies []manifest.Resolved
}

// Options configures node-link rendering.
type Options struct {
	// Detailed adds the role below each dependency label.
	Detailed bool
}

const platformNode = "platform"

// ToDOT converts resolved dependencies to Graphviz DOT.
func ToDOT(in Input, opts Options) string {
	project := in.Project
	if project == "" {
		project = "project"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [label=%q, shape=folder, fillcolor=lightblue];\n", project, project)
	if in.Platform != "" {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=note, fillcolor=lightyellow];\n", platformNode, in.Platform)
	}
	for _, d := range in.Dependencies {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", d.Coordinate.String(), fmtLabel(d, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, d := range in.Dependencies {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", project, d.Coordinate.String(), edgeAttrs(d.Role))
	}
	if in.Platform != "" {
		for _, d := range in.Dependencies {
			if d.Managed {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=goldenrod, arrowhead=empty];\n", platformNode, d.Coordinate.String())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(d manifest.Resolved, detailed bool) string {
	label := d.Coordinate.String() + "\n" + d.Version
	if detailed {
		label += "\n" + d.Role.String()
	}
	return label
}

func edgeAttrs(role manifest.Role) string {
	switch role {
	case manifest.RoleCompileExport:
		return "style=bold"
	case manifest.RoleOptionalCompile:
		return "style=dotted"
	case manifest.RoleTestOnly:
		return "color=gray50"
	default:
		return "style=solid"
	}
}

// ValidateFormat checks that format is one of [Formats].
func ValidateFormat(format string) error {
	switch format {
	case FormatDOT, FormatSVG, FormatPNG:
		return nil
	}
	return errs.New(errs.ErrCodeInvalidFormat, "invalid graph format %q (want %s)", format, strings.Join(Formats, ", "))
}

// Render converts a DOT graph to the given format.
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	}
	return nil, ValidateFormat(format)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := run(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return run(ctx, dot, graphviz.PNG)
}

func run(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// that scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
