// Package render draws resolved dependency lists as node-link graphs.
//
// # Graph Shape
//
// [ToDOT] emits Graphviz DOT with one node for the declaring project and
// one per resolved dependency:
//
//   - project → dependency edges are styled by role (bold for
//     compile-and-export, dotted for optional-compile, grey for test-only)
//   - the active platform gets its own node with a dashed edge to every
//     dependency whose version it supplied
//
// # Output Formats
//
// DOT text is returned as-is. SVG and PNG are produced in-process by
// go-graphviz (a WebAssembly build of Graphviz), so no external binary is
// needed:
//
//	dot := render.ToDOT(render.Input{Project: "app", Dependencies: deps}, render.Options{})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
package render
