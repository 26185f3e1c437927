// Package nodelink renders flowsketch graphs as Graphviz node-link diagrams.
//
// # Overview
//
// This is the offline counterpart of the Mermaid preview: the same graph
// view becomes a left-to-right DOT digraph that Graphviz renders without a
// browser.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Node ids are shared with the Mermaid renderer, so a label maps to the same
// identifier in both outputs.
//
// # Options
//
//   - Detailed: also draw disabled vertices, dashed and greyed out
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
