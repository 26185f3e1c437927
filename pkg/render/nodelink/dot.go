package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowsketch/pkg/graph"
	"github.com/matzehuels/flowsketch/pkg/render"
	"github.com/matzehuels/flowsketch/pkg/render/mermaid"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed shows disabled vertices as dashed grey nodes instead of
	// hiding them.
	Detailed bool
}

// Placeholder labels, shared with the Mermaid renderer.
const (
	labelNoGraph     = "No graph defined"
	labelAllDisabled = "All vertices disabled"
)

// ToDOT converts a graph view to Graphviz DOT format.
// Node ids match [mermaid.NodeID] so both renderings agree on identity.
//
// Nothing-to-draw cases produce a single plaintext node carrying the same
// message as the Mermaid placeholders.
func ToDOT(v graph.View, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	standalone := v.StandaloneVertices()
	edges := v.EnabledEdges()

	switch {
	case v.IsEmpty():
		writePlaceholder(&buf, labelNoGraph)
	case v.AllDisabled() && !opts.Detailed:
		writePlaceholder(&buf, labelAllDisabled)
	case len(standalone) == 0 && len(edges) == 0 && !opts.Detailed:
		writePlaceholder(&buf, labelNoGraph)
	default:
		writeBody(&buf, v, standalone, edges, opts)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writePlaceholder(buf *bytes.Buffer, label string) {
	fmt.Fprintf(buf, "  A [shape=plaintext, style=\"\", label=%q];\n", label)
}

func writeBody(buf *bytes.Buffer, v graph.View, standalone []string, edges []graph.Edge, opts Options) {
	declared := make(map[string]bool)
	declare := func(label string) {
		if declared[label] {
			return
		}
		declared[label] = true
		fmt.Fprintf(buf, "  %s [label=%q%s];\n", mermaid.NodeID(label), label, disabledAttrs(v, label))
	}

	for _, label := range standalone {
		declare(label)
	}
	for _, e := range edges {
		declare(e.From)
		declare(e.To)
	}
	if opts.Detailed {
		for _, label := range v.Vertices() {
			if v.IsDisabled(label) {
				declare(label)
			}
		}
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(buf, "  %s -> %s;\n", mermaid.NodeID(e.From), mermaid.NodeID(e.To))
	}
}

func disabledAttrs(v graph.View, label string) string {
	if !v.IsDisabled(label) {
		return ""
	}
	return `, style="rounded,filled,dashed", fillcolor=lightgrey, fontcolor=grey40`
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the image scales with its
// container instead of Graphviz's point-based width and height.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
