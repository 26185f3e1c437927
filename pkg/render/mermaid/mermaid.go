package mermaid

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/matzehuels/flowsketch/pkg/graph"
)

// Header opens every definition with a left-to-right flowchart.
const Header = "flowchart LR"

// Placeholder definitions for graphs with nothing to draw.
const (
	NoGraph     = Header + "\nA[No graph defined]"
	AllDisabled = Header + "\nA[All vertices disabled]"
)

// nodePrefix keeps identifiers alphabetic-led.
const nodePrefix = "node"

// Generate builds the flowchart definition for v.
func Generate(v graph.View) string {
	if v.IsEmpty() {
		return NoGraph
	}
	if v.AllDisabled() {
		return AllDisabled
	}

	standalone := v.StandaloneVertices()
	edges := v.EnabledEdges()
	// Every vertex is an edge endpoint but each such edge is filtered out.
	if len(standalone) == 0 && len(edges) == 0 {
		return NoGraph
	}

	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')

	for _, label := range standalone {
		writeNode(&b, label)
		b.WriteByte('\n')
	}
	for _, e := range edges {
		writeNode(&b, e.From)
		b.WriteString(" --> ")
		writeNode(&b, e.To)
		b.WriteByte('\n')
	}
	return b.String()
}

// writeNode writes a pill-shaped node declaration: id(["label"]).
func writeNode(b *strings.Builder, label string) {
	b.WriteString(NodeID(label))
	b.WriteString(`(["`)
	b.WriteString(label)
	b.WriteString(`"])`)
}

// NodeID returns a syntax-safe identifier for label.
//
// The identifier is "node" followed by the decimal 32-bit string hash of the
// label, computed as h = 31*h + c over its UTF-16 code units with int32
// overflow. A leading minus sign becomes 'n'.
func NodeID(label string) string {
	id := strconv.FormatInt(int64(stringHash(label)), 10)
	return nodePrefix + strings.Replace(id, "-", "n", 1)
}

func stringHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(c)
	}
	return h
}

// Escape makes definition safe to place inside a JavaScript template literal.
// Backslashes are doubled first, then backticks are escaped, so the backslash
// introduced for a backtick is not escaped again.
func Escape(definition string) string {
	definition = strings.ReplaceAll(definition, `\`, `\\`)
	return strings.ReplaceAll(definition, "`", "\\`")
}

// RenderFunc is the name of the page's render entry point.
const RenderFunc = "renderGraph"

// ScriptCall returns the script invocation that renders definition,
// e.g. renderGraph(`flowchart LR ...`).
func ScriptCall(definition string) string {
	return RenderFunc + "(`" + Escape(definition) + "`)"
}
