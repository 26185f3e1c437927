// Package render holds the diagram renderers and shared format conversion.
//
// # Renderers
//
// The [mermaid] subpackage produces Mermaid flowchart text for the browser
// preview. The [nodelink] subpackage produces Graphviz DOT from the same graph
// view and renders it in-process to SVG.
//
//	def := mermaid.Generate(g)
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, nodelink.Options{}))
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert SVG using the external rsvg-convert tool
// (from librsvg). [Available] reports whether it is installed.
//
// [mermaid]: github.com/matzehuels/flowsketch/pkg/render/mermaid
// [nodelink]: github.com/matzehuels/flowsketch/pkg/render/nodelink
package render
