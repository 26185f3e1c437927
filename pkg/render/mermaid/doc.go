// Package mermaid turns a graph snapshot into Mermaid flowchart text.
//
// # Overview
//
// [Generate] is a pure function of a [graph.View]: the same graph state always
// yields the same definition. The output is line oriented and newline
// terminated:
//
//	flowchart LR
//	node67(["C"])
//	node65(["A"]) --> node66(["B"])
//
// Standalone vertices are declared first, in parse order, followed by one
// line per enabled edge. Every node is drawn as a pill with its label quoted
// verbatim.
//
// Two placeholder definitions cover graphs with nothing to draw:
// [NoGraph] for an empty graph and [AllDisabled] when every vertex has been
// switched off.
//
// # Node Identifiers
//
// [NodeID] derives an identifier from a label with a 32-bit polynomial
// string hash, so identical labels share a node. Distinct labels can collide;
// the identifier only ever contains letters and digits and never breaks the
// flowchart syntax.
//
// # Embedding
//
// Labels are not escaped by [Generate]. Before a definition is spliced into
// a JavaScript template literal it goes through [Escape], and [ScriptCall]
// builds the complete render invocation expected by the preview page.
//
// # Sinks
//
// A [Sink] is anything that can display a definition: the browser preview,
// a terminal, a file. Sinks report failure with an error wrapping
// [ErrRender].
package mermaid
