// Package controller coordinates a graph, its diagram renderer and the
// views that display them.
//
// A [Controller] owns one [graph.Graph]. Each mutation ([Controller.Update],
// [Controller.Toggle], [Controller.Reset]) follows the same sequence:
//
//  1. apply the change to the graph
//  2. notify observers with the new vertex list (a Kind* mutation event)
//  3. generate the Mermaid definition and hand it to the [mermaid.Sink]
//  4. notify observers with the render outcome (a [KindRendered] event)
//
// The sequence runs under a single mutex, so concurrent callers (HTTP
// handlers, a file watcher, a terminal editor) see mutations one at a time
// and every mutation is followed by its own render attempt.
//
// Render outcomes are reported as a [Status]:
//
//	"Graph rendered successfully"   the sink accepted the definition
//	"Failed to render graph"        the sink returned mermaid.ErrRender
//	"Error: <message>"              any other sink error
//	"Renderer not ready"            the sink implements Readier and is not ready
package controller
