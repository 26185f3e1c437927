// Package graph holds the flowsketch graph model: the vertices and directed
// edges parsed from free-form text, plus the overlay of vertices the user has
// switched off.
//
// # Input Grammar
//
// [Graph.Parse] reads one statement per line. Leading and trailing whitespace
// is trimmed, blank lines are skipped, and every other line is either an edge
// or a vertex:
//
//	A -> B        edge from A to B (A and B become vertices)
//	C             standalone vertex C
//	D ->          incomplete edge: D becomes a standalone vertex
//	E -> F -> G   only the first two segments count: edge E -> F
//	-> H          edge from the empty label to H
//
// [Graph.Vertices] lists labels in ascending order of their UTF-16 code
// units, so the vertex list matches what a browser sorts.
//
// Parsing never fails. Malformed lines degrade to standalone vertices or are
// dropped, so callers can feed partially typed text on every keystroke and
// still get a usable graph.
//
// # Disabled Vertices
//
// The disabled set is independent of the parsed structure. [Graph.Toggle]
// flips any label, present or not, and [Graph.Parse] never clears it. A
// disabled vertex hides itself and every edge touching it from
// [Graph.EnabledEdges] and [Graph.StandaloneVertices] without being removed
// from [Graph.Vertices].
//
// # Snapshots
//
// Renderers take a [View]. Both *[Graph] and [Snapshot] implement it;
// [Graph.Snapshot] copies the current state so rendering can happen while the
// owner keeps mutating the graph.
//
// # Serialization
//
// Snapshots marshal to a node-link JSON document:
//
//	{
//	  "nodes": [{"id": "A"}, {"id": "B", "disabled": true}],
//	  "edges": [{"from": "A", "to": "B"}],
//	  "disabled": ["B"]
//	}
//
// # Concurrency
//
// Graph is not safe for concurrent use. Snapshots are immutable and may be
// shared freely between goroutines.
package graph
