package graph

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

// arrow separates the source and target of an edge statement.
const arrow = "->"

// Edge is a directed connection from one vertex label to another.
type Edge struct {
	From string
	To   string
}

// Graph is the mutable graph model.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	vertices map[string]struct{}
	order    []string // vertex insertion order
	edges    []Edge
	disabled map[string]struct{}
}

// New creates an empty graph with no disabled vertices.
func New() *Graph {
	return &Graph{
		vertices: make(map[string]struct{}),
		disabled: make(map[string]struct{}),
	}
}

// =============================================================================
// Mutation
// =============================================================================

// Parse replaces the vertex set and edge list with the statements in text and
// returns the number of complete edges found. The disabled set is kept.
//
// Parse is idempotent: calling it twice with the same text yields the same
// graph and the same count.
func (g *Graph) Parse(text string) int {
	clear(g.vertices)
	g.order = g.order[:0]
	g.edges = g.edges[:0]

	valid := 0
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, arrow) {
			g.addVertex(line)
			continue
		}

		parts := strings.Split(line, arrow)
		from := strings.TrimSpace(parts[0])
		to := strings.TrimSpace(parts[1])

		switch {
		case to == "":
			// Incomplete edge: keep the source as a standalone vertex.
			if from != "" {
				g.addVertex(from)
			}
		default:
			g.addVertex(from)
			g.addVertex(to)
			g.edges = append(g.edges, Edge{From: from, To: to})
			valid++
		}
	}
	return valid
}

// Toggle flips the disabled state of label and reports whether it is now
// enabled. Labels that are not part of the graph can be toggled too.
func (g *Graph) Toggle(label string) bool {
	if _, ok := g.disabled[label]; ok {
		delete(g.disabled, label)
		return true
	}
	g.disabled[label] = struct{}{}
	return false
}

// SetDisabled disables every given label and returns how many of them were
// not disabled before.
func (g *Graph) SetDisabled(labels ...string) int {
	added := 0
	for _, l := range labels {
		if _, ok := g.disabled[l]; ok {
			continue
		}
		g.disabled[l] = struct{}{}
		added++
	}
	return added
}

// ResetDisabled enables every vertex and returns how many labels were cleared.
func (g *Graph) ResetDisabled() int {
	n := len(g.disabled)
	clear(g.disabled)
	return n
}

func (g *Graph) addVertex(label string) {
	if _, ok := g.vertices[label]; ok {
		return
	}
	g.vertices[label] = struct{}{}
	g.order = append(g.order, label)
}

// =============================================================================
// Queries
// =============================================================================

// IsDisabled reports whether label is in the disabled set.
func (g *Graph) IsDisabled(label string) bool {
	_, ok := g.disabled[label]
	return ok
}

// IsEmpty reports whether the graph has no vertices.
func (g *Graph) IsEmpty() bool { return len(g.vertices) == 0 }

// Vertices returns all vertex labels in ascending lexicographic order of
// their UTF-16 code units. The slice is freshly allocated on every call.
func (g *Graph) Vertices() []string {
	return sortedLabels(g.order)
}

// Edges returns a copy of the full edge list in insertion order,
// including edges that touch disabled vertices.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EnabledEdges returns the edges whose endpoints are both enabled,
// in insertion order.
func (g *Graph) EnabledEdges() []Edge {
	return enabledEdges(g.edges, g.disabled)
}

// StandaloneVertices returns the enabled vertices that are not an endpoint of
// any edge, in the order they were first parsed. Edges to disabled vertices
// still count as connections.
func (g *Graph) StandaloneVertices() []string {
	return standalone(g.order, g.edges, g.disabled)
}

// AllDisabled reports whether the graph has vertices and every one of them is
// disabled. An empty graph is never all-disabled.
func (g *Graph) AllDisabled() bool {
	return allDisabled(g.order, g.disabled)
}

// Disabled returns the disabled labels in ascending order.
func (g *Graph) Disabled() []string {
	return sortedKeys(g.disabled)
}

// Stats summarizes the current graph.
func (g *Graph) Stats() Stats {
	return Stats{
		Vertices:     len(g.vertices),
		Edges:        len(g.edges),
		EnabledEdges: len(g.EnabledEdges()),
		Standalone:   len(g.StandaloneVertices()),
		Disabled:     len(g.disabled),
	}
}

// Stats holds vertex and edge counts for status output.
type Stats struct {
	Vertices     int `json:"vertices"`
	Edges        int `json:"edges"`
	EnabledEdges int `json:"enabled_edges"`
	Standalone   int `json:"standalone"`
	Disabled     int `json:"disabled"`
}

// =============================================================================
// Helpers shared with Snapshot
// =============================================================================

// splitLines splits on \n, \r\n and lone \r.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

func enabledEdges(edges []Edge, disabled map[string]struct{}) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if _, ok := disabled[e.From]; ok {
			continue
		}
		if _, ok := disabled[e.To]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

func standalone(order []string, edges []Edge, disabled map[string]struct{}) []string {
	connected := make(map[string]struct{}, 2*len(edges))
	for _, e := range edges {
		connected[e.From] = struct{}{}
		connected[e.To] = struct{}{}
	}

	out := make([]string, 0, len(order))
	for _, v := range order {
		if _, ok := connected[v]; ok {
			continue
		}
		if _, ok := disabled[v]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

func allDisabled(order []string, disabled map[string]struct{}) bool {
	if len(order) == 0 {
		return false
	}
	for _, v := range order {
		if _, ok := disabled[v]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareLabels)
	return keys
}

func sortedLabels(labels []string) []string {
	out := slices.Clone(labels)
	slices.SortFunc(out, compareLabels)
	return out
}

// compareLabels orders strings by UTF-16 code units, matching JavaScript
// string comparison. It differs from byte order only when labels mix
// U+E000..U+FFFF with supplementary characters.
func compareLabels(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		if ra != rb {
			return cmp.Compare(utf16Rank(ra), utf16Rank(rb))
		}
		a, b = a[na:], b[nb:]
	}
	return cmp.Compare(len(a), len(b))
}

// utf16Rank maps a rune to a key whose order matches the order of its first
// UTF-16 code unit: supplementary characters (surrogate pairs starting in
// U+D800..U+DBFF) sort after U+D7FF and before U+E000.
func utf16Rank(r rune) int {
	switch {
	case r < 0xD800:
		return int(r)
	case r >= 0x10000:
		return 0xD800 + int(r-0x10000)
	default:
		return int(r) + 0x100000
	}
}
