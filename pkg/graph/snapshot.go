package graph

import (
	"encoding/json"
	"maps"
	"slices"
)

// View is the read-only query surface renderers depend on.
// It is implemented by *Graph and Snapshot.
type View interface {
	IsEmpty() bool
	AllDisabled() bool
	IsDisabled(label string) bool
	Vertices() []string
	EnabledEdges() []Edge
	StandaloneVertices() []string
}

var (
	_ View = (*Graph)(nil)
	_ View = Snapshot{}
)

// Snapshot is an immutable copy of a Graph's state.
// Its query methods behave exactly like the Graph methods of the same name
// at the moment the snapshot was taken.
type Snapshot struct {
	order    []string
	edges    []Edge
	disabled map[string]struct{}
}

// Snapshot copies the current state of g.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		order:    slices.Clone(g.order),
		edges:    slices.Clone(g.edges),
		disabled: maps.Clone(g.disabled),
	}
}

func (s Snapshot) IsEmpty() bool { return len(s.order) == 0 }

func (s Snapshot) AllDisabled() bool { return allDisabled(s.order, s.disabled) }

func (s Snapshot) IsDisabled(label string) bool {
	_, ok := s.disabled[label]
	return ok
}

func (s Snapshot) Vertices() []string { return sortedLabels(s.order) }

func (s Snapshot) Edges() []Edge { return slices.Clone(s.edges) }

func (s Snapshot) EnabledEdges() []Edge { return enabledEdges(s.edges, s.disabled) }

func (s Snapshot) StandaloneVertices() []string {
	return standalone(s.order, s.edges, s.disabled)
}

func (s Snapshot) Disabled() []string { return sortedKeys(s.disabled) }

// =============================================================================
// JSON Wire Format
// =============================================================================

// Document is the node-link serialization of a snapshot.
type Document struct {
	Nodes    []Node     `json:"nodes"`
	Edges    []EdgeJSON `json:"edges"`
	Disabled []string   `json:"disabled"`
}

// Node is a vertex in the wire format.
type Node struct {
	ID       string `json:"id"`
	Disabled bool   `json:"disabled,omitempty"`
}

// EdgeJSON is an edge in the wire format.
type EdgeJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Document converts the snapshot to its wire format.
// Nodes are sorted by ID; edges keep insertion order.
func (s Snapshot) Document() Document {
	verts := s.Vertices()
	doc := Document{
		Nodes:    make([]Node, len(verts)),
		Edges:    make([]EdgeJSON, len(s.edges)),
		Disabled: s.Disabled(),
	}
	for i, v := range verts {
		doc.Nodes[i] = Node{ID: v, Disabled: s.IsDisabled(v)}
	}
	for i, e := range s.edges {
		doc.Edges[i] = EdgeJSON{From: e.From, To: e.To}
	}
	return doc
}

// MarshalJSON encodes the snapshot as a Document.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}
