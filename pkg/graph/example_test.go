package graph_test

import (
	"fmt"

	"github.com/matzehuels/flowsketch/pkg/graph"
)

func ExampleGraph_Parse() {
	g := graph.New()
	n := g.Parse(`
		build -> test
		test -> deploy
		docs
		lint ->
	`)

	fmt.Println("Valid edges:", n)
	fmt.Println("Vertices:", g.Vertices())
	fmt.Println("Standalone:", g.StandaloneVertices())
	// Output:
	// Valid edges: 2
	// Vertices: [build deploy docs lint test]
	// Standalone: [docs lint]
}

func ExampleGraph_Toggle() {
	g := graph.New()
	g.Parse("A -> B\nB -> C\nC -> D")

	enabled := g.Toggle("B")
	fmt.Println("B enabled:", enabled)
	fmt.Println("Edges:", g.EnabledEdges())
	// Output:
	// B enabled: false
	// Edges: [{C D}]
}

func ExampleGraph_Snapshot() {
	g := graph.New()
	g.Parse("A -> B")
	snap := g.Snapshot()

	g.Parse("")
	fmt.Println("Graph empty:", g.IsEmpty())
	fmt.Println("Snapshot empty:", snap.IsEmpty())
	// Output:
	// Graph empty: true
	// Snapshot empty: false
}
