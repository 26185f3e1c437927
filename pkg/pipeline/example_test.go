package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExampleGraphs(t *testing.T) {
	tests := []struct {
		file       string
		validEdges int
		vertices   int
		standalone int
	}{
		{"build.txt", 6, 7, 1},
		{"cycle.txt", 3, 3, 0},
	}
	r := NewRunner(nil, quietLogger())
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("..", "..", "examples", "graphs", tt.file))
			if err != nil {
				t.Fatal(err)
			}
			res, err := r.Execute(context.Background(), Options{Input: string(data), Format: FormatMermaid})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.ValidEdges != tt.validEdges || res.Stats.Vertices != tt.vertices || res.Stats.Standalone != tt.standalone {
				t.Errorf("edges = %d, stats = %+v", res.ValidEdges, res.Stats)
			}
			if got := strings.Count(res.Definition, " --> "); got != tt.validEdges {
				t.Errorf("definition has %d edges, want %d:\n%s", got, tt.validEdges, res.Definition)
			}
		})
	}
}
