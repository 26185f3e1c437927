package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowsketch/pkg/graph"
)

func newGraph(input string, disabled ...string) *graph.Graph {
	g := graph.New()
	g.Parse(input)
	g.SetDisabled(disabled...)
	return g
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(newGraph("a -> b"), Options{})

	if !strings.Contains(dot, "digraph G") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	if !strings.Contains(dot, "rankdir=LR") {
		t.Error("ToDOT() output missing left-to-right rank direction")
	}
	if !strings.Contains(dot, `node97 [label="a"]`) {
		t.Error("ToDOT() output missing node a")
	}
	if !strings.Contains(dot, `node98 [label="b"]`) {
		t.Error("ToDOT() output missing node b")
	}
	if !strings.Contains(dot, "node97 -> node98;") {
		t.Error("ToDOT() output missing edge")
	}
}

func TestToDOT_Standalone(t *testing.T) {
	dot := ToDOT(newGraph("a -> b\nc"), Options{})

	if !strings.Contains(dot, `node99 [label="c"]`) {
		t.Error("ToDOT() output missing standalone node")
	}
	if strings.Count(dot, "->") != 1 {
		t.Errorf("ToDOT() should contain exactly one edge:\n%s", dot)
	}
}

func TestToDOT_DeclaresOnce(t *testing.T) {
	dot := ToDOT(newGraph("a -> b\nb -> a\na -> a"), Options{})

	if n := strings.Count(dot, `[label="a"]`); n != 1 {
		t.Errorf("node a declared %d times, want 1", n)
	}
}

func TestToDOT_Placeholders(t *testing.T) {
	tests := []struct {
		name string
		g    *graph.Graph
		want string
	}{
		{"empty", newGraph(""), labelNoGraph},
		{"all disabled", newGraph("a -> b", "a", "b"), labelAllDisabled},
		{"edges filtered", newGraph("a -> b\nc -> d", "a", "d"), labelNoGraph},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(tt.g, Options{})
			if !strings.Contains(dot, tt.want) {
				t.Errorf("ToDOT() missing placeholder %q:\n%s", tt.want, dot)
			}
			if !strings.Contains(dot, "plaintext") {
				t.Error("placeholder should be a plaintext node")
			}
		})
	}
}

func TestToDOT_Disabled(t *testing.T) {
	g := newGraph("a -> b\nb -> c", "c")

	plain := ToDOT(g, Options{})
	if strings.Contains(plain, `label="c"`) {
		t.Error("ToDOT() should hide disabled vertices by default")
	}

	detailed := ToDOT(g, Options{Detailed: true})
	if !strings.Contains(detailed, `label="c"`) {
		t.Error("ToDOT() detailed should draw disabled vertices")
	}
	if !strings.Contains(detailed, "dashed") {
		t.Error("ToDOT() detailed disabled vertex missing dashed style")
	}
	if strings.Contains(detailed, "node98 -> node99") {
		t.Error("ToDOT() detailed should not draw edges to disabled vertices")
	}
}

func TestToDOT_DetailedAllDisabled(t *testing.T) {
	dot := ToDOT(newGraph("a -> b", "a", "b"), Options{Detailed: true})
	if strings.Contains(dot, labelAllDisabled) {
		t.Error("ToDOT() detailed should draw the disabled vertices instead of the placeholder")
	}
	if strings.Count(dot, "dashed") != 2 {
		t.Errorf("ToDOT() detailed should draw 2 dashed nodes:\n%s", dot)
	}
}

func TestToDOT_QuotesLabels(t *testing.T) {
	dot := ToDOT(newGraph(`say "hi"`), Options{})
	if !strings.Contains(dot, `label="say \"hi\""`) {
		t.Errorf("ToDOT() should quote labels:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox() should set pixel dimensions: %s", out)
	}
}

func TestNormalizeViewBox_NoMatch(t *testing.T) {
	in := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(in); string(got) != string(in) {
		t.Errorf("normalizeViewBox() changed input without viewBox: %s", got)
	}
}
