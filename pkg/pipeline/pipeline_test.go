package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowsketch/pkg/cache"
	errs "github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/graph"
	"github.com/matzehuels/flowsketch/pkg/observability"
	"github.com/matzehuels/flowsketch/pkg/render/mermaid"
)

func quietLogger() *log.Logger { return log.New(io.Discard) }

// stubSVG replaces Graphviz with a counter for the duration of a test.
func stubSVG(t *testing.T) *int {
	t.Helper()
	calls := 0
	orig := renderSVG
	renderSVG = func(_ context.Context, dot string) ([]byte, error) {
		calls++
		return []byte("<svg><!--" + dot + "--></svg>"), nil
	}
	t.Cleanup(func() { renderSVG = orig })
	return &calls
}

// memCache is an in-memory cache.Cache for tests.
type memCache struct{ m map[string][]byte }

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	d, ok := c.m[key]
	return d, ok, nil
}
func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.m[key] = data
	return nil
}
func (c *memCache) Delete(_ context.Context, key string) error { delete(c.m, key); return nil }
func (c *memCache) Close() error                               { return nil }

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"mermaid", false},
		{"dot", false},
		{"json", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Format != FormatMermaid || opts.Source != "cli" || opts.Scale != DefaultScale {
		t.Errorf("defaults = %+v", opts)
	}
}

func TestOptionsTooLarge(t *testing.T) {
	opts := Options{Input: strings.Repeat("a", errs.MaxInputBytes+1)}
	if err := opts.ValidateAndSetDefaults(); !errs.Is(err, errs.ErrCodeTooLarge) {
		t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, errs.ErrCodeTooLarge)
	}
}

func TestExecuteMermaid(t *testing.T) {
	r := NewRunner(nil, quietLogger())
	res, err := r.Execute(context.Background(), Options{Input: "A -> B\nB -> C\nC -> A"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.ValidEdges != 3 {
		t.Errorf("ValidEdges = %d, want 3", res.ValidEdges)
	}
	if string(res.Artifact) != res.Definition {
		t.Errorf("Artifact = %q, want the definition", res.Artifact)
	}
	if res.Stats.Vertices != 3 || res.Stats.EnabledEdges != 3 {
		t.Errorf("Stats = %+v", res.Stats)
	}
}

func TestExecuteDisabled(t *testing.T) {
	r := NewRunner(nil, quietLogger())
	res, err := r.Execute(context.Background(), Options{Input: "A -> B", Disabled: []string{"A", "B"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Definition != mermaid.AllDisabled {
		t.Errorf("Definition = %q, want %q", res.Definition, mermaid.AllDisabled)
	}
	if res.Stats.Disabled != 2 {
		t.Errorf("Stats.Disabled = %d, want 2", res.Stats.Disabled)
	}
}

func TestExecuteEscaping(t *testing.T) {
	r := NewRunner(nil, quietLogger())
	ctx := context.Background()
	input := "a`b -> c\\d"

	tests := []struct {
		name string
		opts Options
		want func(def string) string
	}{
		{"raw", Options{}, func(d string) string { return d }},
		{"escape", Options{Escape: true}, mermaid.Escape},
		{"script", Options{Script: true, Escape: true}, mermaid.ScriptCall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Input = input
			res, err := r.Execute(ctx, tt.opts)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got, want := string(res.Artifact), tt.want(res.Definition); got != want {
				t.Errorf("Artifact = %q, want %q", got, want)
			}
		})
	}
}

func TestExecuteDOT(t *testing.T) {
	r := NewRunner(nil, quietLogger())
	res, err := r.Execute(context.Background(), Options{Input: "A -> B", Format: FormatDOT})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(string(res.Artifact), "node65 -> node66;") {
		t.Errorf("DOT artifact missing edge:\n%s", res.Artifact)
	}
}

func TestExecuteJSON(t *testing.T) {
	r := NewRunner(nil, quietLogger())
	res, err := r.Execute(context.Background(), Options{Input: "A -> B\nC", Format: FormatJSON, Disabled: []string{"C"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var doc graph.Document
	if err := json.Unmarshal(res.Artifact, &doc); err != nil {
		t.Fatalf("artifact is not JSON: %v", err)
	}
	if len(doc.Nodes) != 3 || len(doc.Edges) != 1 || len(doc.Disabled) != 1 {
		t.Errorf("document = %+v", doc)
	}
}

func TestExecuteSVGCaching(t *testing.T) {
	calls := stubSVG(t)
	c := newMemCache()
	r := NewRunner(c, quietLogger())
	ctx := context.Background()
	opts := Options{Input: "A -> B", Format: FormatSVG}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first render should miss the cache")
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second render should hit the cache")
	}
	if *calls != 1 {
		t.Errorf("renderSVG called %d times, want 1", *calls)
	}
	if string(first.Artifact) != string(second.Artifact) {
		t.Error("cached artifact differs from rendered one")
	}

	for key := range c.m {
		if !strings.HasPrefix(key, cache.KindSVG+":") {
			t.Errorf("cache key %q should be prefixed with svg:", key)
		}
	}

	opts.Refresh = true
	third, _ := r.Execute(ctx, opts)
	if third.CacheHit || *calls != 2 {
		t.Errorf("Refresh should bypass the cache: hit %v, calls %d", third.CacheHit, *calls)
	}
}

func TestExecuteRenderError(t *testing.T) {
	orig := renderSVG
	renderSVG = func(context.Context, string) ([]byte, error) { return nil, errors.New("graphviz exploded") }
	t.Cleanup(func() { renderSVG = orig })

	r := NewRunner(nil, quietLogger())
	_, err := r.Execute(context.Background(), Options{Input: "A", Format: FormatSVG})
	if !errs.Is(err, errs.ErrCodeRenderFailed) {
		t.Errorf("Execute() error = %v, want %s", err, errs.ErrCodeRenderFailed)
	}
}

func TestRenderView(t *testing.T) {
	g := graph.New()
	g.Parse("A -> B")
	r := NewRunner(nil, quietLogger())

	for _, v := range []graph.View{g, g.Snapshot()} {
		res, err := r.RenderView(context.Background(), v, Options{Format: FormatMermaid})
		if err != nil {
			t.Fatalf("RenderView(%T) error = %v", v, err)
		}
		if res.Definition != mermaid.Generate(g) {
			t.Errorf("RenderView(%T) definition = %q", v, res.Definition)
		}
	}
}

// recordingHooks counts pipeline and cache events.
type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	parses, renders, hits, misses int
	lastErr                       error
}

func (h *recordingHooks) OnParseComplete(context.Context, string, observability.ParseStats, time.Duration) {
	h.parses++
}
func (h *recordingHooks) OnRenderComplete(_ context.Context, _ string, _ time.Duration, err error) {
	h.renders++
	h.lastErr = err
}
func (h *recordingHooks) OnCacheHit(context.Context, string)  { h.hits++ }
func (h *recordingHooks) OnCacheMiss(context.Context, string) { h.misses++ }

func TestExecuteFiresHooks(t *testing.T) {
	stubSVG(t)
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	t.Cleanup(observability.Reset)

	r := NewRunner(newMemCache(), quietLogger())
	ctx := context.Background()
	opts := Options{Input: "A -> B", Format: FormatSVG}
	r.Execute(ctx, opts)
	r.Execute(ctx, opts)

	if h.parses != 2 || h.renders != 2 {
		t.Errorf("parses = %d, renders = %d, want 2 each", h.parses, h.renders)
	}
	if h.misses != 1 || h.hits != 1 {
		t.Errorf("misses = %d, hits = %d, want 1 each", h.misses, h.hits)
	}
	if h.lastErr != nil {
		t.Errorf("lastErr = %v", h.lastErr)
	}
}
