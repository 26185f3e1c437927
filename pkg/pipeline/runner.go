package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowsketch/pkg/cache"
	errs "github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/graph"
	"github.com/matzehuels/flowsketch/pkg/observability"
	"github.com/matzehuels/flowsketch/pkg/render/mermaid"
	"github.com/matzehuels/flowsketch/pkg/render/nodelink"
)

// Graphviz entry points, replaced in tests.
var (
	renderSVG = nodelink.RenderSVG
	renderPNG = nodelink.RenderPNG
	renderPDF = nodelink.RenderPDF
)

// Result holds the output of a pipeline run.
type Result struct {
	Graph      graph.Snapshot
	ValidEdges int
	Stats      graph.Stats

	// Definition is the unescaped Mermaid definition, whatever the format.
	Definition string
	Format     string
	Artifact   []byte

	CacheHit bool
	Timing   Timing
}

// Timing records how long each stage took.
type Timing struct {
	Parse  time.Duration
	Render time.Duration
}

// Runner executes the pipeline with caching.
//
// A Runner holds no per-run state; one Runner may serve concurrent calls.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
	// TTL for cached artifacts. Zero uses cache.DefaultTTL.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching; a nil logger
// uses the default logger.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger, TTL: cache.DefaultTTL}
}

// Execute parses opts.Input and renders it in opts.Format.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	parseStart := time.Now()
	observability.Pipeline().OnParseStart(ctx, opts.Source)
	g := graph.New()
	n := g.Parse(opts.Input)
	g.SetDisabled(opts.Disabled...)
	stats := g.Stats()
	parseTime := time.Since(parseStart)
	observability.Pipeline().OnParseComplete(ctx, opts.Source, observability.ParseStats{
		Vertices:   stats.Vertices,
		ValidEdges: n,
		Standalone: stats.Standalone,
	}, parseTime)

	logger.Info("parsed graph",
		"vertices", stats.Vertices,
		"edges", n,
		"disabled", stats.Disabled,
		"duration", parseTime)

	result, err := r.render(ctx, g.Snapshot(), opts)
	if err != nil {
		return nil, err
	}
	result.ValidEdges = n
	result.Stats = stats
	result.Timing.Parse = parseTime
	return result, nil
}

// RenderView renders an existing graph view in opts.Format. opts.Input and
// opts.Disabled are ignored.
func (r *Runner) RenderView(ctx context.Context, v graph.View, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	var snap graph.Snapshot
	switch x := v.(type) {
	case graph.Snapshot:
		snap = x
	case *graph.Graph:
		snap = x.Snapshot()
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "unsupported graph view %T", v)
	}
	return r.render(ctx, snap, opts)
}

func (r *Runner) render(ctx context.Context, snap graph.Snapshot, opts Options) (*Result, error) {
	logger := r.logger(opts)
	hooks := observability.Pipeline()

	result := &Result{
		Graph:      snap,
		Definition: mermaid.Generate(snap),
		Format:     opts.Format,
	}

	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Format)
	var err error
	switch opts.Format {
	case FormatMermaid:
		result.Artifact = []byte(mermaidOutput(result.Definition, opts))
	case FormatDOT:
		result.Artifact = []byte(nodelink.ToDOT(snap, nodelink.Options{Detailed: opts.Detailed}))
	case FormatJSON:
		result.Artifact, err = json.MarshalIndent(snap.Document(), "", "  ")
	default:
		dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: opts.Detailed})
		result.Artifact, result.CacheHit, err = r.renderImage(ctx, dot, opts)
	}
	result.Timing.Render = time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Format, result.Timing.Render, err)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRenderFailed, err, "render %s", opts.Format)
	}

	logger.Info("rendered graph",
		"format", opts.Format,
		"bytes", len(result.Artifact),
		"cached", result.CacheHit,
		"duration", result.Timing.Render)
	return result, nil
}

// mermaidOutput applies the requested escaping to a definition.
func mermaidOutput(def string, opts Options) string {
	switch {
	case opts.Script:
		return mermaid.ScriptCall(def)
	case opts.Escape:
		return mermaid.Escape(def)
	default:
		return def
	}
}

// renderImage renders dot in an image format, consulting the cache first.
func (r *Runner) renderImage(ctx context.Context, dot string, opts Options) ([]byte, bool, error) {
	kind := opts.Format
	key := cache.Key(kind, dot, opts.Scale)
	hooks := observability.Cache()
	logger := r.logger(opts)

	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			logger.Warn("cache read failed", "key", key, "err", err)
		} else if hit {
			hooks.OnCacheHit(ctx, kind)
			return data, true, nil
		}
	}
	hooks.OnCacheMiss(ctx, kind)

	var data []byte
	var err error
	switch opts.Format {
	case FormatSVG:
		data, err = renderSVG(ctx, dot)
	case FormatPNG:
		data, err = renderPNG(ctx, dot, opts.Scale)
	case FormatPDF:
		data, err = renderPDF(ctx, dot)
	default:
		return nil, false, fmt.Errorf("not an image format: %s", opts.Format)
	}
	if err != nil {
		return nil, false, err
	}

	ttl := r.TTL
	if ttl == 0 {
		ttl = cache.DefaultTTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache write failed", "key", key, "err", err)
	} else {
		hooks.OnCacheSet(ctx, kind, len(data))
	}
	return data, false, nil
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}
