package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flowsketch"

// Prometheus implements PipelineHooks, CacheHooks and ControllerHooks by
// recording into Prometheus collectors.
type Prometheus struct {
	parses     *prometheus.CounterVec
	edges      *prometheus.HistogramVec
	parseTime  *prometheus.HistogramVec
	renders    *prometheus.CounterVec
	renderTime *prometheus.HistogramVec
	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec
	mutations  *prometheus.CounterVec
	observers  prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them with reg.
// It panics if a collector is already registered, like MustRegister.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Graph texts parsed, by source.",
		}, []string{"source"}),
		edges: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_edges",
			Help:      "Valid edges per parse.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"source"}),
		parseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing graph text.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"source"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Renders by format and outcome.",
		}, []string{"format", "outcome"}),
		renderTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering, by format.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes, by kind and result.",
		}, []string{"kind", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache, by kind.",
		}, []string{"kind"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_mutations_total",
			Help:      "Graph mutations applied by the controller.",
		}, []string{"kind"}),
		observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "controller_observers",
			Help:      "Observers currently subscribed to the controller.",
		}),
	}
	reg.MustRegister(
		p.parses, p.edges, p.parseTime,
		p.renders, p.renderTime,
		p.cacheOps, p.cacheBytes,
		p.mutations, p.observers,
	)
	return p
}

// Register installs p as the global pipeline, cache and controller hooks.
func (p *Prometheus) Register() {
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetControllerHooks(p)
}

func (p *Prometheus) OnParseStart(context.Context, string) {}

func (p *Prometheus) OnParseComplete(_ context.Context, source string, stats ParseStats, d time.Duration) {
	p.parses.WithLabelValues(source).Inc()
	p.edges.WithLabelValues(source).Observe(float64(stats.ValidEdges))
	p.parseTime.WithLabelValues(source).Observe(d.Seconds())
}

func (p *Prometheus) OnRenderStart(context.Context, string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.renders.WithLabelValues(format, outcome).Inc()
	p.renderTime.WithLabelValues(format).Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, kind string) {
	p.cacheOps.WithLabelValues(kind, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, kind string) {
	p.cacheOps.WithLabelValues(kind, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, kind string, size int) {
	p.cacheOps.WithLabelValues(kind, "set").Inc()
	p.cacheBytes.WithLabelValues(kind).Add(float64(size))
}

func (p *Prometheus) OnMutation(_ context.Context, kind string) {
	p.mutations.WithLabelValues(kind).Inc()
}

func (p *Prometheus) OnSubscribers(_ context.Context, n int) {
	p.observers.Set(float64(n))
}

var (
	_ PipelineHooks   = (*Prometheus)(nil)
	_ CacheHooks      = (*Prometheus)(nil)
	_ ControllerHooks = (*Prometheus)(nil)
)
