package controller

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	errs "github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/graph"
	"github.com/matzehuels/flowsketch/pkg/observability"
	"github.com/matzehuels/flowsketch/pkg/render/mermaid"
)

// Status messages reported after a render attempt.
const (
	StatusRendered = "Graph rendered successfully"
	StatusFailed   = "Failed to render graph"
	StatusNotReady = "Renderer not ready"
)

// Kind identifies what produced an Event.
type Kind string

const (
	KindParsed   Kind = "parsed"
	KindToggled  Kind = "toggled"
	KindReset    Kind = "reset"
	KindRendered Kind = "rendered"
)

// VertexState is one row of the vertex list.
type VertexState struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// Status is the outcome line shown beneath the diagram.
type Status struct {
	Message string `json:"message"`
	IsError bool   `json:"is_error"`
}

// Event is delivered to observers after every mutation and render.
type Event struct {
	Kind       Kind          `json:"kind"`
	Revision   uint64        `json:"revision"`
	RevisionID string        `json:"revision_id"`
	Vertices   []VertexState `json:"vertices"`
	Definition string        `json:"definition,omitempty"`
	Status     *Status       `json:"status,omitempty"`
}

// Result describes a completed controller operation.
type Result struct {
	Revision   uint64
	RevisionID string

	// ValidEdges is set by Update.
	ValidEdges int
	// Toggled and Enabled are set by Toggle.
	Toggled string
	Enabled bool
	// Cleared is set by Reset.
	Cleared int

	// Vertices is the vertex list at Revision, captured under the same lock
	// as the mutation.
	Vertices   []VertexState
	Definition string
	Rendered   bool
	Status     Status
	Err        error
}

// Observer receives controller events. OnChange runs while the controller
// holds its lock, so it must not call back into the Controller.
type Observer interface {
	OnChange(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnChange calls f.
func (f ObserverFunc) OnChange(e Event) { f(e) }

// Readier is implemented by sinks that can be temporarily unable to render,
// such as a page that has not finished loading.
type Readier interface {
	Ready() bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSource labels parse events reported to observability hooks.
func WithSource(source string) Option {
	return func(c *Controller) { c.source = source }
}

// WithDisabled starts the controller with labels already disabled.
func WithDisabled(labels ...string) Option {
	return func(c *Controller) { c.graph.SetDisabled(labels...) }
}

// Controller owns a single graph and keeps the rendered diagram in step with
// it. Every mutation is applied, announced and rendered under one lock, so a
// reader never observes a graph whose diagram has not been attempted.
type Controller struct {
	mu        sync.Mutex
	graph     *graph.Graph
	text      string
	sink      mermaid.Sink
	revision  uint64
	revID     string
	lastDef   string
	status    Status
	observers map[int]Observer
	nextObs   int
	logger    *log.Logger
	source    string
}

// New creates a controller rendering through sink. A nil sink discards
// definitions.
func New(sink mermaid.Sink, opts ...Option) *Controller {
	if sink == nil {
		sink = mermaid.Discard
	}
	c := &Controller{
		graph:     graph.New(),
		sink:      sink,
		observers: make(map[int]Observer),
		logger:    log.Default(),
		source:    "controller",
		status:    Status{Message: "Ready"},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.revID = uuid.NewString()
	c.lastDef = mermaid.Generate(c.graph)
	return c
}

// =============================================================================
// Mutations
// =============================================================================

// Update replaces the graph with the parsed text and renders it.
// Disabled vertices survive the update.
func (c *Controller) Update(ctx context.Context, text string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, c.source)
	start := time.Now()
	n := c.graph.Parse(text)
	c.text = text
	stats := c.graph.Stats()
	hooks.OnParseComplete(ctx, c.source, observability.ParseStats{
		Vertices:   stats.Vertices,
		ValidEdges: n,
		Standalone: stats.Standalone,
	}, time.Since(start))

	c.logger.Debug("graph updated", "vertices", stats.Vertices, "edges", n)

	res := c.commit(ctx, KindParsed)
	res.ValidEdges = n
	return res
}

// Toggle flips label between enabled and disabled and renders the result.
func (c *Controller) Toggle(ctx context.Context, label string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	enabled := c.graph.Toggle(label)
	c.logger.Debug("vertex toggled", "label", label, "enabled", enabled)

	res := c.commit(ctx, KindToggled)
	res.Toggled = label
	res.Enabled = enabled
	return res
}

// Reset re-enables every vertex and renders the result.
func (c *Controller) Reset(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.graph.ResetDisabled()
	c.logger.Debug("disabled vertices reset", "cleared", n)

	res := c.commit(ctx, KindReset)
	res.Cleared = n
	return res
}

// Render renders the current graph again without changing it.
func (c *Controller) Render(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render(ctx)
}

// commit bumps the revision, announces the new vertex list and renders.
// Callers hold c.mu.
func (c *Controller) commit(ctx context.Context, kind Kind) Result {
	c.revision++
	c.revID = uuid.NewString()
	observability.Controller().OnMutation(ctx, string(kind))

	c.notify(Event{
		Kind:       kind,
		Revision:   c.revision,
		RevisionID: c.revID,
		Vertices:   c.vertices(),
	})
	return c.render(ctx)
}

// render generates the definition and hands it to the sink.
// Callers hold c.mu.
func (c *Controller) render(ctx context.Context) Result {
	def := mermaid.Generate(c.graph)
	c.lastDef = def

	res := Result{
		Revision:   c.revision,
		RevisionID: c.revID,
		Vertices:   c.vertices(),
		Definition: def,
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, "mermaid")
	start := time.Now()

	var err error
	if r, ok := c.sink.(Readier); ok && !r.Ready() {
		err = errs.New(errs.ErrCodeNotReady, "renderer not ready")
		res.Status = Status{Message: StatusNotReady, IsError: true}
	} else if err = c.sink.Render(ctx, def); err != nil {
		if errors.Is(err, mermaid.ErrRender) {
			res.Status = Status{Message: StatusFailed, IsError: true}
		} else {
			res.Status = Status{Message: "Error: " + err.Error(), IsError: true}
		}
		err = errs.Wrap(errs.ErrCodeRenderFailed, err, "render revision %d", c.revision)
	} else {
		res.Rendered = true
		res.Status = Status{Message: StatusRendered}
	}
	hooks.OnRenderComplete(ctx, "mermaid", time.Since(start), err)

	if err != nil {
		c.logger.Warn("render failed", "revision", c.revision, "err", err)
	}
	res.Err = err
	c.status = res.Status

	status := res.Status
	c.notify(Event{
		Kind:       KindRendered,
		Revision:   c.revision,
		RevisionID: c.revID,
		Vertices:   slices.Clone(res.Vertices),
		Definition: def,
		Status:     &status,
	})
	return res
}

// =============================================================================
// Queries
// =============================================================================

// Vertices returns the vertex list in ascending order with disabled flags.
func (c *Controller) Vertices() []VertexState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vertices()
}

func (c *Controller) vertices() []VertexState {
	labels := c.graph.Vertices()
	out := make([]VertexState, len(labels))
	for i, l := range labels {
		out[i] = VertexState{Label: l, Disabled: c.graph.IsDisabled(l)}
	}
	return out
}

// IsDisabled reports whether label is disabled.
func (c *Controller) IsDisabled(label string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph.IsDisabled(label)
}

// Snapshot returns an immutable copy of the current graph.
func (c *Controller) Snapshot() graph.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph.Snapshot()
}

// State is a consistent view of the controller at one revision.
type State struct {
	Revision   uint64         `json:"revision"`
	RevisionID string         `json:"revision_id"`
	Text       string         `json:"text"`
	Vertices   []VertexState  `json:"vertices"`
	Graph      graph.Snapshot `json:"graph"`
	Stats      graph.Stats    `json:"stats"`
	Definition string         `json:"definition"`
	Status     Status         `json:"status"`
}

// State returns the current text, graph, definition and status together.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Revision:   c.revision,
		RevisionID: c.revID,
		Text:       c.text,
		Vertices:   c.vertices(),
		Graph:      c.graph.Snapshot(),
		Stats:      c.graph.Stats(),
		Definition: c.lastDef,
		Status:     c.status,
	}
}

// =============================================================================
// Observers
// =============================================================================

// Subscribe registers o for events. The returned function unsubscribes; it
// is safe to call more than once.
func (c *Controller) Subscribe(o Observer) (cancel func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = o
	n := len(c.observers)
	c.mu.Unlock()
	observability.Controller().OnSubscribers(context.Background(), n)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			n := len(c.observers)
			c.mu.Unlock()
			observability.Controller().OnSubscribers(context.Background(), n)
		})
	}
}

// notify delivers e to observers in subscription order. Callers hold c.mu.
func (c *Controller) notify(e Event) {
	if len(c.observers) == 0 {
		return
	}
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		c.observers[id].OnChange(e)
	}
}
