package mermaid

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrRender is wrapped by every error a Sink returns when the rendering
// engine rejects or fails to display a definition.
var ErrRender = errors.New("render failed")

// Sink displays a diagram definition.
// A nil error means the engine rendered it.
type Sink interface {
	Render(ctx context.Context, definition string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, definition string) error

// Render calls f.
func (f SinkFunc) Render(ctx context.Context, definition string) error {
	return f(ctx, definition)
}

// Discard is a Sink that accepts every definition.
var Discard Sink = SinkFunc(func(context.Context, string) error { return nil })

// Writer is a Sink that writes each definition to W, optionally wrapped in
// the page's render script call.
type Writer struct {
	W      io.Writer
	Script bool
}

// Render writes definition followed by a newline when it does not already
// end with one.
func (w *Writer) Render(ctx context.Context, definition string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := definition
	if w.Script {
		out = ScriptCall(definition)
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out += "\n"
	}
	if _, err := io.WriteString(w.W, out); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

var _ Sink = (*Writer)(nil)
