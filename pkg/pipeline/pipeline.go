// Package pipeline runs graph text through parsing and rendering.
//
// The pipeline has two stages:
//
//  1. Parse: build a [graph.Graph] from text and apply disabled vertices
//  2. Render: produce one artifact from the resulting snapshot
//
// Text formats (mermaid, dot, json) are produced directly. Image formats
// (svg, png, pdf) go through Graphviz and are cached by the DOT source they
// were rendered from, so repeated renders of an unchanged graph are free.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "A -> B\nB -> C",
//	    Format: pipeline.FormatSVG,
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("graph.svg", result.Artifact, 0o644)
package pipeline

import (
	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/flowsketch/pkg/errors"
)

// Output formats.
const (
	FormatMermaid = "mermaid"
	FormatDOT     = "dot"
	FormatJSON    = "json"
	FormatSVG     = "svg"
	FormatPNG     = "png"
	FormatPDF     = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatMermaid, FormatDOT, FormatJSON, FormatSVG, FormatPNG, FormatPDF}

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// Options configures a pipeline run.
type Options struct {
	// Input is the graph text.
	Input string `json:"input"`
	// Source labels the run in observability hooks ("cli", "http", ...).
	Source string `json:"source,omitempty"`
	// Disabled vertices are applied after parsing.
	Disabled []string `json:"disabled,omitempty"`

	Format string `json:"format"`
	// Escape applies the embedding escape to Mermaid output.
	Escape bool `json:"escape,omitempty"`
	// Script wraps Mermaid output in the page's render call. Implies Escape.
	Script bool `json:"script,omitempty"`
	// Detailed draws disabled vertices in Graphviz output.
	Detailed bool `json:"detailed,omitempty"`
	// Scale is the PNG scale factor.
	Scale float64 `json:"scale,omitempty"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"-"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults fills in defaults and validates the options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Format == "" {
		o.Format = FormatMermaid
	}
	if o.Source == "" {
		o.Source = "cli"
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	return o.Validate()
}

// Validate checks the options without modifying them.
func (o *Options) Validate() error {
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if err := errs.ValidateInputSize(int64(len(o.Input))); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "scale cannot be negative: %v", o.Scale)
	}
	return nil
}

// ValidateFormat checks that format is a supported output format.
func ValidateFormat(format string) error {
	return errs.ValidateFormat(format, Formats)
}

// IsImage reports whether format is rendered through Graphviz.
func IsImage(format string) bool {
	return format == FormatSVG || format == FormatPNG || format == FormatPDF
}
