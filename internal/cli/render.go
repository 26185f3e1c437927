package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file; stdout when empty
	format   string   // mermaid, dot, json, svg, png or pdf
	escape   bool     // escape Mermaid output for a JavaScript template literal
	script   bool     // wrap Mermaid output in the page's render call
	disabled []string // vertices to switch off before rendering
	detailed bool     // draw disabled vertices in Graphviz output
	scale    float64  // PNG scale factor
	noCache  bool     // bypass the artifact cache entirely
	refresh  bool     // ignore cached artifacts but store the new ones
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		format: pipeline.FormatMermaid,
		scale:  pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a graph as Mermaid, DOT, JSON or an image",
		Long: `Render reads a graph, one "A -> B" edge per line, from a file or stdin
and writes it in the requested format. Image formats are drawn with Graphviz
and cached.`,
		Example: `  echo "A -> B" | flowsketch render
  flowsketch render deps.txt --disable B --script
  flowsketch render deps.txt -f svg -o deps.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return c.runRender(cmd.Context(), path, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: mermaid, dot, json, svg, png, pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.escape, "escape", false, "escape backslashes and backticks in Mermaid output")
	cmd.Flags().BoolVar(&opts.script, "script", false, "wrap Mermaid output in a renderGraph(...) call")
	cmd.Flags().StringSliceVarP(&opts.disabled, "disable", "d", nil, "vertices to disable (repeatable)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show disabled vertices in Graphviz output")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached artifact exists")

	cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(pipeline.Formats, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// runRender executes the render pipeline and writes its artifact.
func (c *CLI) runRender(ctx context.Context, path string, stdin io.Reader, stdout io.Writer, opts renderOpts) error {
	if err := pipeline.ValidateFormat(opts.format); err != nil {
		return err
	}

	input, err := readInput(path, stdin)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var sp *spinner
	if pipeline.IsImage(opts.format) && opts.output != "" {
		sp = newSpinner(ctx, fmt.Sprintf("Rendering %s...", opts.format))
		sp.Start()
		defer sp.Stop()
	}

	res, err := runner.Execute(ctx, pipeline.Options{
		Input:    input,
		Source:   "cli",
		Disabled: opts.disabled,
		Format:   opts.format,
		Escape:   opts.escape,
		Script:   opts.script,
		Detailed: opts.detailed,
		Scale:    opts.scale,
		Refresh:  opts.refresh,
		Logger:   loggerFromContext(ctx),
	})
	if err != nil {
		return err
	}

	artifact := res.Artifact
	if !pipeline.IsImage(opts.format) {
		artifact = withTrailingNewline(artifact)
	}

	if opts.output == "" {
		_, err := stdout.Write(artifact)
		return err
	}

	if err := os.WriteFile(opts.output, artifact, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	if sp != nil {
		sp.Stop()
	}
	printSuccess("Rendered %s", opts.format)
	printFile(opts.output)
	printStats(res.Stats.Vertices, res.Stats.EnabledEdges, res.Stats.Disabled, res.CacheHit)
	return nil
}

func withTrailingNewline(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		return b
	}
	return append(b, '\n')
}
