package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/pkg/controller"
	"github.com/matzehuels/flowsketch/pkg/render/mermaid"
)

// watchDebounce coalesces the burst of events an editor emits on save.
const watchDebounce = 100 * time.Millisecond

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	output   string   // file rewritten on every change; stdout when empty
	script   bool     // wrap definitions in the page's render call
	disabled []string // vertices to start disabled
}

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-render a graph file whenever it changes",
		Long: `Watch renders a graph file as Mermaid and renders it again each time the
file is saved. Definitions are written to stdout, or rewrite --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "file to rewrite on each change (default stdout)")
	cmd.Flags().BoolVar(&opts.script, "script", false, "wrap output in a renderGraph(...) call")
	cmd.Flags().StringSliceVarP(&opts.disabled, "disable", "d", nil, "vertices to disable (repeatable)")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, path string, stdout io.Writer, opts watchOpts) error {
	text, err := readFile(path)
	if err != nil {
		return err
	}

	var sink mermaid.Sink = &mermaid.Writer{W: stdout, Script: opts.script}
	if opts.output != "" {
		sink = fileSink(opts.output, opts.script)
	}

	ctrl := controller.New(sink,
		controller.WithLogger(c.Logger),
		controller.WithSource("watch"),
		controller.WithDisabled(opts.disabled...))
	defer ctrl.Subscribe(controller.ObserverFunc(reportRenderErrors))()

	rerender := func(text string) {
		prog := newProgress(c.Logger)
		res := ctrl.Update(ctx, text)
		if res.Rendered {
			prog.done("Rendered graph", "edges", res.ValidEdges, "revision", res.Revision)
		}
	}

	rerender(text)
	printInfo("Watching %s", path)
	return watchFile(ctx, path, rerender)
}

// reportRenderErrors prints failed render statuses to the status stream.
func reportRenderErrors(e controller.Event) {
	if e.Kind == controller.KindRendered && e.Status != nil && e.Status.IsError {
		printError("%s", e.Status.Message)
	}
}

// fileSink rewrites path with every definition.
func fileSink(path string, script bool) mermaid.Sink {
	return mermaid.SinkFunc(func(ctx context.Context, definition string) error {
		if script {
			definition = mermaid.ScriptCall(definition)
		}
		if err := os.WriteFile(path, withTrailingNewline([]byte(definition)), 0o644); err != nil {
			return fmt.Errorf("%w: %v", mermaid.ErrRender, err)
		}
		return nil
	})
}

// watchFile calls onChange with the file's content each time path is
// written, until ctx is cancelled. The parent directory is watched so saves
// that replace the file by rename are seen as well.
func watchFile(ctx context.Context, path string, onChange func(string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	logger := loggerFromContext(ctx)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("file changed", "path", path, "op", ev.Op.String())
			timer.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-timer.C:
			text, err := readFile(abs)
			if err != nil {
				logger.Warn("reload failed", "path", path, "err", err)
				continue
			}
			onChange(text)
		}
	}
}
