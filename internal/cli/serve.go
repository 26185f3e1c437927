package cli

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowsketch/internal/server"
	"github.com/matzehuels/flowsketch/pkg/controller"
	errs "github.com/matzehuels/flowsketch/pkg/errors"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string   // listen address; overrides the config file
	noWatch  bool     // load the file once instead of following it
	noCache  bool     // disable the artifact cache for /api/diagram.svg
	disabled []string // vertices to start disabled
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve a live browser preview",
		Long: `Serve starts a local web page with a graph editor, a vertex list and the
rendered flowchart. When a file is given its content is loaded and the page
follows every save.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.runServe(cmd.Context(), path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, localhost:8080)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not reload the file when it changes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringSliceVarP(&opts.disabled, "disable", "d", nil, "vertices to disable (repeatable)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path string, opts serveOpts) error {
	addr := c.Config.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	if err := errs.ValidateAddr(addr); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctrl := controller.New(nil,
		controller.WithLogger(c.Logger),
		controller.WithSource("http"),
		controller.WithDisabled(opts.disabled...))

	if path != "" {
		text, err := readFile(path)
		if err != nil {
			return err
		}
		ctrl.Update(ctx, text)
	}

	srv := server.New(server.Options{Controller: ctrl, Runner: runner, Logger: c.Logger})
	defer srv.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, addr, func(a net.Addr) {
			printSuccess("Serving flowsketch")
			printNextStep("Open", StyleLink.Render(fmt.Sprintf("http://%s", a)))
		})
	})
	if path != "" && !opts.noWatch {
		g.Go(func() error {
			return watchFile(ctx, path, func(text string) { ctrl.Update(ctx, text) })
		})
	}
	return g.Wait()
}
