// Package cli implements the flowsketch command-line interface.
//
// The CLI is built on cobra. Every command loads the TOML configuration
// before it runs and logs through charmbracelet/log; --verbose (-v) lowers
// the level to debug. Loggers are passed to helpers through context.Context.
//
// # Commands
//
//   - render: print or save a graph as Mermaid, DOT, JSON, SVG, PNG or PDF
//   - watch: re-render a graph file on every save
//   - serve: browser preview with a live vertex list
//   - edit: terminal editor with a vertex list and definition preview
//   - cache: inspect and clear the artifact cache
//   - config: show the effective configuration
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/pkg/buildinfo"
	"github.com/matzehuels/flowsketch/pkg/cache"
	"github.com/matzehuels/flowsketch/pkg/config"
	errs "github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for commands and display.
const appName = "flowsketch"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Config is loaded before any subcommand runs.
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flowsketch turns edge lists into Mermaid flowcharts",
		Long: `Flowsketch reads directed graphs written one edge per line ("A -> B") and
renders them as Mermaid flowcharts. Vertices can be switched off to hide them
and their edges without editing the text.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/flowsketch/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the command context.
// --verbose wins over the configured log level.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	level := cfg.LogLevel()
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		return pipeline.NewRunner(cache.NewNullCache(), c.Logger), nil
	}
	ch, err := c.Config.Cache.OpenCache(ctx)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// readInput reads graph text from path, or from stdin when path is "-" or empty.
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, errs.MaxInputBytes+1))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if err := errs.ValidateInputSize(int64(len(data))); err != nil {
			return "", err
		}
		return string(data), nil
	}
	return readFile(path)
}

// readFile reads a graph file, enforcing the input size limit.
func readFile(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errs.New(errs.ErrCodeFileNotFound, "file not found: %s", path)
	}
	if err != nil {
		return "", err
	}
	if err := errs.ValidateInputSize(info.Size()); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
