package cli

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/pkg/controller"
	errs "github.com/matzehuels/flowsketch/pkg/errors"
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	var disabled []string

	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a graph in the terminal with a live preview",
		Long: `Edit opens a terminal editor next to the vertex list and the generated
Mermaid definition. Tab moves between the editor and the vertex list, space
toggles the selected vertex, ctrl+r re-enables every vertex and ctrl+s saves.
A file that does not exist yet is created on the first save.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.runEdit(cmd.Context(), path, disabled)
		},
	}

	cmd.Flags().StringSliceVarP(&disabled, "disable", "d", nil, "vertices to disable (repeatable)")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, path string, disabled []string) error {
	text := ""
	if path != "" {
		t, err := readFile(path)
		switch {
		case errs.Is(err, errs.ErrCodeFileNotFound):
			c.Logger.Debug("starting new file", "path", path)
		case err != nil:
			return err
		default:
			text = t
		}
	}

	// Log lines would tear the alternate screen.
	ctrl := controller.New(nil,
		controller.WithLogger(log.New(io.Discard)),
		controller.WithSource("edit"),
		controller.WithDisabled(disabled...))
	ctrl.Update(ctx, text)

	p := tea.NewProgram(NewEditorModel(ctx, ctrl, path), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if m, ok := final.(EditorModel); ok && m.Dirty() {
		printWarning("Unsaved changes discarded")
	}
	return nil
}
