package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowsketch/pkg/controller"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	activePaneStyle = paneStyle.BorderForeground(colorCyan)
)

// previewLines caps the definition preview.
const previewLines = 12

type editorFocus int

const (
	focusEditor editorFocus = iota
	focusVertices
)

// =============================================================================
// EditorModel - Interactive graph editor
// =============================================================================

// EditorModel is the bubbletea model behind `flowsketch edit`. Every keystroke
// that changes the text is pushed through the controller, so the vertex list
// and definition preview always match the editor content.
type EditorModel struct {
	ctx  context.Context
	ctrl *controller.Controller
	path string

	input  textarea.Model
	focus  editorFocus
	cursor int

	text       string
	vertices   []controller.VertexState
	definition string
	status     controller.Status
	notice     string
	dirty      bool
}

// NewEditorModel creates an editor for the controller's current text. path,
// if non-empty, is where ctrl+s saves.
func NewEditorModel(ctx context.Context, ctrl *controller.Controller, path string) EditorModel {
	st := ctrl.State()

	ta := textarea.New()
	ta.Placeholder = "A -> B"
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetValue(st.Text)
	ta.Focus()

	m := EditorModel{
		ctx:   ctx,
		ctrl:  ctrl,
		path:  path,
		input: ta,
		text:  st.Text,
	}
	m.sync()
	return m
}

// sync copies the controller's view of the graph into the model.
func (m *EditorModel) sync() {
	st := m.ctrl.State()
	m.vertices = st.Vertices
	m.definition = st.Definition
	m.status = st.Status
	if m.cursor >= len(m.vertices) {
		m.cursor = max(len(m.vertices)-1, 0)
	}
}

// Dirty reports whether the text changed since it was last saved.
func (m EditorModel) Dirty() bool { return m.dirty }

func (m EditorModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.SetWidth(max(msg.Width/2-4, 20))
		m.input.SetHeight(max(msg.Height-8, 5))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			if m.focus == focusEditor {
				m.focus = focusVertices
				m.input.Blur()
				return m, nil
			}
			m.focus = focusEditor
			return m, m.input.Focus()
		case "ctrl+r":
			res := m.ctrl.Reset(m.ctx)
			m.notice = fmt.Sprintf("Re-enabled %d vertices", res.Cleared)
			m.sync()
			return m, nil
		case "ctrl+s":
			m.save()
			return m, nil
		}
		if m.focus == focusVertices {
			return m.updateVertices(msg)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if text := m.input.Value(); text != m.text {
		m.text = text
		m.dirty = true
		m.notice = ""
		m.ctrl.Update(m.ctx, text)
		m.sync()
	}
	return m, cmd
}

func (m EditorModel) updateVertices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.vertices)-1 {
			m.cursor++
		}
	case " ", "space", "enter":
		if len(m.vertices) == 0 {
			return m, nil
		}
		label := m.vertices[m.cursor].Label
		m.ctrl.Toggle(m.ctx, label)
		m.notice = ""
		m.sync()
	}
	return m, nil
}

func (m *EditorModel) save() {
	if m.path == "" {
		m.notice = "No file to save to; start with flowsketch edit <file>"
		return
	}
	if err := os.WriteFile(m.path, []byte(m.text), 0o644); err != nil {
		m.notice = "Save failed: " + err.Error()
		return
	}
	m.dirty = false
	m.notice = "Saved " + m.path
}

func (m EditorModel) View() string {
	var b strings.Builder

	title := "flowsketch"
	if m.path != "" {
		title += " · " + m.path
	}
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	editor, side := paneStyle, paneStyle
	if m.focus == focusEditor {
		editor = activePaneStyle
	} else {
		side = activePaneStyle
	}

	left := editor.Render(m.input.View())
	right := side.Render(m.verticesView() + "\n\n" + m.previewView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab switch pane  ␣ toggle  ctrl+r reset  ctrl+s save  esc quit"))
	return b.String()
}

func (m EditorModel) verticesView() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Vertices"))
	if len(m.vertices) == 0 {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("none"))
		return b.String()
	}
	for i, v := range m.vertices {
		b.WriteString("\n")
		box := "[x]"
		style := listNormalStyle
		if v.Disabled {
			box = "[ ]"
			style = listDimStyle
		}
		cursor := "  "
		if i == m.cursor && m.focus == focusVertices {
			cursor = "▸ "
			style = listSelectedStyle
		}
		b.WriteString(cursor + style.Render(box+" "+v.Label))
	}
	return b.String()
}

func (m EditorModel) previewView() string {
	lines := strings.Split(strings.TrimRight(m.definition, "\n"), "\n")
	more := 0
	if len(lines) > previewLines {
		more = len(lines) - previewLines
		lines = lines[:previewLines]
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Definition"))
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(StyleDim.Render(l))
	}
	if more > 0 {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("… %d more lines", more)))
	}
	return b.String()
}

func (m EditorModel) statusView() string {
	if m.notice != "" {
		return styleIconInfo.Render(iconInfo) + " " + m.notice
	}
	if m.status.IsError {
		return styleIconError.Render(iconError) + " " + StyleError.Render(m.status.Message)
	}
	return styleIconSuccess.Render(iconSuccess) + " " + StyleSuccess.Render(m.status.Message)
}
