package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/flowline/pkg/diagram"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// DiagramListModel - Interactive diagram selection
// =============================================================================

// DiagramListModel is the bubbletea model for picking one diagram out of a
// multi-diagram file.
type DiagramListModel struct {
	Names    []string
	File     *diagram.File
	Cursor   int
	Selected string
}

// NewDiagramListModel creates a picker over the file's diagrams.
func NewDiagramListModel(f *diagram.File) DiagramListModel {
	return DiagramListModel{Names: f.Names(), File: f}
}

func (m DiagramListModel) Init() tea.Cmd {
	return nil
}

func (m DiagramListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Names)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Names[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m DiagramListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Diagram"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, name := range m.Names {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		d := m.File.Diagrams[name]
		title := d.Title
		if title == "" {
			title = "—"
		}
		meta := fmt.Sprintf("%d nodes, %d edges", d.NodeCount(), d.EdgeCount())

		line := fmt.Sprintf("%s%-20s %-30s %s", cursor, name, title, listDimStyle.Render(meta))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Names))))

	return b.String()
}

// pickDiagram resolves which diagram in the file to render. A single-entry
// file needs no interaction; multiple entries launch the picker unless the
// name was given explicitly. Without a terminal on stdin the picker cannot
// run, so scripted invocations must name the diagram.
func pickDiagram(f *diagram.File, name string) (string, error) {
	if name != "" {
		if _, ok := f.Diagrams[name]; !ok {
			return "", fmt.Errorf("diagram %q not found (available: %s)", name, strings.Join(f.Names(), ", "))
		}
		return name, nil
	}

	names := f.Names()
	if len(names) == 1 {
		return names[0], nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return "", fmt.Errorf("file defines %d diagrams; use --diagram to pick one of: %s",
			len(names), strings.Join(names, ", "))
	}

	p := tea.NewProgram(NewDiagramListModel(f), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("diagram picker: %w", err)
	}
	model := final.(DiagramListModel)
	if model.Selected == "" {
		return "", fmt.Errorf("no diagram selected")
	}
	return model.Selected, nil
}
