package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/nodeio/pkg/pipeline"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// GroupListModel is the bubbletea model for picking the group to render.
type GroupListModel struct {
	Groups   []pipeline.GroupSummary
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewGroupListModel starts with the cursor on the last group, which is
// "main" in a valid document.
func NewGroupListModel(groups []pipeline.GroupSummary) GroupListModel {
	m := GroupListModel{Groups: groups, Height: 15}
	if len(groups) > 0 {
		m.Cursor = len(groups) - 1
		m.Offset = max(0, m.Cursor-m.Height+1)
	}
	return m
}

func (m GroupListModel) Init() tea.Cmd {
	return nil
}

func (m GroupListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Groups)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Groups) > 0 {
				m.Selected = m.Groups[m.Cursor].Name
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m GroupListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Group"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ render  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Groups))
	for i := m.Offset; i < end; i++ {
		g := m.Groups[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-24s %s", cursor, g.Name,
			listDimStyle.Render(fmt.Sprintf("%d nodes · %d links", g.Nodes, g.Links)))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Groups))))
	return b.String()
}

// pickGroup runs the interactive picker. An empty result means the user
// quit without choosing.
func pickGroup(groups []pipeline.GroupSummary) (string, error) {
	final, err := tea.NewProgram(NewGroupListModel(groups)).Run()
	if err != nil {
		return "", err
	}
	return final.(GroupListModel).Selected, nil
}
