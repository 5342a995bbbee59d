package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/prereqgraph/pkg/catalog"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// CourseListModel - Interactive course selection
// =============================================================================

// CourseItem is one row of the course list.
type CourseItem struct {
	Course catalog.Course
	// HasRecord is false when the source holds no prerequisite record for
	// the course. Such rows are shown dimmed and cannot be selected.
	HasRecord bool
}

// CourseListModel is the bubbletea model for interactive course selection.
type CourseListModel struct {
	Courses  []CourseItem
	Cursor   int
	Selected *CourseItem
	Height   int
	Offset   int
}

// NewCourseListModel creates a new course list model.
func NewCourseListModel(courses []CourseItem) CourseListModel {
	return CourseListModel{
		Courses: courses,
		Height:  15,
	}
}

func (m CourseListModel) Init() tea.Cmd {
	return nil
}

func (m CourseListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Courses)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Courses) == 0 {
				return m, nil
			}
			item := m.Courses[m.Cursor]
			if !item.HasRecord {
				return m, nil
			}
			m.Selected = &item
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m CourseListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Course"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Courses))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		c := m.Courses[i].Course

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		credits := "—"
		if c.Credits != nil {
			credits = fmt.Sprintf("%g", *c.Credits)
		}
		rows = append(rows, []string{cursor, fmt.Sprint(c.ID), dash(c.Code), dash(c.Title), credits, dash(c.Level)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Code", "Title", "Credits", "Level").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			idx := m.Offset + row
			if idx >= len(m.Courses) {
				return lipgloss.NewStyle()
			}
			hasRecord := m.Courses[idx].HasRecord
			isCurrent := idx == m.Cursor

			base := lipgloss.NewStyle()
			if col == 4 || col == 5 {
				base = base.Foreground(colorGray)
			}
			switch {
			case !hasRecord:
				return base.Foreground(colorDim).Bold(isCurrent)
			case isCurrent && col != 4 && col != 5:
				return base.Foreground(colorGreen).Bold(true)
			case isCurrent:
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Courses)), len(m.Courses))))

	return b.String()
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
