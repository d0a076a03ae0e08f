package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

// MenuItem represents a single item in a navigation menu.
type MenuItem struct {
	Label    string
	Hint     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical menu. Long menus scroll to keep the selection in a
// window of Visible rows.
type Menu struct {
	Items    []MenuItem
	Selected int
	Visible  int
	offset   int
}

// NewMenu creates a new menu with the first enabled item selected.
func NewMenu(items []MenuItem) Menu {
	selected := 0
	for i, item := range items {
		if !item.Disabled {
			selected = i
			break
		}
	}
	return Menu{
		Items:    items,
		Selected: selected,
	}
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		for i := m.Selected - 1; i >= 0; i-- {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "down", "j":
		for i := m.Selected + 1; i < len(m.Items); i++ {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "enter":
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			item := m.Items[m.Selected]
			if item.Action != nil && !item.Disabled {
				return m, item.Action()
			}
		}
	}

	m.scroll()
	return m, nil
}

func (m *Menu) scroll() {
	if m.Visible <= 0 {
		return
	}
	if m.Selected < m.offset {
		m.offset = m.Selected
	}
	if m.Selected >= m.offset+m.Visible {
		m.offset = m.Selected - m.Visible + 1
	}
}

// View renders the visible window of the menu.
func (m Menu) View() string {
	start, end := 0, len(m.Items)
	if m.Visible > 0 && m.Visible < len(m.Items) {
		start = m.offset
		end = start + m.Visible
		if end > len(m.Items) {
			end = len(m.Items)
		}
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(theme.Hint.Render("    ↑ más") + "\n")
	}
	for i := start; i < end; i++ {
		item := m.Items[i]
		line := "    " + item.Label
		style := theme.Unselected
		switch {
		case item.Disabled:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			line = "  ▸ " + item.Label
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		if item.Hint != "" {
			b.WriteString("  " + theme.Hint.Render(item.Hint))
		}
		b.WriteString("\n")
	}
	if end < len(m.Items) {
		b.WriteString(theme.Hint.Render("    ↓ más") + "\n")
	}
	return b.String()
}
