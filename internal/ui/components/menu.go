package components

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathportal/internal/ui/theme"
)

// MenuItem represents a single row in a Menu.
type MenuItem struct {
	Label    string
	Marker   string // e.g. "✓" for a completed section
	Done     bool
	Disabled bool
}

// Menu is a vertical list with a cursor.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a new menu with the cursor on selected.
func NewMenu(items []MenuItem, selected int) Menu {
	if selected < 0 || selected >= len(items) {
		selected = 0
	}
	return Menu{Items: items, Selected: selected}
}

// Update handles up/down navigation, skipping disabled items. The second
// return reports whether the cursor moved.
func (m Menu) Update(msg tea.Msg) (Menu, bool) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, false
	}

	prev := m.Selected
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
	}
	return m, m.Selected != prev
}

// View renders the menu.
func (m Menu) View() string {
	var s string
	for i, item := range m.Items {
		marker := item.Marker
		if marker == "" {
			marker = " "
		}
		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case i == m.Selected:
			style = theme.Selected
		case item.Disabled:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case item.Done:
			style = theme.Done
		}

		cursor := "  "
		if i == m.Selected {
			cursor = "▸ "
		}
		s += style.Render(cursor+marker+" "+item.Label) + "\n"
	}
	return s
}
