package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathportal/internal/ui/theme"
)

// ChoiceList is a single-choice selector. It only tracks what the learner
// picked; the client never knows which option is correct.
type ChoiceList struct {
	Options []string
	Cursor  int
	Chosen  int // -1 when nothing is chosen
}

// NewChoiceList creates a choice list with chosen preselected (-1 for none).
func NewChoiceList(options []string, chosen int) ChoiceList {
	c := ChoiceList{Options: options, Chosen: -1}
	if chosen >= 0 && chosen < len(options) {
		c.Chosen = chosen
		c.Cursor = chosen
	}
	return c
}

// Update moves the cursor with up/down and chooses with enter, space or a
// number key. The second return reports whether the choice changed.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, bool) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(c.Options) == 0 {
		return c, false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "enter", "space":
		return c.choose(c.Cursor)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			return c.choose(int(key[0] - '1'))
		}
	}
	return c, false
}

func (c ChoiceList) choose(i int) (ChoiceList, bool) {
	if i < 0 || i >= len(c.Options) {
		return c, false
	}
	changed := c.Chosen != i
	c.Cursor = i
	c.Chosen = i
	return c, changed
}

// View renders the options with the cursor and the chosen marker.
func (c ChoiceList) View() string {
	var s string
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor {
			prefix = "▸ "
		}
		mark := "( )"
		if i == c.Chosen {
			mark = "(•)"
		}
		line := fmt.Sprintf("%s%s %d. %s", prefix, mark, i+1, opt)

		switch {
		case i == c.Chosen:
			s += theme.Chosen.Render(line) + "\n"
		case i == c.Cursor:
			s += theme.Selected.Render(line) + "\n"
		default:
			s += lipgloss.NewStyle().Foreground(theme.Text).Render(line) + "\n"
		}
	}
	return s
}
