package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func char(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestProgressBarFilled(t *testing.T) {
	tests := []struct {
		percent, want int
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{130, 20},
		{-5, 0},
	}
	for _, tt := range tests {
		p := NewProgressBar("", tt.percent, false, 20)
		if got := p.Filled(20); got != tt.want {
			t.Errorf("Filled(%d%%) = %d, want %d", tt.percent, got, tt.want)
		}
	}
}

func TestProgressBarShowsPercent(t *testing.T) {
	v := NewProgressBar("Lesson", 45, true, 40).View()
	if !strings.Contains(v, "45%") || !strings.Contains(v, "Lesson") {
		t.Errorf("view = %q", v)
	}
}

func TestChoiceList(t *testing.T) {
	c := NewChoiceList([]string{"30°", "45°", "90°"}, -1)
	if c.Chosen != -1 {
		t.Fatalf("Chosen = %d, want -1", c.Chosen)
	}

	c, changed := c.Update(key(tea.KeyDown))
	if changed || c.Cursor != 1 {
		t.Errorf("after down: cursor=%d changed=%v", c.Cursor, changed)
	}

	c, changed = c.Update(key(tea.KeyEnter))
	if !changed || c.Chosen != 1 {
		t.Errorf("after enter: chosen=%d changed=%v", c.Chosen, changed)
	}

	c, changed = c.Update(key(tea.KeyEnter))
	if changed {
		t.Error("choosing the same option again is not a change")
	}

	c, changed = c.Update(char('3'))
	if !changed || c.Chosen != 2 || c.Cursor != 2 {
		t.Errorf("after '3': chosen=%d cursor=%d", c.Chosen, c.Cursor)
	}

	c, changed = c.Update(char('9'))
	if changed || c.Chosen != 2 {
		t.Error("out of range number key must be ignored")
	}

	c, _ = c.Update(key(tea.KeyDown))
	if c.Cursor != 2 {
		t.Errorf("cursor moved past the end: %d", c.Cursor)
	}
}

func TestChoiceListPreselected(t *testing.T) {
	c := NewChoiceList([]string{"True", "False"}, 1)
	if c.Chosen != 1 || c.Cursor != 1 {
		t.Errorf("chosen=%d cursor=%d", c.Chosen, c.Cursor)
	}
	if !strings.Contains(c.View(), "(•) 2. False") {
		t.Errorf("view = %q", c.View())
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Intro", Done: true, Marker: "✓"},
		{Label: "Locked", Disabled: true},
		{Label: "Quiz"},
	}, 0)

	m, moved := m.Update(key(tea.KeyDown))
	if !moved || m.Selected != 2 {
		t.Errorf("selected = %d, want 2", m.Selected)
	}
	m, moved = m.Update(key(tea.KeyDown))
	if moved {
		t.Error("moving past the last item must not report a move")
	}
	if !strings.Contains(m.View(), "✓ Intro") {
		t.Errorf("view = %q", m.View())
	}
}

func TestTextInputValue(t *testing.T) {
	ti := NewTextInput("answer", "4", 32)
	ti, _ = ti.Update(char('2'))
	if ti.Value() != "42" {
		t.Errorf("Value = %q, want 42", ti.Value())
	}
}

func TestButtonRow(t *testing.T) {
	row := ButtonRow(Button{Key: "y", Label: "Submit anyway", Active: true}, Button{Key: "n", Label: "Keep answering"})
	if !strings.Contains(row, "[y] Submit anyway") || !strings.Contains(row, "[n] Keep answering") {
		t.Errorf("row = %q", row)
	}
}
