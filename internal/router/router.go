// Package router keeps the stack of open screens. The lesson screen sits at
// the bottom; a quiz opened from it is pushed on top.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathportal/internal/screen"
)

// PushScreenMsg opens Screen above the active one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg closes the active screen and returns to the one below.
type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the active screen for Screen.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// Router owns the screen stack. It is never empty once created.
type Router struct {
	stack []screen.Screen
}

// New returns a Router whose bottom screen is root.
func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

func (r *Router) top() int { return len(r.stack) - 1 }

// Push opens s and returns its Init command.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop closes the active screen. The root screen is never popped.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) < 2 {
		return nil
	}
	leaving := r.stack[r.top()]
	r.stack = r.stack[:r.top()]
	closeScreen(leaving)
	return nil
}

// Replace closes the active screen and opens s in its slot.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if len(r.stack) == 0 {
		return r.Push(s)
	}
	closeScreen(r.stack[r.top()])
	r.stack[r.top()] = s
	return s.Init()
}

// CloseAll closes every screen, topmost first, so pending progress is
// flushed before the program exits.
func (r *Router) CloseAll() {
	for i := r.top(); i >= 0; i-- {
		closeScreen(r.stack[i])
	}
}

func closeScreen(s screen.Screen) {
	if c, ok := s.(screen.Closer); ok {
		c.Close()
	}
}

// Active returns the screen receiving input, or nil for an empty router.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[r.top()]
}

// Depth is the number of open screens.
func (r *Router) Depth() int { return len(r.stack) }

// Update applies navigation messages itself and hands everything else to
// the active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	}

	if len(r.stack) == 0 {
		return nil
	}
	next, cmd := r.stack[r.top()].Update(msg)
	r.stack[r.top()] = next
	return cmd
}

// View renders the active screen into width x height.
func (r *Router) View(width, height int) string {
	if s := r.Active(); s != nil {
		return s.View(width, height)
	}
	return ""
}
