// Package screen defines the contract between the app shell and its pages.
package screen

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathportal/internal/ui/layout"
)

// Screen is one page of the terminal UI: a lesson, or a quiz opened from it.
type Screen interface {
	// Init starts the screen's loading work.
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the body. The app draws the header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider supplies the footer hints for the screen's current state.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer is implemented by screens that own background work (timers, sync
// workers). The router closes a screen when it leaves the stack.
type Closer interface {
	Close()
}

// EscCapturer is implemented by screens that use Esc themselves, e.g. to
// dismiss a dialog, instead of letting the app navigate back.
type EscCapturer interface {
	CapturesEsc() bool
}

// StatusProvider lets the active screen put a short status (progress,
// time left) in the header.
type StatusProvider interface {
	HeaderStatus() string
}

// TickMsg is delivered to the active screen once a second so views showing
// timers and progress stay current.
type TickMsg time.Time
