package lesson

import (
	"github.com/abhisek/mathportal/internal/progress"
)

// loadedMsg is sent when the lesson, its figures and the learner's
// progress are in place.
type loadedMsg struct {
	Ctrl *progress.Controller
	Err  error
}
