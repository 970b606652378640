package quiz

import (
	qz "github.com/abhisek/mathportal/internal/quiz"
)

// loadedMsg is sent when the quiz and the learner's history have loaded.
type loadedMsg struct {
	Quiz     *qz.Quiz
	Session  *qz.Session
	Previous []qz.AttemptRecord
	Err      error
}

// settledMsg is sent when an in-flight submission finishes.
type settledMsg struct {
	Status qz.Status
}
