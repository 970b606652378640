package quiz

// State is the phase of a quiz session.
type State int

const (
	NotStarted       State = iota // Start screen
	InProgress                    // Answering, timer running
	ConfirmingSubmit              // Submit requested with unanswered questions
	Submitting                    // Waiting on the quiz service
	Completed                     // Scored; Result is set
	Failed                        // Submission failed; answers retained
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case InProgress:
		return "in-progress"
	case ConfirmingSubmit:
		return "confirming-submit"
	case Submitting:
		return "submitting"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// timed reports whether the countdown runs in s.
func (s State) timed() bool {
	return s == InProgress || s == ConfirmingSubmit
}

// Status is a consistent view of a session.
type Status struct {
	State State

	// Unanswered is set in ConfirmingSubmit.
	Unanswered int

	// Elapsed is the attempt time in seconds.
	Elapsed int

	// AutoSubmitted is true when the deadline forced the submission.
	AutoSubmitted bool

	// Result is set in Completed.
	Result *AttemptRecord

	// Reason is set in Failed.
	Reason error
}
