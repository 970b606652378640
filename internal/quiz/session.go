package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhisek/mathportal/internal/clock"
	"github.com/abhisek/mathportal/internal/errs"
)

var (
	ErrInvalidTransition = errors.New("invalid quiz session transition")
	ErrUnknownQuestion   = errors.New("unknown question")
)

// Options configures a Session.
type Options struct {
	Log zerolog.Logger
}

// Session runs one learner's attempts at one quiz. It moves through
// NotStarted, InProgress, ConfirmingSubmit, Submitting and then Completed
// or Failed. All methods are safe for concurrent use; observers registered
// with OnChange may be called from the submission goroutine.
type Session struct {
	quiz     *Quiz
	svc      Service
	clock    clock.Clock
	log      zerolog.Logger
	deadline int // seconds, 0 when untimed

	// notifyMu serializes observer delivery so the last delivered status
	// is always the newest.
	notifyMu sync.Mutex

	mu         sync.Mutex
	state      State
	attemptID  string
	answers    map[int]Answer
	elapsed    int
	startedAt  time.Time
	unanswered int
	auto       bool
	result     *AttemptRecord
	reason     error
	timer      clock.Handle
	done       chan struct{}
	observers  []func(Status)
}

// NewSession validates q and returns a session in NotStarted.
func NewSession(q *Quiz, svc Service, clk clock.Clock, opts Options) (*Session, error) {
	if err := ValidateQuiz(q); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Session{
		quiz:     q,
		svc:      svc,
		clock:    clk,
		log:      opts.Log.With().Str("component", "quiz").Int("quiz_id", q.ID).Logger(),
		deadline: int(q.TimeLimit() / time.Second),
		state:    NotStarted,
		answers:  make(map[int]Answer),
	}, nil
}

// Quiz returns the quiz being attempted.
func (s *Session) Quiz() *Quiz { return s.quiz }

// OnChange registers fn to receive the status after every transition or
// answer change. fn must not call back into the session.
func (s *Session) OnChange(fn func(Status)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Start begins the attempt and the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != NotStarted {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.beginAttemptLocked()
	id := s.attemptID
	s.mu.Unlock()

	s.log.Info().Str("attempt", id).Msg("quiz started")
	s.emit()
	return nil
}

// Retake starts a fresh attempt after a result or a failed submission.
// Previous attempts stay with the quiz service.
func (s *Session) Retake() error {
	s.mu.Lock()
	if s.state != Completed && s.state != Failed {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.beginAttemptLocked()
	id := s.attemptID
	s.mu.Unlock()

	s.log.Info().Str("attempt", id).Msg("quiz retake")
	s.emit()
	return nil
}

func (s *Session) beginAttemptLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.state = InProgress
	s.attemptID = uuid.New().String()
	s.answers = make(map[int]Answer)
	s.elapsed = 0
	s.startedAt = s.clock.Now()
	s.unanswered = 0
	s.auto = false
	s.result = nil
	s.reason = nil
	s.done = nil
	s.timer = s.clock.EverySecond(s.Tick)
}

// SetAnswer records the answer to a question. An empty answer clears it.
// Correctness is never checked locally.
func (s *Session) SetAnswer(questionID int, a Answer) error {
	if _, ok := s.quiz.Question(questionID); !ok {
		return ErrUnknownQuestion
	}

	s.mu.Lock()
	if s.state != InProgress {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if a.IsEmpty() {
		delete(s.answers, questionID)
	} else {
		s.answers[questionID] = a
	}
	s.mu.Unlock()

	s.emit()
	return nil
}

// Tick advances the attempt timer by one second. Reaching the time limit
// submits immediately, skipping confirmation.
func (s *Session) Tick() {
	s.mu.Lock()
	if !s.state.timed() {
		s.mu.Unlock()
		return
	}
	s.elapsed++
	if s.deadline > 0 && s.elapsed >= s.deadline {
		s.auto = true
		s.log.Info().Int("elapsed", s.elapsed).Msg("time limit reached, submitting")
		// The deadline submission must not be cancellable by the view.
		s.submitLocked(context.Background())
	}
	s.mu.Unlock()

	s.emit()
}

// RequestSubmit submits when every question is answered and otherwise asks
// for confirmation. From Failed it retries with the retained answers.
func (s *Session) RequestSubmit(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case InProgress:
		if n := s.unansweredLocked(); n > 0 {
			s.state = ConfirmingSubmit
			s.unanswered = n
		} else {
			s.submitLocked(ctx)
		}
	case Failed:
		s.submitLocked(ctx)
	default:
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.mu.Unlock()

	s.emit()
	return nil
}

// Confirm submits despite unanswered questions.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.state != ConfirmingSubmit {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.submitLocked(ctx)
	s.mu.Unlock()

	s.emit()
	return nil
}

// Cancel returns from confirmation to answering, changing nothing else.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.state != ConfirmingSubmit {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.state = InProgress
	s.unanswered = 0
	s.mu.Unlock()

	s.emit()
	return nil
}

// submitLocked moves to Submitting and starts the remote call. Caller holds
// s.mu.
func (s *Session) submitLocked(ctx context.Context) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = Submitting
	s.unanswered = 0
	s.reason = nil

	answers := make(map[int]Answer, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	sub := Submission{
		AttemptID: s.attemptID,
		Answers:   answers,
		TimeSpent: s.elapsed,
		StartedAt: s.startedAt,
	}
	done := make(chan struct{})
	s.done = done

	go s.submit(ctx, sub, done)
}

func (s *Session) submit(ctx context.Context, sub Submission, done chan struct{}) {
	rec, err := s.svc.SubmitAttempt(ctx, s.quiz.ID, sub)

	s.mu.Lock()
	if s.done != done {
		// A retake replaced this attempt.
		s.mu.Unlock()
		close(done)
		return
	}
	if err == nil && rec == nil {
		err = errors.New("empty submission response")
	}
	if err != nil {
		s.state = Failed
		s.reason = &errs.TransientSyncError{Op: "quiz submission", Err: err}
		s.log.Warn().Err(err).Str("attempt", sub.AttemptID).Msg("quiz submission failed")
	} else {
		if rec.StartedAt.IsZero() {
			rec.StartedAt = sub.StartedAt
		}
		s.state = Completed
		s.result = rec
		s.log.Info().
			Str("attempt", sub.AttemptID).
			Float64("score", rec.Score).
			Bool("passed", rec.Passed).
			Msg("quiz submitted")
	}
	close(done)
	s.mu.Unlock()

	s.emit()
}

// Await blocks until the in-flight submission settles or ctx ends, then
// returns the status.
func (s *Session) Await(ctx context.Context) (Status, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return s.Status(), ctx.Err()
		}
	}
	return s.Status(), nil
}

// Close stops the countdown. A submission already in flight still
// completes.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		State:         s.state,
		Unanswered:    s.unanswered,
		Elapsed:       s.elapsed,
		AutoSubmitted: s.auto,
		Result:        s.result,
		Reason:        s.reason,
	}
}

func (s *Session) unansweredLocked() int {
	var n int
	for _, q := range s.quiz.Questions {
		if a, ok := s.answers[q.ID]; !ok || a.IsEmpty() {
			n++
		}
	}
	return n
}

// Answers returns a copy of the current answers.
func (s *Session) Answers() map[int]Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]Answer, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Answer returns the current answer to a question.
func (s *Session) Answer(questionID int) Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers[questionID]
}

// AnsweredCount returns how many questions have a non-empty answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quiz.Questions) - s.unansweredLocked()
}

// ProgressPercent is the answered share of questions, rounded.
func (s *Session) ProgressPercent() int {
	n := len(s.quiz.Questions)
	return (s.AnsweredCount()*100 + n/2) / n
}

// Remaining returns the time left on a timed quiz and false for an untimed
// one.
func (s *Session) Remaining() (time.Duration, bool) {
	if s.deadline == 0 {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	left := s.deadline - s.elapsed
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Second, true
}

// StartedAt returns when the current attempt began.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// emit delivers the current status to every observer.
func (s *Session) emit() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	st := s.statusLocked()
	obs := s.observers
	s.mu.Unlock()

	for _, fn := range obs {
		fn(st)
	}
}
