package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/mathportal/internal/clock"
	"github.com/abhisek/mathportal/internal/errs"
)

// mockService is an in-memory quiz service. Submissions score 100 when
// every question is answered and record an attempt.
type mockService struct {
	mu       sync.Mutex
	quiz     *Quiz
	attempts []AttemptRecord
	subs     []Submission
	err      error
	nextID   int
	release  chan struct{} // when set, SubmitAttempt waits on it
}

func (m *mockService) GetQuizForLesson(context.Context, int) (*Quiz, error) {
	return m.quiz, nil
}

func (m *mockService) SubmitAttempt(ctx context.Context, quizID int, sub Submission) (*AttemptRecord, error) {
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, sub)
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	score := float64(len(sub.Answers)) / float64(len(m.quiz.Questions)) * 100
	rec := AttemptRecord{
		ID:        m.nextID,
		QuizID:    quizID,
		Score:     score,
		Passed:    m.quiz.Passed(score),
		TimeSpent: sub.TimeSpent,
	}
	m.attempts = append(m.attempts, rec)
	return &rec, nil
}

func (m *mockService) ListMyAttempts(context.Context, int) ([]AttemptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AttemptRecord(nil), m.attempts...), nil
}

func (m *mockService) Submissions() []Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Submission(nil), m.subs...)
}

func testQuiz(duration *int) *Quiz {
	return &Quiz{
		ID:           3,
		LessonID:     5,
		Title:        "Angles quiz",
		Duration:     duration,
		PassingScore: DefaultPassingScore,
		Questions: []Question{
			{ID: 10, Text: "Sum of angles in a triangle?", Type: MultipleChoice, Points: 1, Choices: []Choice{{ID: 100, Text: "180"}, {ID: 101, Text: "360"}}},
			{ID: 11, Text: "A right angle is 90°", Type: TrueFalse, Points: 1, Choices: []Choice{{ID: 110, Text: "True"}, {ID: 111, Text: "False"}}},
			{ID: 12, Text: "Complement of 30°?", Type: ShortAnswer, Points: 1},
		},
	}
}

func minutes(n int) *int { return &n }

func newTestSession(t *testing.T, q *Quiz) (*Session, *mockService, *clock.Fake) {
	t.Helper()
	svc := &mockService{quiz: q}
	clk := clock.NewFake(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	s, err := NewSession(q, svc, clk, Options{Log: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s, svc, clk
}

func await(t *testing.T, s *Session) Status {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := s.Await(ctx)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	return st
}

func answerAll(t *testing.T, s *Session) {
	t.Helper()
	for _, a := range []struct {
		id int
		v  Answer
	}{{10, ChoiceAnswer(100)}, {11, ChoiceAnswer(110)}, {12, TextAnswer("60")}} {
		if err := s.SetAnswer(a.id, a.v); err != nil {
			t.Fatalf("SetAnswer(%d): %v", a.id, err)
		}
	}
}

func TestNewSession_NoQuestions(t *testing.T) {
	q := testQuiz(nil)
	q.Questions = nil
	_, err := NewSession(q, &mockService{}, clock.NewFake(time.Now()), Options{})
	var cfgErr *errs.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *errs.ConfigurationError", err)
	}
}

func TestNewSession_BadQuestionType(t *testing.T) {
	q := testQuiz(nil)
	q.Questions[0].Type = "essay"
	_, err := NewSession(q, &mockService{}, clock.NewFake(time.Now()), Options{})
	var cfgErr *errs.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *errs.ConfigurationError", err)
	}
}

func TestStart(t *testing.T) {
	s, _, clk := newTestSession(t, testQuiz(nil))
	if got := s.Status().State; got != NotStarted {
		t.Fatalf("initial state = %s", got)
	}
	if err := s.SetAnswer(10, ChoiceAnswer(100)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SetAnswer before start: err = %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	st := s.Status()
	if st.State != InProgress || st.Elapsed != 0 {
		t.Errorf("status = %+v", st)
	}
	if !s.StartedAt().Equal(clk.Now()) {
		t.Errorf("StartedAt = %v, want %v", s.StartedAt(), clk.Now())
	}
	if err := s.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start: err = %v", err)
	}
}

func TestAllAnswered_SubmitsDirectly(t *testing.T) {
	s, svc, _ := newTestSession(t, testQuiz(nil))
	svc.release = make(chan struct{})

	var mu sync.Mutex
	var seen []State
	completed := make(chan struct{}, 1)
	s.OnChange(func(st Status) {
		mu.Lock()
		seen = append(seen, st.State)
		mu.Unlock()
		if st.State == Completed {
			select {
			case completed <- struct{}{}:
			default:
			}
		}
	})

	s.Start()
	answerAll(t, s)
	if err := s.RequestSubmit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.Status().State; got != Submitting {
		t.Fatalf("state after RequestSubmit = %s, want submitting", got)
	}

	close(svc.release)
	st := await(t, s)
	if st.State != Completed || st.Result == nil || st.Result.Score != 100 {
		t.Fatalf("status = %+v", st)
	}

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("observer never saw completed")
	}
	mu.Lock()
	defer mu.Unlock()
	for _, state := range seen {
		if state == ConfirmingSubmit {
			t.Error("complete quiz must never visit confirming-submit")
		}
	}
}

func TestIncompleteSubmit_ConfirmAndCancel(t *testing.T) {
	s, svc, _ := newTestSession(t, testQuiz(nil))
	s.Start()
	s.SetAnswer(10, ChoiceAnswer(100))

	if err := s.RequestSubmit(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := s.Status()
	if st.State != ConfirmingSubmit || st.Unanswered != 2 {
		t.Fatalf("status = %+v, want confirming with 2 unanswered", st)
	}

	if err := s.Cancel(); err != nil {
		t.Fatal(err)
	}
	if got := s.Status().State; got != InProgress {
		t.Errorf("state after Cancel = %s", got)
	}
	answers := s.Answers()
	if len(answers) != 1 || answers[10].ChoiceID() != 100 {
		t.Errorf("answers after Cancel = %v", answers)
	}

	s.RequestSubmit(context.Background())
	if err := s.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	st = await(t, s)
	if st.State != Completed {
		t.Fatalf("state = %s, want completed", st.State)
	}
	if subs := svc.Submissions(); len(subs) != 1 || len(subs[0].Answers) != 1 {
		t.Errorf("submissions = %+v", subs)
	}
}

func TestBlankTextIsUnanswered(t *testing.T) {
	s, _, _ := newTestSession(t, testQuiz(nil))
	s.Start()
	s.SetAnswer(10, ChoiceAnswer(100))
	s.SetAnswer(11, ChoiceAnswer(110))
	s.SetAnswer(12, TextAnswer("  "))

	s.RequestSubmit(context.Background())
	if st := s.Status(); st.State != ConfirmingSubmit || st.Unanswered != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestSetAnswer_UnknownQuestion(t *testing.T) {
	s, _, _ := newTestSession(t, testQuiz(nil))
	s.Start()
	if err := s.SetAnswer(99, ChoiceAnswer(1)); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("err = %v, want ErrUnknownQuestion", err)
	}
}

func TestAutoSubmitAtDeadline(t *testing.T) {
	s, svc, clk := newTestSession(t, testQuiz(minutes(1)))
	s.Start()
	s.SetAnswer(10, ChoiceAnswer(100))

	clk.Advance(59 * time.Second)
	if got := s.Status().State; got != InProgress {
		t.Fatalf("state at 59s = %s, want in-progress", got)
	}
	if left, ok := s.Remaining(); !ok || left != time.Second {
		t.Errorf("Remaining = %v, %v", left, ok)
	}

	clk.Advance(time.Second)
	st := await(t, s)
	if st.State != Completed || !st.AutoSubmitted {
		t.Fatalf("status = %+v, want auto-submitted completion", st)
	}
	subs := svc.Submissions()
	if len(subs) != 1 || subs[0].TimeSpent != 60 {
		t.Errorf("submissions = %+v", subs)
	}

	// Timer is stopped once submitted.
	clk.Advance(10 * time.Second)
	if got := s.Status().Elapsed; got != 60 {
		t.Errorf("Elapsed = %d after completion, want 60", got)
	}
}

func TestAutoSubmitFromConfirming(t *testing.T) {
	s, _, clk := newTestSession(t, testQuiz(minutes(1)))
	s.Start()
	clk.Advance(50 * time.Second)
	s.RequestSubmit(context.Background())
	if got := s.Status().State; got != ConfirmingSubmit {
		t.Fatalf("state = %s", got)
	}

	clk.Advance(10 * time.Second)
	if st := await(t, s); st.State != Completed {
		t.Errorf("state = %s, want completed", st.State)
	}
}

func TestFailedSubmitRetainsAnswersAndRetries(t *testing.T) {
	s, svc, _ := newTestSession(t, testQuiz(nil))
	svc.err = errors.New("503 service unavailable")
	s.Start()
	answerAll(t, s)
	s.RequestSubmit(context.Background())

	st := await(t, s)
	if st.State != Failed {
		t.Fatalf("state = %s, want failed", st.State)
	}
	var syncErr *errs.TransientSyncError
	if !errors.As(st.Reason, &syncErr) {
		t.Errorf("Reason = %v, want *errs.TransientSyncError", st.Reason)
	}
	if n := len(s.Answers()); n != 3 {
		t.Errorf("answers after failure = %d, want 3", n)
	}

	svc.mu.Lock()
	svc.err = nil
	svc.mu.Unlock()
	if err := s.RequestSubmit(context.Background()); err != nil {
		t.Fatal(err)
	}
	st = await(t, s)
	if st.State != Completed || st.Result.Score != 100 {
		t.Errorf("retry status = %+v", st)
	}
	subs := svc.Submissions()
	if len(subs) != 2 || subs[0].AttemptID != subs[1].AttemptID {
		t.Errorf("retry should resend the same attempt: %+v", subs)
	}
}

func TestRetakeResetsButKeepsHistory(t *testing.T) {
	s, svc, clk := newTestSession(t, testQuiz(nil))
	s.Start()
	answerAll(t, s)
	clk.Advance(5 * time.Second)
	s.RequestSubmit(context.Background())
	await(t, s)

	clk.Advance(time.Minute)
	if err := s.Retake(); err != nil {
		t.Fatal(err)
	}
	st := s.Status()
	if st.State != InProgress || st.Elapsed != 0 || st.Result != nil {
		t.Errorf("status after Retake = %+v", st)
	}
	if n := len(s.Answers()); n != 0 {
		t.Errorf("answers after Retake = %d", n)
	}
	if !s.StartedAt().Equal(clk.Now()) {
		t.Error("Retake should capture a new start time")
	}

	records, err := NewHistory(svc).List(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("history = %d records, want 1", len(records))
	}
}

func TestRetakeRequiresResult(t *testing.T) {
	s, _, _ := newTestSession(t, testQuiz(nil))
	s.Start()
	if err := s.Retake(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v", err)
	}
}

func TestInvalidTransitions(t *testing.T) {
	s, _, _ := newTestSession(t, testQuiz(nil))
	if err := s.RequestSubmit(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("RequestSubmit before Start: %v", err)
	}
	if err := s.Confirm(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Confirm without request: %v", err)
	}
	if err := s.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Cancel without request: %v", err)
	}
}

func TestProgressPercent(t *testing.T) {
	s, _, _ := newTestSession(t, testQuiz(nil))
	s.Start()
	if got := s.ProgressPercent(); got != 0 {
		t.Errorf("ProgressPercent = %d", got)
	}
	s.SetAnswer(10, ChoiceAnswer(100))
	if got := s.ProgressPercent(); got != 33 {
		t.Errorf("ProgressPercent = %d, want 33", got)
	}
	s.SetAnswer(11, BoolAnswer(true))
	if got := s.ProgressPercent(); got != 67 {
		t.Errorf("ProgressPercent = %d, want 67", got)
	}
	s.SetAnswer(11, Answer{})
	if got := s.AnsweredCount(); got != 1 {
		t.Errorf("AnsweredCount after clearing = %d, want 1", got)
	}
}

func TestCloseStopsTimer(t *testing.T) {
	s, _, clk := newTestSession(t, testQuiz(minutes(1)))
	s.Start()
	clk.Advance(3 * time.Second)
	s.Close()
	clk.Advance(2 * time.Minute)

	st := s.Status()
	if st.Elapsed != 3 || st.State != InProgress {
		t.Errorf("status after Close = %+v", st)
	}
	if clk.Active() != 0 {
		t.Errorf("active timers = %d", clk.Active())
	}
}

func TestUntimedRemaining(t *testing.T) {
	s, _, _ := newTestSession(t, testQuiz(nil))
	if _, ok := s.Remaining(); ok {
		t.Error("untimed quiz should report no remaining time")
	}
}

func TestNewSession_ZeroDurationIsUntimed(t *testing.T) {
	s, _, clk := newTestSession(t, testQuiz(minutes(0)))
	if _, ok := s.Remaining(); ok {
		t.Error("a zero duration should be untimed")
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	clk.Advance(10 * time.Minute)
	if got := s.Status().State; got != InProgress {
		t.Errorf("state after 10m = %s, want InProgress", got)
	}
}

func TestNewSession_NegativeDuration(t *testing.T) {
	_, err := NewSession(testQuiz(minutes(-5)), &mockService{}, clock.NewFake(time.Now()), Options{})
	var cfgErr *errs.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *errs.ConfigurationError", err)
	}
}
