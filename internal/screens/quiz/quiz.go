// Package quiz is the terminal screen for taking a lesson's quiz.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/mathportal/internal/clock"
	qz "github.com/abhisek/mathportal/internal/quiz"
	"github.com/abhisek/mathportal/internal/router"
	"github.com/abhisek/mathportal/internal/screen"
	"github.com/abhisek/mathportal/internal/ui/components"
	"github.com/abhisek/mathportal/internal/ui/layout"
)

const loadTimeout = 15 * time.Second

// Deps are the collaborators the quiz screen needs.
type Deps struct {
	Service qz.Service
	Clock   clock.Clock
	Log     zerolog.Logger
}

// QuizScreen implements screen.Screen for one quiz.
type QuizScreen struct {
	deps     Deps
	lessonID int
	onPassed func(qz.AttemptRecord)

	quiz     *qz.Quiz
	session  *qz.Session
	previous []qz.AttemptRecord
	errMsg   string

	current  int
	choices  components.ChoiceList
	input    components.TextInput
	awaiting bool

	// reported is the result already handed to onPassed. The session
	// observer may report from the submission goroutine.
	reportMu sync.Mutex
	reported *qz.AttemptRecord
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.Closer = (*QuizScreen)(nil)
var _ screen.EscCapturer = (*QuizScreen)(nil)

// New creates a quiz screen for the lesson. onPassed is called once for
// every passing result, even one that settles after the screen was closed,
// and may run on a background goroutine.
func New(deps Deps, lessonID int, onPassed func(qz.AttemptRecord)) *QuizScreen {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	return &QuizScreen{deps: deps, lessonID: lessonID, onPassed: onPassed}
}

func (s *QuizScreen) Init() tea.Cmd {
	return s.load()
}

func (s *QuizScreen) Title() string {
	if s.quiz != nil && s.quiz.Title != "" {
		return s.quiz.Title
	}
	return "Quiz"
}

// HeaderStatus shows the countdown while answering.
func (s *QuizScreen) HeaderStatus() string {
	if s.session == nil {
		return ""
	}
	st := s.session.Status()
	if st.State != qz.InProgress && st.State != qz.ConfirmingSubmit {
		return ""
	}
	left, timed := s.session.Remaining()
	if !timed {
		return "⏱ " + qz.FormatElapsed(st.Elapsed)
	}
	return "⏱ " + qz.FormatElapsed(int(left.Seconds())) + " left"
}

// CapturesEsc keeps Esc inside the confirm dialog.
func (s *QuizScreen) CapturesEsc() bool {
	return s.session != nil && s.session.Status().State == qz.ConfirmingSubmit
}

// Close stops the countdown. A submission in flight still completes.
func (s *QuizScreen) Close() {
	if s.session != nil {
		s.session.Close()
	}
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	if s.session == nil {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	switch s.session.Status().State {
	case qz.NotStarted:
		return []layout.KeyHint{{Key: "Enter", Description: "Start"}, {Key: "Esc", Description: "Back"}}
	case qz.InProgress:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Tab/Shift+Tab", Description: "Question"},
			{Key: "Ctrl+S", Description: "Submit"},
		}
	case qz.ConfirmingSubmit:
		return []layout.KeyHint{{Key: "Y", Description: "Submit anyway"}, {Key: "N", Description: "Keep answering"}}
	case qz.Completed:
		return []layout.KeyHint{{Key: "R", Description: "Retake"}, {Key: "Enter", Description: "Back to lesson"}}
	case qz.Failed:
		return []layout.KeyHint{{Key: "Enter", Description: "Retry"}, {Key: "R", Description: "Start over"}, {Key: "Esc", Description: "Back"}}
	}
	return nil
}

func (s *QuizScreen) load() tea.Cmd {
	deps, lessonID := s.deps, s.lessonID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		q, err := deps.Service.GetQuizForLesson(ctx, lessonID)
		if err != nil {
			return loadedMsg{Err: err}
		}
		sess, err := qz.NewSession(q, deps.Service, deps.Clock, qz.Options{Log: deps.Log})
		if err != nil {
			return loadedMsg{Err: err}
		}
		// A deadline submission can outlive the screen.
		sess.OnChange(func(st qz.Status) { s.reportPassed(q, st) })

		// History only decorates the start and result views.
		previous, err := qz.NewHistory(deps.Service).List(ctx, q.ID)
		if err != nil {
			deps.Log.Warn().Err(err).Int("quiz", q.ID).Msg("attempt history unavailable")
		}
		return loadedMsg{Quiz: q, Session: sess, Previous: previous}
	}
}

func (s *QuizScreen) await() tea.Cmd {
	sess := s.session
	return func() tea.Msg {
		st, _ := sess.Await(context.Background())
		return settledMsg{Status: st}
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, qz.ErrNoQuiz) {
				s.errMsg = "This lesson has no quiz yet."
			} else {
				s.errMsg = fmt.Sprintf("Could not load the quiz: %v", msg.Err)
			}
			return s, nil
		}
		s.quiz, s.session, s.previous = msg.Quiz, msg.Session, msg.Previous
		return s, nil

	case settledMsg:
		s.awaiting = false
		s.reportPassed(s.quiz, msg.Status)
		return s, nil

	case screen.TickMsg:
		// Deadline submissions start on the session's own timer.
		return s, s.watchSubmission()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.session != nil && s.session.Status().State == qz.InProgress && s.isTextQuestion() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// watchSubmission starts waiting on a submission the session began by
// itself, and reports a result that settled between ticks.
func (s *QuizScreen) watchSubmission() tea.Cmd {
	if s.session == nil || s.awaiting {
		return nil
	}
	st := s.session.Status()
	if st.State != qz.Submitting {
		s.reportPassed(s.quiz, st)
		return nil
	}
	s.awaiting = true
	return s.await()
}

// afterSubmit waits on the submission a key press started. It may already
// have settled, so the state alone can't tell.
func (s *QuizScreen) afterSubmit(err error) tea.Cmd {
	if err != nil || s.session.Status().State == qz.ConfirmingSubmit {
		return nil
	}
	s.awaiting = true
	return s.await()
}

func (s *QuizScreen) reportPassed(q *qz.Quiz, st qz.Status) {
	if st.State != qz.Completed || st.Result == nil || !q.Passed(st.Result.Score) {
		return
	}
	s.reportMu.Lock()
	if s.reported == st.Result || s.onPassed == nil {
		s.reportMu.Unlock()
		return
	}
	s.reported = st.Result
	s.reportMu.Unlock()
	s.onPassed(*st.Result)
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if s.session == nil {
		if s.errMsg != "" && key == "enter" {
			return s, popCmd
		}
		return s, nil
	}

	ctx := context.Background()
	switch s.session.Status().State {
	case qz.NotStarted:
		if key == "enter" || key == "s" {
			if err := s.session.Start(); err == nil {
				return s, s.showQuestion(0)
			}
		}

	case qz.InProgress:
		return s.handleAnswerKey(ctx, msg)

	case qz.ConfirmingSubmit:
		switch key {
		case "y", "Y", "enter":
			return s, s.afterSubmit(s.session.Confirm(ctx))
		case "n", "N", "esc":
			_ = s.session.Cancel()
		}

	case qz.Completed:
		switch key {
		case "r", "R":
			return s, s.retake()
		case "enter":
			return s, popCmd
		}

	case qz.Failed:
		switch key {
		case "enter":
			return s, s.afterSubmit(s.session.RequestSubmit(ctx))
		case "r", "R":
			return s, s.retake()
		}
	}
	return s, nil
}

func (s *QuizScreen) handleAnswerKey(ctx context.Context, msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return s, s.afterSubmit(s.session.RequestSubmit(ctx))
	case "tab":
		return s, s.showQuestion(s.current + 1)
	case "shift+tab":
		return s, s.showQuestion(s.current - 1)
	}

	q := s.quiz.Questions[s.current]
	if s.isTextQuestion() {
		if msg.String() == "enter" {
			return s, s.showQuestion(s.current + 1)
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		_ = s.session.SetAnswer(q.ID, qz.TextAnswer(s.input.Value()))
		return s, cmd
	}

	var changed bool
	s.choices, changed = s.choices.Update(msg)
	if changed {
		_ = s.session.SetAnswer(q.ID, choiceAnswer(q, s.choices.Chosen))
	}
	return s, nil
}

func (s *QuizScreen) retake() tea.Cmd {
	st := s.session.Status()
	if st.Result != nil {
		s.previous = append(s.previous, *st.Result)
	}
	if err := s.session.Retake(); err != nil {
		return nil
	}
	return s.showQuestion(0)
}

// showQuestion moves to question i (clamped) and loads its current answer
// into the input widgets.
func (s *QuizScreen) showQuestion(i int) tea.Cmd {
	n := len(s.quiz.Questions)
	s.current = min(max(i, 0), n-1)
	q := s.quiz.Questions[s.current]
	a := s.session.Answer(q.ID)

	if s.isTextQuestion() {
		s.input = components.NewTextInput("Type your answer...", a.Text(), 200)
		return s.input.Init()
	}
	s.choices = components.NewChoiceList(choiceLabels(q), chosenIndex(q, a))
	return nil
}

func (s *QuizScreen) isTextQuestion() bool {
	if s.quiz == nil || len(s.quiz.Questions) == 0 {
		return false
	}
	return s.quiz.Questions[s.current].Type == qz.ShortAnswer
}

// Current returns the index of the question in view.
func (s *QuizScreen) Current() int { return s.current }

// Session returns the running session, nil until loaded.
func (s *QuizScreen) Session() *qz.Session { return s.session }

func popCmd() tea.Msg { return router.PopScreenMsg{} }

// True/false questions normally carry two choices; without them the answer
// is sent as a boolean.
var boolLabels = []string{"True", "False"}

func choiceLabels(q qz.Question) []string {
	if len(q.Choices) == 0 && q.Type == qz.TrueFalse {
		return boolLabels
	}
	labels := make([]string, len(q.Choices))
	for i, c := range q.Choices {
		labels[i] = c.Text
	}
	return labels
}

func choiceAnswer(q qz.Question, idx int) qz.Answer {
	if len(q.Choices) == 0 && q.Type == qz.TrueFalse {
		return qz.BoolAnswer(idx == 0)
	}
	if idx < 0 || idx >= len(q.Choices) {
		return qz.Answer{}
	}
	return qz.ChoiceAnswer(q.Choices[idx].ID)
}

func chosenIndex(q qz.Question, a qz.Answer) int {
	switch a.Kind() {
	case qz.AnswerBool:
		if a.Bool() {
			return 0
		}
		return 1
	case qz.AnswerChoice:
		for i, c := range q.Choices {
			if c.ID == a.ChoiceID() {
				return i
			}
		}
	}
	return -1
}
