// Package lesson is the terminal screen for working through one lesson.
package lesson

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/mathportal/internal/auth"
	"github.com/abhisek/mathportal/internal/clock"
	lsn "github.com/abhisek/mathportal/internal/lesson"
	"github.com/abhisek/mathportal/internal/progress"
	qz "github.com/abhisek/mathportal/internal/quiz"
	"github.com/abhisek/mathportal/internal/router"
	"github.com/abhisek/mathportal/internal/screen"
	quizscreen "github.com/abhisek/mathportal/internal/screens/quiz"
	"github.com/abhisek/mathportal/internal/ui/components"
	"github.com/abhisek/mathportal/internal/ui/layout"
)

const (
	loadTimeout  = 15 * time.Second
	closeTimeout = 5 * time.Second

	// partialStep is how much credit one "+" press adds to a video or
	// content section.
	partialStep = 0.25
)

// Deps are the collaborators the lesson screen needs.
type Deps struct {
	Lessons progress.LessonService
	Figures lsn.FigureService // optional
	Quizzes qz.Service        // optional; nil hides the quiz section
	Cache   *progress.Cache
	User    auth.User
	Clock   clock.Clock
	Log     zerolog.Logger

	SyncInterval time.Duration
	Weights      lsn.WeightPolicy
}

// LessonScreen implements screen.Screen for one lesson.
type LessonScreen struct {
	deps   Deps
	slug   string
	ctrl   *progress.Controller
	menu   components.Menu
	errMsg string
	notice string

	syncMu   sync.Mutex
	lastSync syncOutcome
}

type syncOutcome struct {
	at  time.Time
	err error
}

var _ screen.Screen = (*LessonScreen)(nil)
var _ screen.KeyHintProvider = (*LessonScreen)(nil)
var _ screen.Closer = (*LessonScreen)(nil)

// New creates a lesson screen for slug.
func New(deps Deps, slug string) *LessonScreen {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	return &LessonScreen{deps: deps, slug: slug}
}

func (s *LessonScreen) Init() tea.Cmd {
	return s.load()
}

func (s *LessonScreen) Title() string {
	if s.ctrl != nil {
		return s.ctrl.Lesson().Title
	}
	return "Lesson"
}

// HeaderStatus shows the lesson percentage.
func (s *LessonScreen) HeaderStatus() string {
	if s.ctrl == nil {
		return ""
	}
	return fmt.Sprintf("%d%% complete", s.ctrl.Snapshot().Percent)
}

func (s *LessonScreen) KeyHints() []layout.KeyHint {
	if s.ctrl == nil {
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Sections"},
		{Key: "N/P", Description: "Next/Prev"},
	}
	switch s.activeSection().Kind {
	case lsn.KindQuiz:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Open quiz"})
	case lsn.KindVideo, lsn.KindContent:
		hints = append(hints,
			layout.KeyHint{Key: "+", Description: "Progress"},
			layout.KeyHint{Key: "C", Description: "Done"})
	default:
		hints = append(hints, layout.KeyHint{Key: "C", Description: "Done"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Close stops the timer, saves locally and flushes the last sync.
func (s *LessonScreen) Close() {
	if s.ctrl == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := s.ctrl.Close(ctx); err != nil {
		s.deps.Log.Warn().Err(err).Str("lesson", s.slug).Msg("final progress sync did not finish")
	}
}

// Controller returns the progress controller, nil until loaded.
func (s *LessonScreen) Controller() *progress.Controller { return s.ctrl }

func (s *LessonScreen) load() tea.Cmd {
	deps, slug := s.deps, s.slug
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		snap, err := deps.Lessons.GetLessonWithProgress(ctx, slug)
		if err != nil {
			return loadedMsg{Err: fmt.Errorf("load lesson %q: %w", slug, err)}
		}

		var figures []lsn.Figure
		if deps.Figures != nil {
			figures, err = deps.Figures.ListByLesson(ctx, snap.Lesson.ID)
			if err != nil {
				deps.Log.Warn().Err(err).Int("lesson", snap.Lesson.ID).Msg("figures unavailable")
				figures = nil
			}
		}

		var opts []lsn.Option
		if !hasQuiz(ctx, deps, snap.Lesson.ID) {
			opts = append(opts, lsn.WithoutQuiz())
		}
		sections, err := lsn.Assemble(snap.Lesson, figures, deps.Weights, opts...)
		if err != nil {
			return loadedMsg{Err: err}
		}

		ctrl, err := progress.NewController(progress.Options{
			Lesson:       snap.Lesson,
			Sections:     sections,
			User:         deps.User,
			Remote:       deps.Lessons,
			Cache:        deps.Cache,
			Clock:        deps.Clock,
			Log:          deps.Log,
			SyncInterval: deps.SyncInterval,
			OnSync:       s.recordSync,
		})
		if err != nil {
			return loadedMsg{Err: err}
		}
		if _, err := ctrl.Initialize(ctx, snap); err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{Ctrl: ctrl}
	}
}

// hasQuiz reports whether the lesson has a quiz. Errors other than "no
// quiz" keep the section; the quiz screen retries when opened.
func hasQuiz(ctx context.Context, deps Deps, lessonID int) bool {
	if deps.Quizzes == nil {
		return false
	}
	_, err := deps.Quizzes.GetQuizForLesson(ctx, lessonID)
	if errors.Is(err, qz.ErrNoQuiz) {
		return false
	}
	if err != nil {
		deps.Log.Warn().Err(err).Int("lesson", lessonID).Msg("quiz lookup failed")
	}
	return true
}

// recordSync runs on the sync worker goroutine.
func (s *LessonScreen) recordSync(_ progress.ProgressUpdate, err error) {
	s.syncMu.Lock()
	s.lastSync = syncOutcome{at: s.deps.Clock.Now(), err: err}
	s.syncMu.Unlock()
}

func (s *LessonScreen) syncStatus() syncOutcome {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return s.lastSync
}

func (s *LessonScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.ctrl = msg.Ctrl
		s.rebuildMenu()
		return s, nil

	case screen.TickMsg:
		if s.ctrl != nil {
			s.rebuildMenu()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *LessonScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.ctrl == nil {
		return s, nil
	}
	s.notice = ""

	var moved bool
	s.menu, moved = s.menu.Update(msg)
	if moved {
		_ = s.ctrl.SetActive(s.menu.Selected)
		return s, nil
	}

	active := s.activeSection()
	switch msg.String() {
	case "n", "right":
		if _, err := s.ctrl.NextSection(); err != nil {
			s.notice = err.Error()
		}
	case "p", "left":
		s.ctrl.PreviousSection()
	case "c", "space":
		if active.Kind == lsn.KindQuiz {
			s.notice = "Pass the quiz to complete this section."
			break
		}
		if err := s.ctrl.MarkSectionComplete(active.ID); err != nil {
			s.notice = err.Error()
		}
	case "+", "=":
		if !active.Kind.SupportsPartialCredit() {
			break
		}
		current := s.ctrl.Snapshot().Partial[active.ID]
		if err := s.ctrl.UpdatePartialCredit(active.ID, current+partialStep); err != nil {
			s.notice = err.Error()
		}
	case "enter":
		if active.Kind == lsn.KindQuiz {
			return s, s.openQuiz(active.ID)
		}
		if _, err := s.ctrl.NextSection(); err != nil {
			s.notice = err.Error()
		}
	}
	s.rebuildMenu()
	return s, nil
}

func (s *LessonScreen) openQuiz(sectionID int) tea.Cmd {
	if s.deps.Quizzes == nil {
		return nil
	}
	ctrl, log := s.ctrl, s.deps.Log
	qs := quizscreen.New(quizscreen.Deps{
		Service: s.deps.Quizzes,
		Clock:   s.deps.Clock,
		Log:     s.deps.Log,
	}, ctrl.Lesson().ID, func(rec qz.AttemptRecord) {
		if err := ctrl.MarkSectionComplete(sectionID); err != nil {
			log.Warn().Err(err).Msg("could not complete quiz section")
		}
	})
	return func() tea.Msg { return router.PushScreenMsg{Screen: qs} }
}

func (s *LessonScreen) activeSection() lsn.Section {
	sections := s.ctrl.Sections()
	return sections[s.ctrl.Active()]
}

// rebuildMenu refreshes the section list from the controller.
func (s *LessonScreen) rebuildMenu() {
	snap := s.ctrl.Snapshot()
	sections := s.ctrl.Sections()
	items := make([]components.MenuItem, len(sections))
	for i, sec := range sections {
		item := components.MenuItem{Label: sec.Title, Marker: "○"}
		switch {
		case snap.IsCompleted(sec.ID):
			item.Marker, item.Done = "✓", true
		case snap.Partial[sec.ID] > 0:
			item.Marker = "◐"
			item.Label = fmt.Sprintf("%s (%d%%)", sec.Title, int(snap.Partial[sec.ID]*100))
		}
		items[i] = item
	}
	s.menu = components.NewMenu(items, s.ctrl.Active())
}
