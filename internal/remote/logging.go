package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/mathportal/internal/progress"
	"github.com/abhisek/mathportal/internal/quiz"
	"github.com/abhisek/mathportal/internal/store"
)

// LoggingLessonService records every progress write in the event log.
type LoggingLessonService struct {
	inner  progress.LessonService
	events store.EventRepo
	log    zerolog.Logger
}

// WithLessonEventLog wraps a LessonService with event logging.
func WithLessonEventLog(svc progress.LessonService, events store.EventRepo, log zerolog.Logger) *LoggingLessonService {
	return &LoggingLessonService{inner: svc, events: events, log: log}
}

func (l *LoggingLessonService) GetLessonWithProgress(ctx context.Context, slug string) (*progress.RemoteSnapshot, error) {
	return l.inner.GetLessonWithProgress(ctx, slug)
}

func (l *LoggingLessonService) PostProgress(ctx context.Context, u progress.ProgressUpdate) error {
	start := time.Now()
	err := l.inner.PostProgress(ctx, u)

	data := store.SyncEventData{
		LessonID:  u.LessonID,
		Revision:  u.Revision,
		Percent:   u.Percent,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if err != nil {
		data.Error = err.Error()
	}

	// Log the event but don't fail the request if logging fails.
	if logErr := l.events.AppendSyncEvent(ctx, u.LessonSlug, data); logErr != nil {
		l.log.Warn().Err(logErr).Msg("failed to record progress sync event")
	}
	return err
}

// LoggingQuizService records every submission in the event log.
type LoggingQuizService struct {
	inner  quiz.Service
	events store.EventRepo
	log    zerolog.Logger
}

// WithQuizEventLog wraps a quiz Service with event logging.
func WithQuizEventLog(svc quiz.Service, events store.EventRepo, log zerolog.Logger) *LoggingQuizService {
	return &LoggingQuizService{inner: svc, events: events, log: log}
}

func (l *LoggingQuizService) GetQuizForLesson(ctx context.Context, lessonID int) (*quiz.Quiz, error) {
	return l.inner.GetQuizForLesson(ctx, lessonID)
}

func (l *LoggingQuizService) ListMyAttempts(ctx context.Context, quizID int) ([]quiz.AttemptRecord, error) {
	return l.inner.ListMyAttempts(ctx, quizID)
}

func (l *LoggingQuizService) SubmitAttempt(ctx context.Context, quizID int, sub quiz.Submission) (*quiz.AttemptRecord, error) {
	start := time.Now()
	rec, err := l.inner.SubmitAttempt(ctx, quizID, sub)

	data := store.AttemptEventData{
		QuizID:    quizID,
		AttemptID: sub.AttemptID,
		TimeSpent: sub.TimeSpent,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if rec != nil {
		data.Score = rec.Score
		data.Passed = rec.Passed
	}
	if err != nil {
		data.Error = err.Error()
	}

	if logErr := l.events.AppendAttemptEvent(ctx, fmt.Sprintf("quiz:%d", quizID), data); logErr != nil {
		l.log.Warn().Err(logErr).Msg("failed to record quiz submission event")
	}
	return rec, err
}
