package remote

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathportal/internal/progress"
	"github.com/abhisek/mathportal/internal/quiz"
	"github.com/abhisek/mathportal/internal/store"
)

type stubLessons struct{ err error }

func (s stubLessons) GetLessonWithProgress(context.Context, string) (*progress.RemoteSnapshot, error) {
	return &progress.RemoteSnapshot{}, nil
}

func (s stubLessons) PostProgress(context.Context, progress.ProgressUpdate) error { return s.err }

type stubQuizzes struct {
	rec *quiz.AttemptRecord
	err error
}

func (s stubQuizzes) GetQuizForLesson(context.Context, int) (*quiz.Quiz, error) { return nil, nil }

func (s stubQuizzes) ListMyAttempts(context.Context, int) ([]quiz.AttemptRecord, error) {
	return nil, nil
}

func (s stubQuizzes) SubmitAttempt(context.Context, int, quiz.Submission) (*quiz.AttemptRecord, error) {
	return s.rec, s.err
}

func openEvents(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLessonEventLog_RecordsOutcomes(t *testing.T) {
	ctx := context.Background()
	events := openEvents(t)

	ok := WithLessonEventLog(stubLessons{}, events, zerolog.Nop())
	require.NoError(t, ok.PostProgress(ctx, progress.ProgressUpdate{LessonID: 3, LessonSlug: "angles", Percent: 20, Revision: 1}))

	boom := errors.New("backend down")
	failing := WithLessonEventLog(stubLessons{err: boom}, events, zerolog.Nop())
	err := failing.PostProgress(ctx, progress.ProgressUpdate{LessonID: 3, LessonSlug: "angles", Percent: 40, Revision: 2})
	assert.ErrorIs(t, err, boom)

	st, err := events.SyncStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.SyncOK)
	assert.Equal(t, 1, st.SyncFailed)
	require.NotNil(t, st.LastSyncError)
	assert.Equal(t, "angles", st.LastSyncError.Subject)

	var data store.SyncEventData
	require.NoError(t, json.Unmarshal(st.LastSyncError.Data, &data))
	assert.Equal(t, int64(2), data.Revision)
	assert.Equal(t, 40, data.Percent)
	assert.Equal(t, "backend down", data.Error)
}

func TestQuizEventLog_RecordsSubmission(t *testing.T) {
	ctx := context.Background()
	events := openEvents(t)

	svc := WithQuizEventLog(stubQuizzes{rec: &quiz.AttemptRecord{ID: 8, Score: 75, Passed: true}}, events, zerolog.Nop())
	rec, err := svc.SubmitAttempt(ctx, 9, quiz.Submission{AttemptID: "a-1", TimeSpent: 42})
	require.NoError(t, err)
	assert.Equal(t, 8, rec.ID)

	recent, err := events.Recent(ctx, store.QueryOpts{Kind: store.KindQuizSubmit})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "quiz:9", recent[0].Subject)
	assert.True(t, recent[0].Success)

	var data store.AttemptEventData
	require.NoError(t, json.Unmarshal(recent[0].Data, &data))
	assert.Equal(t, "a-1", data.AttemptID)
	assert.Equal(t, 42, data.TimeSpent)
	assert.Equal(t, 75.0, data.Score)
	assert.True(t, data.Passed)
}
