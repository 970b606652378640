package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAttempts struct {
	records []AttemptRecord
	err     error
}

func (s staticAttempts) GetQuizForLesson(context.Context, int) (*Quiz, error) { return nil, nil }

func (s staticAttempts) SubmitAttempt(context.Context, int, Submission) (*AttemptRecord, error) {
	return nil, errors.New("read only")
}

func (s staticAttempts) ListMyAttempts(context.Context, int) ([]AttemptRecord, error) {
	return s.records, s.err
}

var t0 = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func sampleAttempts() []AttemptRecord {
	return []AttemptRecord{
		{ID: 1, Score: 40, SubmittedAt: t0},
		{ID: 2, Score: 80, SubmittedAt: t0.Add(2 * time.Hour)},
		{ID: 3, Score: 80, SubmittedAt: t0.Add(time.Hour)},
		{ID: 4, Score: 60, SubmittedAt: t0.Add(3 * time.Hour)},
	}
}

func TestHistory_Best(t *testing.T) {
	h := NewHistory(staticAttempts{records: sampleAttempts()})
	best, err := h.Best(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 3, best.ID, "earliest of the tied top scores wins")
}

func TestHistory_BestEmpty(t *testing.T) {
	best, err := NewHistory(staticAttempts{}).Best(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestHistory_Summary(t *testing.T) {
	h := NewHistory(staticAttempts{records: sampleAttempts()})
	sum, err := h.Summary(context.Background(), &Quiz{ID: 3, PassingScore: 60})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Attempts)
	assert.Equal(t, 3, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, float64(80), sum.Best.Score)
}

func TestHistory_ListError(t *testing.T) {
	h := NewHistory(staticAttempts{err: errors.New("offline")})
	_, err := h.List(context.Background(), 3)
	assert.Error(t, err)
}

func TestIsNewBest(t *testing.T) {
	prev := sampleAttempts()

	assert.True(t, IsNewBest(AttemptRecord{ID: 9, Score: 90}, prev))
	assert.True(t, IsNewBest(AttemptRecord{ID: 9, Score: 80}, prev), "tying the best counts")
	assert.False(t, IsNewBest(AttemptRecord{ID: 9, Score: 70}, prev))
	assert.False(t, IsNewBest(AttemptRecord{ID: 9, Score: 100}, nil), "first attempt is never a new best")

	// The current attempt may already be in the fetched list.
	withCurrent := append([]AttemptRecord{{ID: 9, Score: 50}}, AttemptRecord{ID: 1, Score: 40})
	assert.True(t, IsNewBest(AttemptRecord{ID: 9, Score: 50}, withCurrent))
	assert.False(t, IsNewBest(AttemptRecord{ID: 9, Score: 50}, withCurrent[:1]))
}
