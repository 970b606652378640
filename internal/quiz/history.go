package quiz

import (
	"context"
	"fmt"
)

// History reads the learner's attempts from the quiz service. Nothing is
// cached; every call reflects the service at that moment.
type History struct {
	svc Service
}

func NewHistory(svc Service) *History {
	return &History{svc: svc}
}

// List returns all attempts at quizID.
func (h *History) List(ctx context.Context, quizID int) ([]AttemptRecord, error) {
	records, err := h.svc.ListMyAttempts(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts for quiz %d: %w", quizID, err)
	}
	return records, nil
}

// Best returns the highest-scoring attempt, or nil when there are none.
func (h *History) Best(ctx context.Context, quizID int) (*AttemptRecord, error) {
	records, err := h.List(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return BestOf(records), nil
}

// Summary annotates a quiz start screen.
type Summary struct {
	Attempts int
	Best     *AttemptRecord
	Passed   int
	Failed   int
}

// Summary aggregates attempts at q, judging each against q's passing
// score.
func (h *History) Summary(ctx context.Context, q *Quiz) (Summary, error) {
	records, err := h.List(ctx, q.ID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(q, records), nil
}

// Summarize aggregates records already fetched for q.
func Summarize(q *Quiz, records []AttemptRecord) Summary {
	sum := Summary{Attempts: len(records), Best: BestOf(records)}
	for _, r := range records {
		if q.Passed(r.Score) {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}
	return sum
}

// BestOf returns the max-score record; among equal scores the earliest
// submission wins.
func BestOf(records []AttemptRecord) *AttemptRecord {
	var best *AttemptRecord
	for i := range records {
		r := &records[i]
		switch {
		case best == nil, r.Score > best.Score:
			best = r
		case r.Score == best.Score && r.SubmittedAt.Before(best.SubmittedAt):
			best = r
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// IsNewBest reports whether current tops every earlier attempt. A first
// attempt is never a new best. Records sharing current's ID are ignored.
func IsNewBest(current AttemptRecord, previous []AttemptRecord) bool {
	var seen int
	for _, r := range previous {
		if current.ID != 0 && r.ID == current.ID {
			continue
		}
		seen++
		if r.Score > current.Score {
			return false
		}
	}
	return seen > 0
}
