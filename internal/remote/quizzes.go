package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/abhisek/mathportal/internal/quiz"
)

// apiTime decodes the backend's timestamps, which may lack a zone.
type apiTime struct{ time.Time }

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func (t *apiTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil || s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range apiTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

type attemptJSON struct {
	ID           int     `json:"id"`
	QuizID       int     `json:"quiz_id"`
	Score        float64 `json:"score"`
	PointsEarned float64 `json:"points_earned"`
	TotalPoints  float64 `json:"total_points"`
	StartedAt    apiTime `json:"started_at"`
	SubmittedAt  apiTime `json:"submitted_at"`
	TimeSpent    int     `json:"time_spent"`
	IsCompleted  bool    `json:"is_completed"`
}

func (a attemptJSON) record(passed bool, reveal []quiz.CorrectAnswer) quiz.AttemptRecord {
	return quiz.AttemptRecord{
		ID:             a.ID,
		QuizID:         a.QuizID,
		Score:          a.Score,
		PointsEarned:   a.PointsEarned,
		TotalPoints:    a.TotalPoints,
		Passed:         passed,
		TimeSpent:      a.TimeSpent,
		StartedAt:      a.StartedAt.Time,
		SubmittedAt:    a.SubmittedAt.Time,
		CorrectAnswers: reveal,
	}
}

type submitRequest struct {
	Answers   map[string]quiz.Answer `json:"answers"`
	TimeSpent int                    `json:"time_spent"`
}

type submitResponse struct {
	Attempt        attemptJSON          `json:"attempt"`
	Passed         bool                 `json:"passed"`
	CorrectAnswers []quiz.CorrectAnswer `json:"correct_answers"`
}

// GetQuizForLesson fetches the student view of a lesson's quiz.
func (c *Client) GetQuizForLesson(ctx context.Context, lessonID int) (*quiz.Quiz, error) {
	q := quiz.Quiz{PassingScore: quiz.DefaultPassingScore}
	if err := c.do(ctx, "GET", fmt.Sprintf("/quizzes/lesson/%d/quiz", lessonID), nil, nil, &q); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", quiz.ErrNoQuiz, err)
		}
		return nil, err
	}
	return &q, nil
}

// SubmitAttempt sends the answers for scoring.
func (c *Client) SubmitAttempt(ctx context.Context, quizID int, sub quiz.Submission) (*quiz.AttemptRecord, error) {
	body := submitRequest{
		Answers:   make(map[string]quiz.Answer, len(sub.Answers)),
		TimeSpent: sub.TimeSpent,
	}
	for id, a := range sub.Answers {
		if !a.IsEmpty() {
			body.Answers[strconv.Itoa(id)] = a
		}
	}

	var resp submitResponse
	if err := c.do(ctx, "POST", fmt.Sprintf("/quizzes/%d/submit", quizID), nil, body, &resp); err != nil {
		return nil, err
	}
	rec := resp.Attempt.record(resp.Passed, resp.CorrectAnswers)
	if rec.QuizID == 0 {
		rec.QuizID = quizID
	}
	return &rec, nil
}

// ListMyAttempts returns the learner's attempts at quizID, newest first.
// A quizID of 0 lists every attempt.
func (c *Client) ListMyAttempts(ctx context.Context, quizID int) ([]quiz.AttemptRecord, error) {
	q := url.Values{}
	if quizID > 0 {
		q.Set("quiz_id", strconv.Itoa(quizID))
	}
	var rows []attemptJSON
	if err := c.do(ctx, "GET", "/quizzes/attempts/my-attempts", q, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]quiz.AttemptRecord, len(rows))
	for i, r := range rows {
		// The listing carries no pass flag; callers judge against the quiz.
		out[i] = r.record(false, nil)
	}
	return out, nil
}
