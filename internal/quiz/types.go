// Package quiz runs timed quiz attempts against the remote quiz service and
// aggregates the learner's attempt history.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/mathportal/internal/errs"
)

// QuestionType is how a question is answered.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// Choice is one selectable answer. The client never sees which choice is
// correct.
type Choice struct {
	ID    int    `json:"id"`
	Text  string `json:"answer_text"`
	Order int    `json:"order"`
}

type Question struct {
	ID       int          `json:"id"`
	Text     string       `json:"question_text" validate:"required"`
	Type     QuestionType `json:"question_type" validate:"oneof=multiple_choice true_false short_answer"`
	Points   float64      `json:"points" validate:"gte=0"`
	Order    int          `json:"order"`
	ImageURL string       `json:"image_url,omitempty"`
	Choices  []Choice     `json:"answers"`
}

// Quiz is the reference data for one lesson's quiz, without answer keys.
type Quiz struct {
	ID          int    `json:"id"`
	LessonID    int    `json:"lesson_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Duration is the time limit in minutes. Nil or 0 means untimed.
	Duration *int `json:"duration" validate:"omitempty,gte=0"`

	// PassingScore is the minimum percentage for a passing attempt.
	PassingScore float64 `json:"passing_score" validate:"gte=0,lte=100"`

	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShowAnswers      bool       `json:"show_answers"`
	Questions        []Question `json:"questions" validate:"dive"`
}

// DefaultPassingScore applies when the service omits a passing score.
const DefaultPassingScore = 60

// Passed reports whether score meets the passing threshold.
func (q *Quiz) Passed(score float64) bool {
	return score >= q.PassingScore
}

// TimeLimit returns the attempt deadline, or 0 for an untimed quiz.
func (q *Quiz) TimeLimit() time.Duration {
	if q.Duration == nil || *q.Duration <= 0 {
		return 0
	}
	return time.Duration(*q.Duration) * time.Minute
}

// Question returns the question with the given id.
func (q *Quiz) Question(id int) (Question, bool) {
	for _, qu := range q.Questions {
		if qu.ID == id {
			return qu, true
		}
	}
	return Question{}, false
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateQuiz rejects quizzes a session cannot run. A quiz with no
// questions is a *errs.ConfigurationError.
func ValidateQuiz(q *Quiz) error {
	if q == nil {
		return errs.Configf("quiz", "missing")
	}
	if len(q.Questions) == 0 {
		return errs.Configf("quiz.Questions", "quiz %d has no questions", q.ID)
	}
	if err := validate.Struct(q); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return errs.Configf(ve[0].Namespace(), "failed %q", ve[0].Tag())
		}
		return &errs.ConfigurationError{Field: "quiz", Err: err}
	}
	seen := make(map[int]bool, len(q.Questions))
	for _, qu := range q.Questions {
		if seen[qu.ID] {
			return errs.Configf("quiz.Questions", "duplicate question id %d", qu.ID)
		}
		seen[qu.ID] = true
	}
	return nil
}

// CorrectAnswer is the per-question reveal returned when the quiz shows
// answers after submission.
type CorrectAnswer struct {
	QuestionID        int     `json:"question_id"`
	QuestionText      string  `json:"question_text"`
	UserAnswer        Answer  `json:"user_answer"`
	CorrectAnswerID   *int    `json:"correct_answer_id"`
	CorrectAnswerText *string `json:"correct_answer_text"`
	IsCorrect         bool    `json:"is_correct"`
	Points            float64 `json:"points"`
}

// AttemptRecord is a scored, immutable attempt owned by the quiz service.
type AttemptRecord struct {
	ID             int
	QuizID         int
	Score          float64 // 0-100
	PointsEarned   float64
	TotalPoints    float64
	Passed         bool
	TimeSpent      int // seconds
	StartedAt      time.Time
	SubmittedAt    time.Time
	CorrectAnswers []CorrectAnswer
}

// CorrectCount returns how many revealed answers were correct.
func (r *AttemptRecord) CorrectCount() int {
	var n int
	for _, ca := range r.CorrectAnswers {
		if ca.IsCorrect {
			n++
		}
	}
	return n
}

// Submission is the payload of one attempt.
type Submission struct {
	// AttemptID correlates local events for this attempt. It is not sent.
	AttemptID string
	Answers   map[int]Answer
	TimeSpent int
	StartedAt time.Time
}

// ErrNoQuiz is returned by GetQuizForLesson when the lesson has no quiz.
var ErrNoQuiz = errors.New("lesson has no quiz")

// Service is the remote quiz collaborator.
type Service interface {
	GetQuizForLesson(ctx context.Context, lessonID int) (*Quiz, error)
	SubmitAttempt(ctx context.Context, quizID int, sub Submission) (*AttemptRecord, error)
	ListMyAttempts(ctx context.Context, quizID int) ([]AttemptRecord, error)
}

// FormatElapsed renders seconds as m:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
