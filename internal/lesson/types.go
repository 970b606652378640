// Package lesson models the ordered sections a lesson is rendered as and
// assembles them from the lesson record and its geometry figures.
package lesson

import "context"

// Kind is the closed set of section kinds.
type Kind string

const (
	KindIntro       Kind = "intro"
	KindVideo       Kind = "video"
	KindContent     Kind = "content"
	KindInteractive Kind = "interactive"
	KindQuiz        Kind = "quiz"
)

// AllKinds lists every kind in canonical lesson order.
var AllKinds = []Kind{KindIntro, KindVideo, KindContent, KindInteractive, KindQuiz}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindIntro, KindVideo, KindContent, KindInteractive, KindQuiz:
		return true
	}
	return false
}

// SupportsPartialCredit is true for kinds that accrue fractional progress
// before completion: watch fraction for video, scroll fraction for content.
func (k Kind) SupportsPartialCredit() bool {
	return k == KindVideo || k == KindContent
}

// Lesson is the reference record served by the lesson service.
type Lesson struct {
	ID          int    `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	Content     string `json:"content"`
	Duration    int    `json:"duration"` // minutes, display only
	Grade       int    `json:"grade"`
	Difficulty  string `json:"difficulty"`
}

// Summary is a catalog entry, with the learner's progress when known.
type Summary struct {
	ID          int     `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Grade       int     `json:"grade"`
	Duration    int     `json:"duration"`
	Progress    float64 `json:"progress"`
	IsCompleted bool    `json:"is_completed"`
}

// Figure is an interactive geometry applet attached to a lesson. Payload is
// opaque to this package.
type Figure struct {
	ID          int    `json:"id"`
	LessonID    int    `json:"lesson_id"`
	Title       string `json:"title"`
	Payload     string `json:"ggb_base64"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ShowToolbar bool   `json:"show_toolbar"`
}

// Section is one addressable unit of a lesson. ID is the ordinal index
// within the lesson and is only stable for one viewing session.
type Section struct {
	ID     int     `validate:"gte=0"`
	Kind   Kind    `validate:"oneof=intro video content interactive quiz"`
	Title  string  `validate:"required"`
	Weight int     `validate:"gt=0"`
	Body   string  // video URL, markdown body or description
	Figure *Figure // set for interactive sections only
}

// FigureService lists the geometry figures of a lesson.
type FigureService interface {
	ListByLesson(ctx context.Context, lessonID int) ([]Figure, error)
}
