package progress

import (
	"context"

	"github.com/abhisek/mathportal/internal/lesson"
)

// RemoteSnapshot is the remote view of a lesson together with the
// learner's stored progress on it.
type RemoteSnapshot struct {
	Lesson lesson.Lesson

	// Percent is the stored overall percentage.
	Percent int

	// CompletedSections is the explicit completed list, when the remote
	// stores one. Empty means only Percent is known.
	CompletedSections []int

	TimeSpent int
}

// HasProgress reports whether the snapshot carries any learner progress.
func (r *RemoteSnapshot) HasProgress() bool {
	return r != nil && (r.Percent > 0 || len(r.CompletedSections) > 0)
}

// ProgressUpdate is one progress write to the remote service. Revision
// increases monotonically per lesson; the remote should ignore updates whose
// revision is not above the one it holds.
type ProgressUpdate struct {
	LessonID          int
	LessonSlug        string
	Percent           int
	CompletedSections []int
	TimeSpent         int
	Revision          int64
}

// LessonService is the remote lesson collaborator.
type LessonService interface {
	GetLessonWithProgress(ctx context.Context, slug string) (*RemoteSnapshot, error)
	PostProgress(ctx context.Context, update ProgressUpdate) error
}
