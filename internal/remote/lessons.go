package remote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/abhisek/mathportal/internal/lesson"
	"github.com/abhisek/mathportal/internal/progress"
)

type lessonWithProgress struct {
	lesson.Summary
	CompletedSections []int `json:"completed_sections"`
	TimeSpent         int   `json:"time_spent"`
}

// GetLessonBySlug fetches a lesson record.
func (c *Client) GetLessonBySlug(ctx context.Context, slug string) (*lesson.Lesson, error) {
	var l lesson.Lesson
	if err := c.do(ctx, "GET", "/lessons/slug/"+url.PathEscape(slug), nil, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListPublished returns the published catalog, optionally for one grade.
func (c *Client) ListPublished(ctx context.Context, grade int) ([]lesson.Summary, error) {
	q := url.Values{}
	if grade > 0 {
		q.Set("grade", strconv.Itoa(grade))
	}
	var out []lesson.Summary
	if err := c.do(ctx, "GET", "/lessons/published", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMyLessons returns the catalog with the learner's progress.
func (c *Client) ListMyLessons(ctx context.Context) ([]lesson.Summary, error) {
	rows, err := c.myLessons(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]lesson.Summary, len(rows))
	for i, r := range rows {
		out[i] = r.Summary
	}
	return out, nil
}

func (c *Client) myLessons(ctx context.Context) ([]lessonWithProgress, error) {
	var rows []lessonWithProgress
	if err := c.do(ctx, "GET", "/lessons/my-lessons", nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetLessonWithProgress fetches the lesson and merges the learner's stored
// progress from the my-lessons listing. A failing listing (signed out, not
// a student) degrades to zero progress.
func (c *Client) GetLessonWithProgress(ctx context.Context, slug string) (*progress.RemoteSnapshot, error) {
	l, err := c.GetLessonBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	snap := &progress.RemoteSnapshot{Lesson: *l}

	rows, err := c.myLessons(ctx)
	if err != nil {
		c.log.Debug().Err(err).Str("slug", slug).Msg("no stored progress")
		return snap, nil
	}
	for _, r := range rows {
		if r.ID != l.ID {
			continue
		}
		snap.Percent = int(math.Round(r.Progress))
		snap.CompletedSections = r.CompletedSections
		snap.TimeSpent = r.TimeSpent
		break
	}
	return snap, nil
}

// PostProgress writes progress. The revision lets the backend drop writes
// older than the one it holds.
func (c *Client) PostProgress(ctx context.Context, u progress.ProgressUpdate) error {
	if u.LessonID == 0 {
		return errors.New("post progress: lesson id is required")
	}
	q := url.Values{}
	q.Set("progress_percentage", strconv.Itoa(u.Percent))
	if len(u.CompletedSections) > 0 {
		ids := make([]string, len(u.CompletedSections))
		for i, id := range u.CompletedSections {
			ids[i] = strconv.Itoa(id)
		}
		q.Set("completed_sections", strings.Join(ids, ","))
	}
	if u.TimeSpent > 0 {
		q.Set("time_spent", strconv.Itoa(u.TimeSpent))
	}
	q.Set("revision", strconv.FormatInt(u.Revision, 10))

	return c.do(ctx, "POST", fmt.Sprintf("/lessons/%d/progress", u.LessonID), q, nil, nil)
}
