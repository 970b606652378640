package remote

import (
	"context"
	"fmt"

	"github.com/abhisek/mathportal/internal/lesson"
)

// ListByLesson returns the geometry figures attached to a lesson.
func (c *Client) ListByLesson(ctx context.Context, lessonID int) ([]lesson.Figure, error) {
	var figs []lesson.Figure
	if err := c.do(ctx, "GET", fmt.Sprintf("/geogebra/lesson/%d", lessonID), nil, nil, &figs); err != nil {
		return nil, err
	}
	return figs, nil
}
