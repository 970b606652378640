package lesson

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/mathportal/internal/errs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Option configures Assemble.
type Option func(*assembleConfig)

type assembleConfig struct {
	skipQuiz bool
}

// WithoutQuiz omits the quiz section, for lessons that have no quiz.
func WithoutQuiz() Option {
	return func(c *assembleConfig) { c.skipQuiz = true }
}

// Assemble builds the ordered sections of a lesson: intro, video, content,
// one interactive section per figure in the order given, then the quiz.
// Ids are assigned by position and weights come from policy. The result is
// validated; a bad policy surfaces as *errs.ConfigurationError.
func Assemble(l Lesson, figures []Figure, policy WeightPolicy, opts ...Option) ([]Section, error) {
	var cfg assembleConfig
	for _, o := range opts {
		o(&cfg)
	}
	if policy == nil {
		policy = DefaultWeights
	}

	sections := []Section{
		{Kind: KindIntro, Title: "Introduction", Body: l.Description},
		{Kind: KindVideo, Title: "Video lesson", Body: l.VideoURL},
		{Kind: KindContent, Title: "Lesson content", Body: l.Content},
	}
	for i := range figures {
		f := figures[i]
		title := f.Title
		if title == "" {
			title = fmt.Sprintf("Interactive figure %d", i+1)
		}
		sections = append(sections, Section{Kind: KindInteractive, Title: title, Figure: &f})
	}
	if !cfg.skipQuiz {
		sections = append(sections, Section{Kind: KindQuiz, Title: "Quiz"})
	}

	for i := range sections {
		sections[i].ID = i
		sections[i].Weight = policy.WeightFor(sections[i].Kind)
	}

	if err := Validate(sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// Validate checks that every section has a known kind, a title, a positive
// weight and an id equal to its index.
func Validate(sections []Section) error {
	for i, s := range sections {
		if s.ID != i {
			return errs.Configf(fmt.Sprintf("sections[%d].ID", i), "id %d does not match position", s.ID)
		}
		if err := validate.Struct(s); err != nil {
			return toConfigError(i, err)
		}
	}
	return nil
}

func toConfigError(index int, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &errs.ConfigurationError{
			Field:  fmt.Sprintf("sections[%d].%s", index, fe.Field()),
			Reason: fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &errs.ConfigurationError{Field: fmt.Sprintf("sections[%d]", index), Err: err}
}

// Find returns the section with the given id.
func Find(sections []Section, id int) (Section, bool) {
	if id < 0 || id >= len(sections) {
		return Section{}, false
	}
	return sections[id], true
}

// QuizSection returns the id of the quiz section, or -1.
func QuizSection(sections []Section) int {
	for _, s := range sections {
		if s.Kind == KindQuiz {
			return s.ID
		}
	}
	return -1
}
