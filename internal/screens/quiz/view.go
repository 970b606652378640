package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	qz "github.com/abhisek/mathportal/internal/quiz"
	"github.com/abhisek/mathportal/internal/ui/components"
	"github.com/abhisek/mathportal/internal/ui/layout"
	"github.com/abhisek/mathportal/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	if s.errMsg != "" {
		return center(width, theme.Failed.Render(s.errMsg)+"\n\n"+theme.Hint.Render("Enter or Esc to go back"))
	}
	if s.session == nil {
		return center(width, theme.Hint.Render("Loading quiz..."))
	}

	st := s.session.Status()
	switch st.State {
	case qz.NotStarted:
		return s.renderStart(width)
	case qz.InProgress:
		return s.renderQuestion(width)
	case qz.ConfirmingSubmit:
		return s.renderQuestion(width) + "\n\n" + renderConfirm(width, st.Unanswered)
	case qz.Submitting:
		return center(width, theme.Hint.Render("Submitting your answers..."))
	case qz.Completed:
		return s.renderResult(width, st)
	case qz.Failed:
		return s.renderFailed(width, st)
	}
	return ""
}

func (s *QuizScreen) renderStart(width int) string {
	q := s.quiz
	var b strings.Builder
	b.WriteString(theme.Title.Render(q.Title) + "\n")
	if q.Description != "" {
		b.WriteString(theme.Subtitle.Render(q.Description) + "\n")
	}
	b.WriteString("\n")

	limit := "No time limit"
	if d := q.TimeLimit(); d > 0 {
		limit = fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	fmt.Fprintf(&b, "Questions:      %d\n", len(q.Questions))
	fmt.Fprintf(&b, "Time limit:     %s\n", limit)
	fmt.Fprintf(&b, "Passing score:  %.0f%%\n", q.PassingScore)

	if sum := qz.Summarize(q, s.previous); sum.Attempts > 0 {
		fmt.Fprintf(&b, "\nAttempts:       %d (%d passed)\n", sum.Attempts, sum.Passed)
		fmt.Fprintf(&b, "Best score:     %.1f%%\n", sum.Best.Score)
	}

	b.WriteString("\n" + components.ButtonRow(components.Button{Key: "Enter", Label: "Start quiz", Active: true}))
	return theme.Card.Width(min(width-4, 70)).Render(b.String())
}

func (s *QuizScreen) renderQuestion(width int) string {
	q := s.quiz.Questions[s.current]
	n := len(s.quiz.Questions)
	var b strings.Builder

	bar := components.NewProgressBar(fmt.Sprintf("Answered %d/%d", s.session.AnsweredCount(), n), s.session.ProgressPercent(), true, min(width-4, 70))
	b.WriteString(bar.View() + "\n")
	b.WriteString(layout.Rule(min(width-4, 70)) + "\n\n")

	points := "points"
	if q.Points == 1 {
		points = "point"
	}
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Question %d of %d · %g %s", s.current+1, n, q.Points, points)) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(min(width-4, 70)).Render(q.Text) + "\n")
	if q.ImageURL != "" {
		b.WriteString(theme.Hint.Render("Image: "+q.ImageURL) + "\n")
	}
	b.WriteString("\n")

	if q.Type == qz.ShortAnswer {
		b.WriteString(s.input.View() + "\n")
	} else {
		b.WriteString(s.choices.View())
	}
	return b.String()
}

func renderConfirm(width, unanswered int) string {
	noun := "questions"
	if unanswered == 1 {
		noun = "question"
	}
	body := theme.Warn.Render(fmt.Sprintf("You have %d unanswered %s.", unanswered, noun)) +
		"\nSubmit anyway?\n\n" +
		components.ButtonRow(
			components.Button{Key: "y", Label: "Submit anyway", Active: true},
			components.Button{Key: "n", Label: "Keep answering"},
		)
	return theme.Dialog.Width(min(width-4, 60)).Render(body)
}

func (s *QuizScreen) renderResult(width int, st qz.Status) string {
	rec := st.Result
	var b strings.Builder

	if s.quiz.Passed(rec.Score) {
		b.WriteString(theme.Passed.Render("Passed!") + "\n")
	} else {
		b.WriteString(theme.Failed.Render("Not passed yet") + "\n")
	}
	if st.AutoSubmitted {
		b.WriteString(theme.Hint.Render("Time ran out, your answers were submitted automatically.") + "\n")
	}
	if qz.IsNewBest(*rec, s.previous) {
		b.WriteString(theme.Warn.Render("New personal best!") + "\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Score:    %.1f%% (passing %.0f%%)\n", rec.Score, s.quiz.PassingScore)
	fmt.Fprintf(&b, "Points:   %g / %g\n", rec.PointsEarned, rec.TotalPoints)
	if len(rec.CorrectAnswers) > 0 {
		fmt.Fprintf(&b, "Correct:  %d / %d\n", rec.CorrectCount(), len(rec.CorrectAnswers))
	}
	fmt.Fprintf(&b, "Time:     %s\n", qz.FormatElapsed(rec.TimeSpent))

	if len(rec.CorrectAnswers) > 0 {
		b.WriteString("\n" + layout.Rule(min(width-8, 60)) + "\n")
		for i, ca := range rec.CorrectAnswers {
			b.WriteString(renderReveal(i+1, ca) + "\n")
		}
	}
	return theme.Card.Width(min(width-4, 70)).Render(b.String())
}

func renderReveal(n int, ca qz.CorrectAnswer) string {
	mark := theme.Passed.Render("✓")
	if !ca.IsCorrect {
		mark = theme.Failed.Render("✗")
	}
	line := fmt.Sprintf("%s %d. %s", mark, n, ca.QuestionText)
	if !ca.IsCorrect && ca.CorrectAnswerText != nil {
		line += "\n     " + theme.Hint.Render("Correct answer: "+*ca.CorrectAnswerText)
	}
	return line
}

func (s *QuizScreen) renderFailed(width int, st qz.Status) string {
	reason := "unknown error"
	if st.Reason != nil {
		reason = st.Reason.Error()
	}
	body := theme.Failed.Render("Your answers could not be submitted.") + "\n" +
		theme.Hint.Render(reason) + "\n\n" +
		fmt.Sprintf("%d of %d answers are kept.", s.session.AnsweredCount(), len(s.quiz.Questions)) + "\n\n" +
		components.ButtonRow(
			components.Button{Key: "Enter", Label: "Try again", Active: true},
			components.Button{Key: "r", Label: "Start over"},
		)
	return theme.Card.Width(min(width-4, 70)).Render(body)
}

func center(width int, s string) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render("\n\n" + s)
}
