package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathportal/internal/quiz"
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts <lesson-slug>",
	Short: "Show your quiz attempts for a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer env.Close()
		if !env.user.Authenticated() {
			return errors.New("attempts need a signed-in user: set MATHPORTAL_TOKEN")
		}

		ctx := cmd.Context()
		snap, err := env.client.GetLessonWithProgress(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get lesson %s: %w", args[0], err)
		}
		q, err := env.client.GetQuizForLesson(ctx, snap.Lesson.ID)
		if errors.Is(err, quiz.ErrNoQuiz) {
			fmt.Printf("%s has no quiz.\n", snap.Lesson.Title)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get quiz: %w", err)
		}

		records, err := quiz.NewHistory(env.client).List(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}

		fmt.Printf("%s (passing score %.0f%%)\n\n", q.Title, q.PassingScore)
		if len(records) == 0 {
			fmt.Println("No attempts yet.")
			return nil
		}

		fmt.Printf("%-6s  %-19s  %-7s  %-9s  %-7s  %s\n",
			"ID", "Submitted", "Score", "Points", "Time", "Result")
		fmt.Println(strings.Repeat("─", 70))
		for _, r := range records {
			submitted := "-"
			if !r.SubmittedAt.IsZero() {
				submitted = r.SubmittedAt.Local().Format("2006-01-02 15:04:05")
			}
			result := "✗"
			if q.Passed(r.Score) {
				result = "✓"
			}
			fmt.Printf("%-6d  %-19s  %-7s  %-9s  %-7s  %s\n",
				r.ID,
				submitted,
				fmt.Sprintf("%.0f%%", r.Score),
				fmt.Sprintf("%g/%g", r.PointsEarned, r.TotalPoints),
				formatSeconds(r.TimeSpent),
				result,
			)
		}

		sum := quiz.Summarize(q, records)
		fmt.Println()
		fmt.Printf("Attempts: %d  Passed: %d  Failed: %d", sum.Attempts, sum.Passed, sum.Failed)
		if sum.Best != nil {
			fmt.Printf("  Best: %.0f%%", sum.Best.Score)
		}
		fmt.Println()
		return nil
	},
}

func formatSeconds(s int) string {
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
