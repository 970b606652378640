package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathportal/internal/lesson"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List published lessons",
	Long:  "List published lessons. When signed in, progress is shown next to each lesson.",
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetInt("grade")

		env, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		var rows []lesson.Summary
		withProgress := env.user.Authenticated() && grade == 0
		if withProgress {
			rows, err = env.client.ListMyLessons(ctx)
		} else {
			rows, err = env.client.ListPublished(ctx, grade)
		}
		if err != nil {
			return fmt.Errorf("list lessons: %w", err)
		}

		if len(rows) == 0 {
			fmt.Println("No lessons found.")
			return nil
		}

		fmt.Printf("%-5s  %-28s  %-36s  %-5s  %-6s  %s\n",
			"ID", "Slug", "Title", "Grade", "Min", "Progress")
		fmt.Println(strings.Repeat("─", 96))
		for _, l := range rows {
			prog := "-"
			if withProgress {
				prog = fmt.Sprintf("%3.0f%%", l.Progress)
				if l.IsCompleted {
					prog += " ✓"
				}
			}
			fmt.Printf("%-5d  %-28s  %-36s  %-5d  %-6d  %s\n",
				l.ID, truncate(l.Slug, 28), truncate(l.Title, 36), l.Grade, l.Duration, prog)
		}
		return nil
	},
}

func init() {
	lessonsCmd.Flags().Int("grade", 0, "Only list lessons for this grade")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
