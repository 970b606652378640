package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathportal/internal/app"
	"github.com/abhisek/mathportal/internal/clock"
	lsn "github.com/abhisek/mathportal/internal/lesson"
	"github.com/abhisek/mathportal/internal/progress"
	"github.com/abhisek/mathportal/internal/screens/lesson"
)

var learnCmd = &cobra.Command{
	Use:   "learn <lesson-slug>",
	Short: "Open a lesson in the terminal UI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer env.Close()

		if !env.user.Authenticated() {
			env.log.Info().Msg("No token set; progress stays on this machine")
		}

		opts := app.Options{
			Slug: args[0],
			Lesson: lesson.Deps{
				Lessons:      env.lessonService(),
				Figures:      env.client,
				Quizzes:      env.quizService(),
				Cache:        progress.NewCache(env.storage, env.log),
				User:         env.user,
				Clock:        clock.Real(),
				Log:          env.log,
				SyncInterval: env.cfg.SyncInterval,
				Weights:      lsn.DefaultWeights,
			},
		}
		if err := app.Run(opts); err != nil {
			return fmt.Errorf("run lesson %s: %w", args[0], err)
		}
		return nil
	},
}
