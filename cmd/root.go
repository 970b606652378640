package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/mathportal/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "mathportal",
	Short:         "Terminal client for the math portal",
	Long:          "mathportal: work through geometry lessons and quizzes from the terminal, with progress kept in sync with the portal.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MATHPORTAL_DB env var)")
	rootCmd.PersistentFlags().String("cache", "", "Progress cache backend: sqlite, redis or memory (overrides MATHPORTAL_CACHE)")
	rootCmd.PersistentFlags().String("api", "", "Portal API base URL (overrides MATHPORTAL_API_URL)")

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then MATHPORTAL_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
