package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathportal/internal/progress"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local progress cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached lessons for the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer env.Close()

		prefix := progress.CacheKey(env.user.ID, "")
		keys, err := env.storage.Keys(cmd.Context(), prefix)
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		if len(keys) == 0 {
			fmt.Println("No cached progress.")
			return nil
		}

		cache := progress.NewCache(env.storage, env.log)
		fmt.Printf("%-40s  %-8s  %-9s  %s\n", "Lesson", "Percent", "Sections", "Time")
		fmt.Println(strings.Repeat("─", 72))
		for _, k := range keys {
			slug := strings.TrimPrefix(k, prefix)
			st, ok := cache.Load(cmd.Context(), env.user.ID, slug)
			if !ok {
				fmt.Printf("%-40s  %s\n", truncate(slug, 40), "(unreadable)")
				continue
			}
			fmt.Printf("%-40s  %-8s  %-9d  %s\n",
				truncate(slug, 40),
				fmt.Sprintf("%d%%", st.Percent),
				len(st.Completed),
				formatSeconds(st.TimeSpent),
			)
		}
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <lesson-slug>",
	Short: "Print the cached entry for a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		key := progress.CacheKey(env.user.ID, args[0])
		raw, ok, err := env.storage.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			fmt.Printf("Nothing cached for %s.\n", args[0])
			return nil
		}

		fmt.Println("Key:", key)
		if ts, ok := env.storage.(interface {
			UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
		}); ok {
			if at, found, err := ts.UpdatedAt(ctx, key); err == nil && found {
				fmt.Println("Updated:", at.Local().Format("2006-01-02 15:04:05"))
			}
		}
		if _, valid := progress.NewCache(env.storage, env.log).Load(ctx, env.user.ID, args[0]); !valid {
			fmt.Println("Status: unreadable, it will be ignored on the next load")
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			fmt.Println(string(raw))
			return nil
		}
		fmt.Println(pretty.String())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <lesson-slug>",
	Short: "Remove the cached entry for a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer env.Close()

		key := progress.CacheKey(env.user.ID, args[0])
		if err := env.storage.Delete(cmd.Context(), key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		fmt.Printf("Cleared %s.\n", key)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
