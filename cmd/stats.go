package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathportal/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show sync and submission statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kind, _ := cmd.Flags().GetString("kind")

		env, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		events := env.store.EventRepo()
		st, err := events.SyncStats(ctx)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		fmt.Printf("Progress syncs:    %d ok, %d failed\n", st.SyncOK, st.SyncFailed)
		fmt.Printf("Quiz submissions:  %d ok, %d failed\n", st.SubmitOK, st.SubmitFailed)
		if st.LastSyncError != nil {
			var d store.SyncEventData
			_ = json.Unmarshal(st.LastSyncError.Data, &d)
			fmt.Printf("Last sync error:   %s (%s) %s\n",
				st.LastSyncError.Timestamp.Local().Format("2006-01-02 15:04:05"),
				st.LastSyncError.Subject,
				d.Error,
			)
		}

		recent, err := events.Recent(ctx, store.QueryOpts{Limit: limit, Kind: kind})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(recent) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Printf("%-5s  %-19s  %-13s  %-28s  %-7s  %s\n",
			"ID", "Timestamp", "Kind", "Subject", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 90))
		for _, e := range recent {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Printf("%-5d  %-19s  %-13s  %-28s  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Kind,
				truncate(e.Subject, 28),
				latencyOf(e),
				ok,
			)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("limit", 20, "Number of recent events to show")
	statsCmd.Flags().String("kind", "", "Only show events of this kind (progress_sync, quiz_submit)")
}

// latencyOf reads latency_ms from either payload shape.
func latencyOf(e store.Event) int64 {
	var d struct {
		LatencyMs int64 `json:"latency_ms"`
	}
	_ = json.Unmarshal(e.Data, &d)
	return d.LatencyMs
}
