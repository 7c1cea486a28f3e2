package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/sessions"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded export sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := sessions.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session history: %w", err)
			}
			defer store.Close()

			listed, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, listed)
			}

			out := cmd.OutOrStdout()
			if len(listed) == 0 {
				fmt.Fprintln(out, "No export sessions recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(listed))
			for _, session := range listed {
				rows = append(rows, []string{
					session.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					strategyLabel(string(session.Phase)),
					strategyLabel(session.Strategy),
					fmt.Sprintf("%.0f%%", session.ProgressPercent),
					sessionDuration(session),
					filepath.Base(session.TimelinePath),
					sessionOutcome(session),
				})
			}
			headers := []string{"Started", "Phase", "Strategy", "Progress", "Took", "Timeline", "Outcome"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit sessions as JSON")
	return cmd
}

func sessionDuration(session *sessions.Session) string {
	if session.CompletedAt == nil {
		return "-"
	}
	took := session.CompletedAt.Sub(session.CreatedAt)
	if took < 0 {
		return "-"
	}
	return took.Round(time.Second).String()
}

func sessionOutcome(session *sessions.Session) string {
	switch session.Phase {
	case sessions.PhaseCompleted:
		return session.OutputPath
	case sessions.PhaseFailed:
		return session.ErrorMessage
	default:
		return session.ProgressMessage
	}
}
