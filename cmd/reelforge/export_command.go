package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/export"
	"reelforge/internal/preflight"
	"reelforge/internal/resources"
	"reelforge/internal/services"
	"reelforge/internal/sessions"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var quiet bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "export <timeline.yaml>",
		Short: "Render a timeline document to its output file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()
			out := cmd.OutOrStdout()

			if !skipPreflight {
				results := preflight.RunAll(cmd.Context(), cfg)
				if !preflight.AllPassed(results) {
					colorize := shouldColorize(out)
					for _, result := range results {
						if result.Passed {
							continue
						}
						fmt.Fprintln(out, renderStatusLine(result.Name, statusError, result.Detail, colorize))
					}
					return services.Wrap(services.ErrExternalTool, "cli", "preflight",
						"fix the problems above or rerun with --skip-preflight", nil)
				}
			}

			store, err := sessions.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session history: %w", err)
			}
			defer store.Close()

			manager := resources.NewManager(logger, time.Duration(cfg.Resources.HandleMaxAgeSeconds)*time.Second)
			go manager.RunSweeper(cmd.Context(), time.Duration(cfg.Resources.SweepIntervalSeconds)*time.Second)

			executor := export.NewExecutor(cfg, logger, store, manager)

			var lastLine string
			onEvent := func(ev export.Event) {
				if quiet {
					return
				}
				line := describeEvent(ev)
				if line == "" || line == lastLine {
					return
				}
				lastLine = line
				fmt.Fprintln(out, line)
			}

			result, err := executor.Export(cmd.Context(), args[0], onEvent)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Export complete: %s\n", result.OutputPath)
			fmt.Fprintf(out, "Strategy: %s  Session: %s\n", strategyLabel(string(result.Strategy)), result.SessionID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running readiness checks")
	return cmd
}

// describeEvent renders one progress line; encode progress is reduced to
// whole percents so the output doesn't scroll on every report.
func describeEvent(ev export.Event) string {
	switch ev.Phase {
	case sessions.PhasePreparing:
		return "Preparing sources..."
	case sessions.PhaseEncoding:
		if ev.Percent <= 0 {
			return "Encoding..."
		}
		return fmt.Sprintf("Encoding... %3.0f%%", ev.Percent)
	case sessions.PhaseFinalizing:
		return "Finalizing output..."
	default:
		return ""
	}
}
