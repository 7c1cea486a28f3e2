package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelforge/internal/plan"
	"reelforge/internal/timeline"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan <timeline.yaml>",
		Short: "Analyze a timeline and report the export strategy without encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			tl, err := timeline.LoadFile(args[0])
			if err != nil {
				return err
			}

			probes, err := plan.ProbeCatalog(cmd.Context(), cfg.FFprobeBinary(), tl.Catalog)
			if err != nil {
				return err
			}

			fallback := timeline.Target{
				Width:  cfg.Export.Width,
				Height: cfg.Export.Height,
				FPS:    cfg.Export.FPS,
			}
			result, err := plan.Analyze(tl, probes, fallback)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Strategy: %s\n", strategyLabel(string(result.Strategy)))
			fmt.Fprintf(out, "Target:   %dx%d @ %d fps\n", result.TargetWidth, result.TargetHeight, result.TargetFPS)
			fmt.Fprintf(out, "Reason:   %s\n", result.Reason)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the plan as JSON")
	return cmd
}

// strategyLabel turns a snake_case strategy name into a display label.
func strategyLabel(strategy string) string {
	words := strings.ReplaceAll(strategy, "_", " ")
	return cases.Title(language.Und).String(words)
}
