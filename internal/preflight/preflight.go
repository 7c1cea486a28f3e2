package preflight

import (
	"context"

	"reelforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minTempSpaceBytes is the least free scratch space an export may start
// with. Normalization and compositing write intermediate files that easily
// reach several gigabytes.
const minTempSpaceBytes = 2 << 30

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckTool(ctx, "FFmpeg", cfg.FFmpegBinary()))
	results = append(results, CheckTool(ctx, "FFprobe", cfg.FFprobeBinary()))
	results = append(results, CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckFreeSpace("Temp free space", cfg.Paths.TempDir, minTempSpaceBytes))
	return results
}

// AllPassed reports whether every check in results passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
