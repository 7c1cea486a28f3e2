package plan

import (
	"context"
	"fmt"
	"math"

	"reelforge/internal/media/ffprobe"
	"reelforge/internal/timeline"
)

// Strategy identifies one of the mutually exclusive export execution paths.
type Strategy string

const (
	// StrategyDirectCopy concatenates untrimmed property-matching sources
	// with stream copy. No re-encoding.
	StrategyDirectCopy Strategy = "direct_copy"
	// StrategyNormalize re-encodes each source to the target properties
	// (applying trims) before a stream-copy concatenation pass.
	StrategyNormalize Strategy = "normalize"
	// StrategyFullReencode composites the timeline frame by frame.
	StrategyFullReencode Strategy = "full_reencode"
)

// Plan is the immutable outcome of timeline analysis. The executor must not
// override it.
type Plan struct {
	Strategy     Strategy
	TargetWidth  int
	TargetHeight int
	TargetFPS    int
	Reason       string
}

// SourceProbe carries the native properties of a path-backed video source.
type SourceProbe struct {
	Width  int
	Height int
	FPS    float64
	Codec  string
}

// ProbeSet maps media item IDs to their probed properties.
type ProbeSet map[string]SourceProbe

// probeFunc allows tests to stub ffprobe execution.
var probeFunc = ffprobe.Inspect

// ProbeCatalog inspects every path-backed video item in the catalog and
// returns the properties Analyze compares against the target. Items without
// a filesystem path are skipped; they can only be exported through the
// full re-encode path, which does not depend on native properties.
func ProbeCatalog(ctx context.Context, binary string, catalog timeline.Catalog) (ProbeSet, error) {
	probes := make(ProbeSet)
	for id, item := range catalog {
		if item.Type != timeline.MediaVideo || !item.HasPath() {
			continue
		}
		result, err := probeFunc(ctx, binary, item.Path)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", item.Path, err)
		}
		stream, ok := result.PrimaryVideoStream()
		if !ok {
			return nil, fmt.Errorf("probe %s: no video stream", item.Path)
		}
		probes[id] = SourceProbe{
			Width:  stream.Width,
			Height: stream.Height,
			FPS:    stream.FrameRate(),
			Codec:  stream.CodecName,
		}
	}
	return probes, nil
}

// fpsTolerance absorbs rational-rate rounding (29.97 vs 30000/1001).
const fpsTolerance = 0.05

func (p SourceProbe) matchesTarget(width, height, fps int) bool {
	return p.Width == width && p.Height == height && math.Abs(p.FPS-float64(fps)) <= fpsTolerance
}
