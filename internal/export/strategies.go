package export

import (
	"context"
	"fmt"
	"path/filepath"

	"reelforge/internal/config"
	"reelforge/internal/encoder"
	"reelforge/internal/plan"
	"reelforge/internal/services"
	"reelforge/internal/timeline"
)

func encoderTarget(exportPlan plan.Plan, cfg *config.Config) encoder.Target {
	return encoder.Target{
		Width:  exportPlan.TargetWidth,
		Height: exportPlan.TargetHeight,
		FPS:    exportPlan.TargetFPS,
		CRF:    cfg.Export.CRF,
		Preset: cfg.Export.Preset,
	}
}

func clipFor(source Source) encoder.Clip {
	clip := encoder.Clip{Path: source.Path}
	if source.Element.Trimmed() {
		clip.Seek = source.Element.TrimStart
		clip.Duration = source.Element.EffectiveDuration()
	}
	return clip
}

// runDirectCopy concatenates untrimmed sources with stream copy. The single
// source case applies any trim via seek and duration on that one input; the
// multi-source case writes a concat list, which by construction never sees a
// trimmed source.
func (e *Executor) runDirectCopy(ctx context.Context, videos []Source, scratchDir, output string) error {
	if len(videos) == 0 {
		return services.Wrap(services.ErrNoRenderableContent, "export", "direct copy",
			"analysis selected a copy strategy for an empty timeline", nil)
	}

	binary := e.cfg.FFmpegBinary()
	if len(videos) == 1 {
		return encoder.Run(ctx, binary, encoder.CopyClipArgs(clipFor(videos[0]), output))
	}

	paths := make([]string, 0, len(videos))
	for _, video := range videos {
		if video.Element.Trimmed() {
			return services.Wrap(services.ErrInvalidExportConfiguration, "export", "direct copy",
				fmt.Sprintf("element %s is trimmed and cannot be stream copied alongside others", video.Element.ID), nil)
		}
		paths = append(paths, video.Path)
	}
	listPath := filepath.Join(scratchDir, "concat.txt")
	if err := encoder.WriteConcatList(listPath, paths); err != nil {
		return err
	}
	return encoder.Run(ctx, binary, encoder.ConcatCopyArgs(listPath, output))
}

// runNormalize re-encodes every source to the target properties, applying
// trims in the same pass, then stream-copies the normalized files together.
func (e *Executor) runNormalize(ctx context.Context, videos []Source, target encoder.Target, scratchDir, output string, progress func(percent float64, message string)) error {
	if len(videos) == 0 {
		return services.Wrap(services.ErrNoRenderableContent, "export", "normalize",
			"analysis selected normalization for an empty timeline", nil)
	}

	binary := e.cfg.FFmpegBinary()
	var total float64
	for _, video := range videos {
		total += video.Element.EffectiveDuration()
	}

	normalized := make([]string, 0, len(videos))
	var completed float64
	for i, video := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		passOutput := filepath.Join(scratchDir, fmt.Sprintf("normalized-%03d.mp4", i))
		args := encoder.NormalizeArgs(clipFor(video), target, e.cfg.Export.AudioBitrate, passOutput)
		message := fmt.Sprintf("normalizing %d of %d", i+1, len(videos))
		err := encoder.RunWithProgress(ctx, binary, args, func(p encoder.Progress) {
			if progress != nil && total > 0 {
				progress(clampPercent((completed+p.OutTimeSeconds)/total*100), message)
			}
		})
		if err != nil {
			return err
		}
		completed += video.Element.EffectiveDuration()
		normalized = append(normalized, passOutput)
	}

	if len(normalized) == 1 {
		return encoder.Run(ctx, binary, encoder.CopyClipArgs(encoder.Clip{Path: normalized[0]}, output))
	}
	listPath := filepath.Join(scratchDir, "concat.txt")
	if err := encoder.WriteConcatList(listPath, normalized); err != nil {
		return err
	}
	return encoder.Run(ctx, binary, encoder.ConcatCopyArgs(listPath, output))
}

// runFullReencode renders the whole timeline as one composite: visual
// layers overlaid in track order on a canvas at the target properties, text
// elements drawn on top.
func (e *Executor) runFullReencode(ctx context.Context, tl *timeline.Timeline, prepared *PreparedSources, target encoder.Target, output string, progress func(percent float64, message string)) error {
	duration := timelineDuration(tl)
	if duration <= 0 {
		return services.Wrap(services.ErrNoRenderableContent, "export", "composite",
			"timeline has no visible content to render", nil)
	}

	spec := encoder.CompositeSpec{
		Target:   target,
		Duration: duration,
		Output:   output,
	}
	for _, source := range prepared.Sources {
		switch source.Item.Type {
		case timeline.MediaVideo, timeline.MediaImage:
			spec.Layers = append(spec.Layers, encoder.VideoLayer{
				Path:     source.Path,
				Start:    source.Element.StartTime,
				Seek:     source.Element.TrimStart,
				Duration: source.Element.EffectiveDuration(),
				Loop:     source.Item.Type == timeline.MediaImage,
			})
		}
	}
	for _, element := range tl.VisibleElements() {
		if element.Kind != timeline.KindText && element.Kind != timeline.KindCaption {
			continue
		}
		spec.Text = append(spec.Text, encoder.TextLayer{
			Text:     element.Text,
			Start:    element.StartTime,
			Duration: element.EffectiveDuration(),
		})
	}

	return encoder.RunWithProgress(ctx, e.cfg.FFmpegBinary(), encoder.CompositeArgs(spec), func(p encoder.Progress) {
		if progress != nil {
			progress(clampPercent(p.OutTimeSeconds/duration*100), "compositing")
		}
	})
}

func timelineDuration(tl *timeline.Timeline) float64 {
	var end float64
	for _, element := range tl.VisibleElements() {
		if element.End() > end {
			end = element.End()
		}
	}
	return end
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
