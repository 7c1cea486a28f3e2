package plan

import (
	"fmt"
	"sort"

	"reelforge/internal/services"
	"reelforge/internal/timeline"
)

// Analyze inspects the timeline and selects the export strategy. The
// fallback target supplies hard-default properties used only when neither
// the timeline document nor the first video's native properties provide
// them; when that happens the plan's Reason says so, and the caller should
// log it.
func Analyze(tl *timeline.Timeline, probes ProbeSet, fallback timeline.Target) (Plan, error) {
	visible := tl.VisibleElements()

	var videos []timeline.Element
	compositing := ""
	for _, el := range visible {
		switch el.Kind {
		case timeline.KindText, timeline.KindSticker, timeline.KindCaption:
			compositing = firstNonEmpty(compositing, fmt.Sprintf("%s element %s requires compositing", el.Kind, el.ID))
			continue
		case timeline.KindMedia:
		default:
			continue
		}

		item, ok := tl.Catalog.Lookup(el.MediaID)
		if !ok {
			// Timeline validation rejects dangling references before analysis.
			return Plan{}, services.Wrap(services.ErrInvalidExportConfiguration, "analyzer", "scan", fmt.Sprintf("element %s references unknown media", el.ID), nil)
		}
		switch item.Type {
		case timeline.MediaImage:
			compositing = firstNonEmpty(compositing, fmt.Sprintf("image element %s requires compositing", el.ID))
		case timeline.MediaAudio:
			// Audio is resolved independently of the video strategy.
		case timeline.MediaVideo:
			for _, fxID := range el.EffectIDs {
				if tl.EffectEnabled(fxID) {
					compositing = firstNonEmpty(compositing, fmt.Sprintf("element %s has enabled effect %s", el.ID, fxID))
				}
			}
			videos = append(videos, el)
		}
	}

	if len(videos) == 0 {
		return Plan{}, services.Wrap(services.ErrNoRenderableContent, "analyzer", "scan", "timeline has no visible video elements", nil)
	}

	sort.SliceStable(videos, func(i, j int) bool { return videos[i].StartTime < videos[j].StartTime })

	if compositing == "" {
		for i := 1; i < len(videos); i++ {
			if videos[i-1].Overlaps(videos[i]) {
				compositing = fmt.Sprintf("elements %s and %s overlap on the timeline", videos[i-1].ID, videos[i].ID)
				break
			}
		}
	}

	target, targetNote := resolveTarget(tl, videos, probes, fallback)

	if compositing != "" {
		return Plan{
			Strategy:     StrategyFullReencode,
			TargetWidth:  target.Width,
			TargetHeight: target.Height,
			TargetFPS:    target.FPS,
			Reason:       withNote(compositing, targetNote),
		}, nil
	}

	// Video-only, sequential timeline from here on.
	for _, el := range videos {
		item, _ := tl.Catalog.Lookup(el.MediaID)
		if !item.HasPath() {
			return Plan{
				Strategy:     StrategyFullReencode,
				TargetWidth:  target.Width,
				TargetHeight: target.Height,
				TargetFPS:    target.FPS,
				Reason:       withNote(fmt.Sprintf("source %s has no filesystem path; stream-copy and demux strategies require file-resident inputs", el.MediaID), targetNote),
			}, nil
		}
	}

	allMatch := true
	mismatch := ""
	baseCodec := ""
	for _, el := range videos {
		probe, ok := probes[el.MediaID]
		if !ok {
			allMatch = false
			mismatch = fmt.Sprintf("source %s has no probe data", el.MediaID)
			break
		}
		if baseCodec == "" {
			baseCodec = probe.Codec
		}
		if !probe.matchesTarget(target.Width, target.Height, target.FPS) {
			allMatch = false
			mismatch = fmt.Sprintf("source %s is %dx%d@%.3g, target is %dx%d@%d", el.MediaID, probe.Width, probe.Height, probe.FPS, target.Width, target.Height, target.FPS)
			break
		}
		if probe.Codec != baseCodec {
			allMatch = false
			mismatch = fmt.Sprintf("source %s codec %s differs from %s", el.MediaID, probe.Codec, baseCodec)
			break
		}
	}

	// The concat demuxer has no per-input trim capability, so a trimmed
	// source may never reach a multi-source stream-copy pass. A single
	// trimmed source is still eligible: its trim is applied directly via
	// seek and duration flags, with no concatenation involved.
	trimmed := false
	for _, el := range videos {
		if el.Trimmed() {
			trimmed = true
			break
		}
	}
	trimBlocksCopy := trimmed && len(videos) > 1

	switch {
	case allMatch && !trimBlocksCopy:
		reason := "all sources match target properties with no trims to concatenate"
		if trimmed {
			reason = "single source matches target properties; trim applied via seek without concatenation"
		}
		return Plan{
			Strategy:     StrategyDirectCopy,
			TargetWidth:  target.Width,
			TargetHeight: target.Height,
			TargetFPS:    target.FPS,
			Reason:       withNote(reason, targetNote),
		}, nil
	case !allMatch || trimBlocksCopy:
		reason := mismatch
		if reason == "" {
			reason = "trimmed sources require an explicit re-encode pass before concatenation"
		}
		return Plan{
			Strategy:     StrategyNormalize,
			TargetWidth:  target.Width,
			TargetHeight: target.Height,
			TargetFPS:    target.FPS,
			Reason:       withNote(reason, targetNote),
		}, nil
	default:
		// Unreachable if the branches above are exhaustive. Kept as an
		// explicit guard so a decision-tree gap surfaces as a classified
		// failure instead of a silent fallback.
		return Plan{}, services.Wrap(services.ErrInvalidExportConfiguration, "analyzer", "decide",
			fmt.Sprintf("no strategy matched: videos=%d trimmed=%v allMatch=%v", len(videos), trimmed, allMatch), nil)
	}
}

// resolveTarget applies the property precedence: explicit document settings,
// then the first video's native properties, then the configured hard
// default. The returned note is non-empty when the hard default was used.
func resolveTarget(tl *timeline.Timeline, videos []timeline.Element, probes ProbeSet, fallback timeline.Target) (timeline.Target, string) {
	if tl.Target.Specified() {
		return tl.Target, ""
	}

	for _, el := range videos {
		probe, ok := probes[el.MediaID]
		if !ok || probe.Width <= 0 || probe.Height <= 0 || probe.FPS <= 0 {
			continue
		}
		resolved := tl.Target
		resolved.Width = probe.Width
		resolved.Height = probe.Height
		resolved.FPS = roundFPS(probe.FPS)
		return resolved, ""
	}

	resolved := tl.Target
	resolved.Width = fallback.Width
	resolved.Height = fallback.Height
	resolved.FPS = fallback.FPS
	return resolved, fmt.Sprintf("no explicit or native target properties; defaulted to %dx%d@%d", resolved.Width, resolved.Height, resolved.FPS)
}

func roundFPS(fps float64) int {
	rounded := int(fps + 0.5)
	if rounded < 1 {
		return 1
	}
	return rounded
}

func firstNonEmpty(current, candidate string) string {
	if current != "" {
		return current
	}
	return candidate
}

func withNote(reason, note string) string {
	if note == "" {
		return reason
	}
	return reason + " (" + note + ")"
}
