package export

import (
	"context"
	"path/filepath"

	"reelforge/internal/encoder"
	"reelforge/internal/logging"
	"reelforge/internal/media/ffprobe"
	"reelforge/internal/services"
)

// probeAudio allows tests to stub audio inspection.
var probeAudio = ffprobe.Inspect

// applyAudio mixes the timeline's audio elements into the rendered video.
// Elements whose sources fail validation are dropped with a logged reason
// rather than failing the export; with no valid audio the video passes
// through untouched.
func (e *Executor) applyAudio(ctx context.Context, audio []Source, videoPath, scratchDir string) (string, error) {
	inputs := e.validateAudio(ctx, audio)
	if len(inputs) == 0 {
		return videoPath, nil
	}

	mixed := filepath.Join(scratchDir, "mixed.mp4")
	args := encoder.MuxAudioArgs(videoPath, inputs, e.cfg.Export.AudioBitrate, mixed)
	if err := encoder.Run(ctx, e.cfg.FFmpegBinary(), args); err != nil {
		return "", err
	}
	return mixed, nil
}

func (e *Executor) validateAudio(ctx context.Context, audio []Source) []encoder.AudioInput {
	inputs := make([]encoder.AudioInput, 0, len(audio))
	for _, source := range audio {
		result, err := probeAudio(ctx, e.cfg.FFprobeBinary(), source.Path)
		if err != nil {
			e.dropAudio(source, services.Wrap(services.ErrAudioValidation, "export", "validate audio",
				"source could not be inspected", err))
			continue
		}
		if !result.HasAudioStream() {
			e.dropAudio(source, services.Wrap(services.ErrAudioValidation, "export", "validate audio",
				"source carries no audio stream", nil))
			continue
		}
		inputs = append(inputs, encoder.AudioInput{
			Path:     source.Path,
			Delay:    source.Element.StartTime,
			Seek:     source.Element.TrimStart,
			Duration: source.Element.EffectiveDuration(),
		})
	}
	return inputs
}

func (e *Executor) dropAudio(source Source, reason error) {
	e.logger.Warn("audio element dropped",
		logging.String("element_id", source.Element.ID),
		logging.String("media_id", source.Item.ID),
		logging.String(logging.FieldEventType, "audio_dropped"),
		logging.Error(reason),
	)
}
