package encoder

import (
	"fmt"
	"strconv"
	"strings"
)

// Clip identifies a section of a source file to feed the encoder. Seek is
// applied before the input so ffmpeg performs a fast keyframe seek; Duration
// of zero means "to the end of the source".
type Clip struct {
	Path     string
	Seek     float64
	Duration float64
}

// Target carries the output properties every encode pass aims for.
type Target struct {
	Width  int
	Height int
	FPS    int
	CRF    int
	Preset string
}

// AudioInput is a validated audio file scheduled at a timeline offset.
type AudioInput struct {
	Path     string
	Delay    float64
	Seek     float64
	Duration float64
}

// preamble returns the shared flags every invocation starts with.
func preamble() []string {
	return []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func appendClipInput(args []string, clip Clip) []string {
	if clip.Seek > 0 {
		args = append(args, "-ss", formatSeconds(clip.Seek))
	}
	if clip.Duration > 0 {
		args = append(args, "-t", formatSeconds(clip.Duration))
	}
	return append(args, "-i", clip.Path)
}

// CopyClipArgs builds the single-source stream-copy invocation. The trim,
// when present, is applied via seek and duration on the one source; no
// concatenation is involved, so the copy restriction on trimmed inputs does
// not apply here.
func CopyClipArgs(clip Clip, output string) []string {
	args := preamble()
	args = appendClipInput(args, clip)
	args = append(args, "-c", "copy", "-avoid_negative_ts", "make_zero", output)
	return args
}

// ConcatCopyArgs builds the concat demuxer stream-copy invocation over a
// prepared input list. Every listed file must already be untrimmed and
// property-matching; the demuxer has no per-input trim capability.
func ConcatCopyArgs(listPath, output string) []string {
	args := preamble()
	args = append(args,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	)
	return args
}

// NormalizeArgs builds one normalization pass: seek and duration apply the
// trim, the filter chain scales and pads to the target canvas and retimes to
// the target rate, and audio is re-encoded so every normalized file carries
// an identical stream layout for the later concat pass.
func NormalizeArgs(clip Clip, target Target, audioBitrate, output string) []string {
	args := preamble()
	args = appendClipInput(args, clip)
	args = append(args,
		"-vf", scalePadFilter(target)+",fps="+strconv.Itoa(target.FPS),
		"-c:v", "libx264",
		"-crf", strconv.Itoa(target.CRF),
		"-preset", target.Preset,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-ar", "48000",
		"-ac", "2",
		output,
	)
	return args
}

// MuxAudioArgs replaces the video file's audio with the mixed, delayed
// timeline audio tracks, stream-copying the video. With a single input the
// mix collapses to a delay filter.
func MuxAudioArgs(videoPath string, audio []AudioInput, audioBitrate, output string) []string {
	args := preamble()
	args = append(args, "-i", videoPath)
	for _, in := range audio {
		clip := Clip{Path: in.Path, Seek: in.Seek, Duration: in.Duration}
		args = appendClipInput(args, clip)
	}

	var graph strings.Builder
	labels := make([]string, 0, len(audio))
	for i, in := range audio {
		label := fmt.Sprintf("a%d", i)
		delayMS := int(in.Delay * 1000)
		fmt.Fprintf(&graph, "[%d:a]adelay=%d:all=1[%s];", i+1, delayMS, label)
		labels = append(labels, "["+label+"]")
	}
	if len(audio) == 1 {
		graph.WriteString(labels[0] + "anull[aout]")
	} else {
		fmt.Fprintf(&graph, "%samix=inputs=%d:normalize=0[aout]", strings.Join(labels, ""), len(audio))
	}

	args = append(args,
		"-filter_complex", graph.String(),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		output,
	)
	return args
}

// StripAudioArgs produces a silent copy of the video stream. Used when every
// timeline audio element failed validation: the export still succeeds, just
// without sound.
func StripAudioArgs(videoPath, output string) []string {
	args := preamble()
	args = append(args, "-i", videoPath, "-map", "0:v", "-c:v", "copy", "-an", output)
	return args
}

func scalePadFilter(target Target) string {
	w := strconv.Itoa(target.Width)
	h := strconv.Itoa(target.Height)
	return "scale=" + w + ":" + h + ":force_original_aspect_ratio=decrease," +
		"pad=" + w + ":" + h + ":(ow-iw)/2:(oh-ih)/2"
}
