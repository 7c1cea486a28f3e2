package encoder

import (
	"fmt"
	"strconv"
	"strings"
)

// VideoLayer is one visual input composited onto the canvas. Start is the
// timeline offset where the layer appears; Seek and Duration trim the source
// itself. Loop marks a still image promoted to a timed video layer.
type VideoLayer struct {
	Path     string
	Start    float64
	Seek     float64
	Duration float64
	Loop     bool
}

// TextLayer is a rendered caption or text element.
type TextLayer struct {
	Text     string
	Start    float64
	Duration float64
}

// CompositeSpec describes one filter-graph render covering the whole
// timeline: a black canvas at the target properties, visual layers overlaid
// in track order, then text drawn on top. Audio is handled by a separate mux
// pass.
type CompositeSpec struct {
	Target   Target
	Duration float64
	Layers   []VideoLayer
	Text     []TextLayer
	Output   string
}

// CompositeArgs builds the single filter_complex invocation that renders the
// spec. Every layer is scaled and padded to the canvas, shifted to its
// timeline start, and overlaid with an enable window so it only contributes
// during its own interval.
func CompositeArgs(spec CompositeSpec) []string {
	args := preamble()
	for _, layer := range spec.Layers {
		if layer.Loop {
			args = append(args, "-loop", "1")
			if layer.Duration > 0 {
				args = append(args, "-t", formatSeconds(layer.Duration))
			}
			args = append(args, "-i", layer.Path)
			continue
		}
		args = appendClipInput(args, Clip{Path: layer.Path, Seek: layer.Seek, Duration: layer.Duration})
	}

	var graph strings.Builder
	fmt.Fprintf(&graph, "color=c=black:s=%dx%d:r=%d:d=%s[base]",
		spec.Target.Width, spec.Target.Height, spec.Target.FPS, formatSeconds(spec.Duration))

	current := "base"
	for i, layer := range spec.Layers {
		scaled := fmt.Sprintf("l%d", i)
		next := fmt.Sprintf("v%d", i)
		fmt.Fprintf(&graph, ";[%d:v]%s,setpts=PTS-STARTPTS+%s/TB[%s]",
			i, scalePadFilter(spec.Target), formatSeconds(layer.Start), scaled)
		end := layer.Start + layer.Duration
		fmt.Fprintf(&graph, ";[%s][%s]overlay=eof_action=pass:enable='between(t,%s,%s)'[%s]",
			current, scaled, formatSeconds(layer.Start), formatSeconds(end), next)
		current = next
	}
	for i, text := range spec.Text {
		next := fmt.Sprintf("t%d", i)
		end := text.Start + text.Duration
		fmt.Fprintf(&graph, ";[%s]drawtext=text='%s':fontcolor=white:fontsize=%d:"+
			"x=(w-text_w)/2:y=h-(text_h*2):enable='between(t,%s,%s)'[%s]",
			current, escapeDrawtext(text.Text), spec.Target.Height/18,
			formatSeconds(text.Start), formatSeconds(end), next)
		current = next
	}

	args = append(args,
		"-filter_complex", graph.String(),
		"-map", "["+current+"]",
		"-t", formatSeconds(spec.Duration),
		"-r", strconv.Itoa(spec.Target.FPS),
		"-c:v", "libx264",
		"-crf", strconv.Itoa(spec.Target.CRF),
		"-preset", spec.Target.Preset,
		"-pix_fmt", "yuv420p",
		"-an",
		spec.Output,
	)
	return args
}

// escapeDrawtext quotes the characters the drawtext filter treats as syntax.
// The text already sits inside single quotes in the graph, so embedded quotes
// are closed, escaped, and reopened.
func escapeDrawtext(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '\'':
			b.WriteString(`'\''`)
		case ':', '\\', '%':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
