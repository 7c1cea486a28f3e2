package encoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"reelforge/internal/services"
)

// stderrTailLimit bounds how much captured tool output ends up inside the
// returned error.
const stderrTailLimit = 2048

// Progress is one decoded progress report from a running encode.
type Progress struct {
	OutTimeSeconds float64
	Speed          string
	Done           bool
}

// Run executes the external encoder with the given argument vector and waits
// for it to finish. Stderr is captured and its tail is folded into the error
// on failure, since ffmpeg reports everything useful there.
func Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return invocationError(binary, stderr.Bytes(), err)
	}
	return nil
}

// RunWithProgress behaves like Run but asks the tool for machine-readable
// progress on stdout and invokes onProgress for each report. onProgress may
// be nil. Parse failures on individual progress lines are ignored; progress
// is advisory and never fails an export.
func RunWithProgress(ctx context.Context, binary string, args []string, onProgress func(Progress)) error {
	full := make([]string, 0, len(args)+3)
	full = append(full, "-progress", "pipe:1", "-nostats")
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, binary, full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return invocationError(binary, nil, err)
	}
	if err := cmd.Start(); err != nil {
		return invocationError(binary, nil, err)
	}

	scanner := bufio.NewScanner(stdout)
	var current Progress
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				current.OutTimeSeconds = float64(us) / 1e6
			}
		case "speed":
			current.Speed = value
		case "progress":
			current.Done = value == "end"
			if onProgress != nil {
				onProgress(current)
			}
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return invocationError(binary, stderr.Bytes(), err)
	}
	return nil
}

func invocationError(binary string, stderr []byte, err error) error {
	detail := err
	if tail := stderrTail(stderr); tail != "" {
		detail = fmt.Errorf("%w: %s", err, tail)
	}
	return services.Wrap(services.ErrProcessInvocation, "encoder", "run "+binary,
		"inspect the captured tool output", detail)
}

func stderrTail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > stderrTailLimit {
		text = text[len(text)-stderrTailLimit:]
	}
	return text
}
