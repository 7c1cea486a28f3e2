package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/plan"
	"reelforge/internal/resources"
	"reelforge/internal/services"
	"reelforge/internal/sessions"
	"reelforge/internal/testsupport"
)

const probeJSON = `{"format":{"duration":"10.0"},"streams":[` +
	`{"codec_type":"video","codec_name":"h264","width":1920,"height":1080,` +
	`"avg_frame_rate":"30/1","r_frame_rate":"30/1"},` +
	`{"codec_type":"audio","codec_name":"aac"}]}`

// stubTools writes fake ffmpeg/ffprobe binaries into the config. The ffmpeg
// stub creates its last argument so downstream stages find their input; the
// ffprobe stub reports a fixed 1920x1080 30fps h264 file with audio.
func stubTools(t *testing.T, cfg *config.Config, ffmpegScript string) {
	t.Helper()
	binDir := t.TempDir()

	if ffmpegScript == "" {
		ffmpegScript = "for last; do :; done\n: > \"$last\"\nexit 0\n"
	}
	ffmpeg := filepath.Join(binDir, "ffmpeg")
	if err := os.WriteFile(ffmpeg, []byte("#!/bin/sh\n"+ffmpegScript), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}

	ffprobe := filepath.Join(binDir, "ffprobe")
	script := "#!/bin/sh\ncat <<'EOF'\n" + probeJSON + "\nEOF\n"
	if err := os.WriteFile(ffprobe, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}

	cfg.Tools.FFmpeg = ffmpeg
	cfg.Tools.FFprobe = ffprobe
}

func writeClips(t *testing.T, names ...string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	paths := make(map[string]string, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, 128)
		paths[name] = path
	}
	return paths
}

func newExecutorFixture(t *testing.T, ffmpegScript string) (*Executor, *config.Config, *sessions.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	stubTools(t, cfg, ffmpegScript)
	store := testsupport.MustOpenStore(t, cfg)
	manager := resources.NewManager(logging.NewNop(), time.Minute)
	return NewExecutor(cfg, logging.NewNop(), store, manager), cfg, store
}

func sequentialTimeline(t *testing.T, cfg *config.Config, clips map[string]string) string {
	t.Helper()
	output := filepath.Join(cfg.Paths.OutputDir, "final.mp4")
	return testsupport.WriteTimeline(t, `
output: `+output+`
media:
  - id: a
    type: video
    path: `+clips["a.mp4"]+`
  - id: b
    type: video
    path: `+clips["b.mp4"]+`
tracks:
  - id: main
    elements:
      - id: e1
        kind: media
        media: a
        start: 0
        duration: 5
      - id: e2
        kind: media
        media: b
        start: 5
        duration: 5
`)
}

func TestExportDirectCopyEndToEnd(t *testing.T) {
	exec, cfg, store := newExecutorFixture(t, "")
	clips := writeClips(t, "a.mp4", "b.mp4")
	timelinePath := sequentialTimeline(t, cfg, clips)

	var phases []sessions.Phase
	result, err := exec.Export(context.Background(), timelinePath, func(ev Event) {
		if len(phases) == 0 || phases[len(phases)-1] != ev.Phase {
			phases = append(phases, ev.Phase)
		}
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if result.Strategy != plan.StrategyDirectCopy {
		t.Fatalf("strategy = %q, want direct copy", result.Strategy)
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Fatalf("output missing: %v", err)
	}

	want := []sessions.Phase{
		sessions.PhasePreparing,
		sessions.PhaseEncoding,
		sessions.PhaseFinalizing,
		sessions.PhaseCompleted,
	}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
	}

	session, err := store.GetByID(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if session.Phase != sessions.PhaseCompleted {
		t.Fatalf("session phase = %q", session.Phase)
	}
	if session.Strategy != string(plan.StrategyDirectCopy) {
		t.Fatalf("session strategy = %q", session.Strategy)
	}
	if session.OutputPath != result.OutputPath {
		t.Fatalf("session output = %q, want %q", session.OutputPath, result.OutputPath)
	}
}

func TestExportCleansScratchDirectory(t *testing.T) {
	exec, cfg, _ := newExecutorFixture(t, "")
	clips := writeClips(t, "a.mp4", "b.mp4")
	timelinePath := sequentialTimeline(t, cfg, clips)

	result, err := exec.Export(context.Background(), timelinePath, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	scratch := filepath.Join(cfg.Paths.TempDir, "session-"+result.SessionID)
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Fatalf("scratch dir should be removed, stat err = %v", err)
	}
}

func TestExportEncoderFailureMarksSessionFailed(t *testing.T) {
	exec, cfg, store := newExecutorFixture(t, "echo 'muxer rejected input' >&2\nexit 1\n")
	clips := writeClips(t, "a.mp4", "b.mp4")
	timelinePath := sequentialTimeline(t, cfg, clips)

	_, err := exec.Export(context.Background(), timelinePath, nil)
	if !errors.Is(err, services.ErrProcessInvocation) {
		t.Fatalf("expected process invocation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "muxer rejected input") {
		t.Fatalf("error should carry encoder stderr: %v", err)
	}

	listed, listErr := store.List(context.Background(), 1)
	if listErr != nil || len(listed) != 1 {
		t.Fatalf("List: %v (%d sessions)", listErr, len(listed))
	}
	if listed[0].Phase != sessions.PhaseFailed {
		t.Fatalf("session phase = %q, want failed", listed[0].Phase)
	}
	if listed[0].ErrorMessage == "" {
		t.Fatal("failed session should record the error")
	}
}

func TestExportRejectsConcurrentRunViaLockFile(t *testing.T) {
	exec, cfg, _ := newExecutorFixture(t, "")
	clips := writeClips(t, "a.mp4", "b.mp4")
	timelinePath := sequentialTimeline(t, cfg, clips)

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	other := flock.New(cfg.LockFilePath())
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take lock for test: %v", err)
	}
	defer func() { _ = other.Unlock() }()

	_, err = exec.Export(context.Background(), timelinePath, nil)
	if !errors.Is(err, services.ErrExportBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
}

func TestExportFullReencodeMaterializesResources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stubTools(t, cfg, "")
	store := testsupport.MustOpenStore(t, cfg)
	manager := resources.NewManager(logging.NewNop(), time.Minute)

	handleID, err := manager.Acquire(resources.Blob{ID: "res-9", Data: []byte("recorded")}, "owner")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	output := filepath.Join(cfg.Paths.OutputDir, "composite.mp4")
	timelinePath := testsupport.WriteTimeline(t, `
output: `+output+`
target:
  width: 1280
  height: 720
  fps: 30
media:
  - id: blob
    type: video
    resource: res-9
tracks:
  - id: main
    elements:
      - id: e1
        kind: media
        media: blob
        start: 0
        duration: 4
      - id: title
        kind: text
        text: "Intro"
        start: 0
        duration: 2
`)

	exec := NewExecutor(cfg, logging.NewNop(), store, manager)
	result, err := exec.Export(context.Background(), timelinePath, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Strategy != plan.StrategyFullReencode {
		t.Fatalf("strategy = %q, want full reencode", result.Strategy)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if manager.ExportLocked() {
		t.Fatal("export pin must be lifted after the run")
	}
	if manager.RefCount(handleID) != 1 {
		t.Fatalf("refcount = %d, want owner's single reference", manager.RefCount(handleID))
	}
}

func TestExportFailsWhenTimelineEmpty(t *testing.T) {
	exec, _, _ := newExecutorFixture(t, "")
	timelinePath := testsupport.WriteTimeline(t, `
tracks:
  - id: main
    elements:
      - id: t1
        kind: text
        text: "only text"
        start: 0
        duration: 3
        hidden: true
`)

	_, err := exec.Export(context.Background(), timelinePath, nil)
	if !errors.Is(err, services.ErrNoRenderableContent) {
		t.Fatalf("expected no renderable content, got %v", err)
	}
}
