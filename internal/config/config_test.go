package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPassesValidation(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelforge.toml")
	content := `
[paths]
temp_dir = "` + filepath.Join(dir, "tmp") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[export]
width = 1280
height = 720
fps = 24
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Export.Width != 1280 || cfg.Export.Height != 720 || cfg.Export.FPS != 24 {
		t.Fatalf("export settings not applied: %+v", cfg.Export)
	}
	// Unset sections keep defaults.
	if cfg.Resources.HandleMaxAgeSeconds != defaultHandleMaxAgeSeconds {
		t.Fatalf("resources defaults lost: %+v", cfg.Resources)
	}
}

func TestLoadRejectsInvalidExportSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelforge.toml")
	content := `
[export]
width = 1921
height = 1080
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "even") {
		t.Fatalf("expected odd-dimension rejection, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, _, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if cfg.Export.Width != defaultExportWidth {
		t.Fatalf("defaults not applied: %+v", cfg.Export)
	}
}

func TestBinaryFallbacks(t *testing.T) {
	cfg := Default()
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binary fallbacks: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	cfg.Tools.FFmpeg = "/opt/ffmpeg/bin/ffmpeg"
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("explicit ffmpeg path ignored: %q", cfg.FFmpegBinary())
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.TempDir = filepath.Join(dir, "tmp")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, d := range []string{cfg.Paths.TempDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q not created: %v", d, err)
		}
	}
}
