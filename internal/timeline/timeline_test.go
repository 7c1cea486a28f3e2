package timeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEffectiveDurationAndOverlap(t *testing.T) {
	a := Element{StartTime: 0, Duration: 10, TrimStart: 2, TrimEnd: 3}
	if got := a.EffectiveDuration(); got != 5 {
		t.Fatalf("effective duration = %v, want 5", got)
	}
	if a.End() != 5 {
		t.Fatalf("end = %v, want 5", a.End())
	}

	b := Element{StartTime: 4, Duration: 10}
	if !a.Overlaps(b) {
		t.Fatal("expected [0,5) and [4,14) to overlap")
	}
	c := Element{StartTime: 5, Duration: 10}
	if a.Overlaps(c) {
		t.Fatal("ranges touching at a boundary must not count as overlapping")
	}
}

func TestElementValidateTrimBounds(t *testing.T) {
	el := Element{ID: "e1", Kind: KindMedia, MediaID: "m1", Duration: 5, TrimStart: 3, TrimEnd: 2.5}
	if err := el.Validate(); err == nil || !strings.Contains(err.Error(), "exceed duration") {
		t.Fatalf("expected trim bound violation, got %v", err)
	}
}

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

const sampleDocument = `
output: final.mp4
target:
  width: 1920
  height: 1080
  fps: 30
media:
  - id: clip-a
    type: video
    path: /media/a.mp4
  - id: blob-b
    type: video
    resource: res-7
effects:
  - id: blur
    type: gaussian_blur
    enabled: true
tracks:
  - id: main
    elements:
      - id: e1
        kind: media
        media: clip-a
        start: 0
        duration: 12.5
      - id: e2
        kind: media
        media: blob-b
        start: 12.5
        duration: 8
        trim_end: 2
  - id: overlays
    elements:
      - id: t1
        kind: text
        text: "Hello"
        start: 2
        duration: 3
        hidden: true
`

func TestLoadFile(t *testing.T) {
	tl, err := LoadFile(writeDocument(t, sampleDocument))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(tl.Tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(tl.Tracks))
	}
	if tl.Target.Width != 1920 || tl.Target.FPS != 30 {
		t.Fatalf("target not loaded: %+v", tl.Target)
	}
	if tl.Target.OutputPath != "final.mp4" {
		t.Fatalf("output path = %q", tl.Target.OutputPath)
	}

	item, ok := tl.Catalog.Lookup("blob-b")
	if !ok || item.HasPath() || item.ResourceID != "res-7" {
		t.Fatalf("in-memory catalog entry wrong: %+v", item)
	}
	if !tl.EffectEnabled("blur") {
		t.Fatal("enabled effect not detected")
	}

	visible := tl.VisibleElements()
	if len(visible) != 2 {
		t.Fatalf("visible elements = %d, want 2 (hidden text excluded)", len(visible))
	}
}

func TestLoadFileRejectsDanglingMediaReference(t *testing.T) {
	doc := `
tracks:
  - id: main
    elements:
      - id: e1
        kind: media
        media: ghost
        start: 0
        duration: 5
`
	if _, err := LoadFile(writeDocument(t, doc)); err == nil || !strings.Contains(err.Error(), "unknown media") {
		t.Fatalf("expected dangling media rejection, got %v", err)
	}
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	doc := `
bogus_key: true
`
	if _, err := LoadFile(writeDocument(t, doc)); err == nil {
		t.Fatal("expected strict decoding to reject unknown fields")
	}
}

func TestLoadFileRejectsPartialTarget(t *testing.T) {
	doc := `
target:
  width: 1280
media:
  - id: m
    type: video
    path: /m.mp4
tracks:
  - id: main
    elements:
      - id: e1
        kind: media
        media: m
        start: 0
        duration: 5
`
	if _, err := LoadFile(writeDocument(t, doc)); err == nil || !strings.Contains(err.Error(), "together") {
		t.Fatalf("expected partial target rejection, got %v", err)
	}
}
