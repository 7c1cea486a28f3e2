package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/resources"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
	"reelforge/internal/timeline"
)

func newTestManager() *resources.Manager {
	return resources.NewManager(logging.NewNop(), time.Minute)
}

func pathTimeline(t *testing.T, mediaPath string) *timeline.Timeline {
	t.Helper()
	tl := &timeline.Timeline{
		Catalog: timeline.Catalog{
			"clip": {ID: "clip", Type: timeline.MediaVideo, Path: mediaPath},
		},
		Tracks: []timeline.Track{{
			ID: "main",
			Elements: []timeline.Element{
				{ID: "e1", Kind: timeline.KindMedia, MediaID: "clip", Duration: 5},
			},
		}},
	}
	if err := tl.Validate(); err != nil {
		t.Fatalf("fixture timeline invalid: %v", err)
	}
	return tl
}

func TestPrepareResolvesPathBackedMedia(t *testing.T) {
	mediaPath := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, mediaPath, 64)
	manager := newTestManager()

	prepared, err := NewPreparer(manager, logging.NewNop()).Prepare(pathTimeline(t, mediaPath), t.TempDir())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer prepared.Release()

	if len(prepared.Sources) != 1 || prepared.Sources[0].Path != mediaPath {
		t.Fatalf("unexpected sources: %+v", prepared.Sources)
	}
	if !manager.ExportLocked() {
		t.Fatal("prepare must pin the resource table")
	}
	prepared.Release()
	if manager.ExportLocked() {
		t.Fatal("release must lift the export pin")
	}
}

func TestPrepareFailsOnMissingFile(t *testing.T) {
	manager := newTestManager()
	tl := pathTimeline(t, filepath.Join(t.TempDir(), "gone.mp4"))

	_, err := NewPreparer(manager, logging.NewNop()).Prepare(tl, t.TempDir())
	if !errors.Is(err, services.ErrMissingSource) {
		t.Fatalf("expected missing source error, got %v", err)
	}
	if manager.ExportLocked() {
		t.Fatal("failed prepare must not leave the export pin held")
	}
}

func TestPrepareMaterializesInMemoryResource(t *testing.T) {
	manager := newTestManager()
	handleID, err := manager.Acquire(resources.Blob{ID: "res-1", Data: []byte("frames")}, "owner")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	tl := &timeline.Timeline{
		Catalog: timeline.Catalog{
			"blob": {ID: "blob", Type: timeline.MediaVideo, ResourceID: "res-1"},
		},
		Tracks: []timeline.Track{{
			ID: "main",
			Elements: []timeline.Element{
				{ID: "e1", Kind: timeline.KindMedia, MediaID: "blob", Duration: 3},
			},
		}},
	}

	scratch := t.TempDir()
	prepared, err := NewPreparer(manager, logging.NewNop()).Prepare(tl, scratch)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if manager.RefCount(handleID) != 2 {
		t.Fatalf("refcount = %d, want 2 while prepared", manager.RefCount(handleID))
	}
	data, err := os.ReadFile(prepared.Sources[0].Path)
	if err != nil {
		t.Fatalf("read materialized file: %v", err)
	}
	if string(data) != "frames" {
		t.Fatalf("materialized content = %q", data)
	}
	if filepath.Dir(prepared.Sources[0].Path) != scratch {
		t.Fatalf("materialized file outside scratch dir: %s", prepared.Sources[0].Path)
	}

	prepared.Release()
	if manager.RefCount(handleID) != 1 {
		t.Fatalf("refcount = %d, want 1 after release", manager.RefCount(handleID))
	}
	prepared.Release()
	if manager.RefCount(handleID) != 1 {
		t.Fatal("double release must not drop the owner's reference")
	}
}

func TestPrepareFailsOnReclaimedResource(t *testing.T) {
	manager := newTestManager()
	tl := &timeline.Timeline{
		Catalog: timeline.Catalog{
			"blob": {ID: "blob", Type: timeline.MediaVideo, ResourceID: "never-registered"},
		},
		Tracks: []timeline.Track{{
			ID: "main",
			Elements: []timeline.Element{
				{ID: "e1", Kind: timeline.KindMedia, MediaID: "blob", Duration: 3},
			},
		}},
	}

	_, err := NewPreparer(manager, logging.NewNop()).Prepare(tl, t.TempDir())
	if !errors.Is(err, services.ErrResourceUnavailable) {
		t.Fatalf("expected resource unavailable, got %v", err)
	}
	if manager.ExportLocked() {
		t.Fatal("failed prepare must not leave the export pin held")
	}
}

func TestVideosOrderedByStartAcrossTracks(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.mp4")
	pathB := filepath.Join(dir, "b.mp4")
	testsupport.WriteFile(t, pathA, 16)
	testsupport.WriteFile(t, pathB, 16)

	tl := &timeline.Timeline{
		Catalog: timeline.Catalog{
			"a": {ID: "a", Type: timeline.MediaVideo, Path: pathA},
			"b": {ID: "b", Type: timeline.MediaVideo, Path: pathB},
		},
		Tracks: []timeline.Track{
			{ID: "t1", Elements: []timeline.Element{
				{ID: "late", Kind: timeline.KindMedia, MediaID: "b", StartTime: 5, Duration: 5},
			}},
			{ID: "t2", Elements: []timeline.Element{
				{ID: "early", Kind: timeline.KindMedia, MediaID: "a", StartTime: 0, Duration: 5},
			}},
		},
	}

	prepared, err := NewPreparer(newTestManager(), logging.NewNop()).Prepare(tl, t.TempDir())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer prepared.Release()

	videos := prepared.Videos()
	if len(videos) != 2 || videos[0].Element.ID != "early" || videos[1].Element.ID != "late" {
		t.Fatalf("unexpected video order: %+v", videos)
	}
}
