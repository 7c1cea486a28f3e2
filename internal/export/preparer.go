package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"reelforge/internal/logging"
	"reelforge/internal/resources"
	"reelforge/internal/services"
	"reelforge/internal/textutil"
	"reelforge/internal/timeline"
)

// Source is one timeline element resolved to a readable on-disk file.
type Source struct {
	Element    timeline.Element
	Item       timeline.MediaItem
	Path       string
	TrackIndex int
}

// PreparedSources holds every resolved source plus the resource handles and
// export guard that keep in-memory media alive for the run. Release must be
// called on every exit path.
type PreparedSources struct {
	Sources []Source

	manager *resources.Manager
	guard   *resources.ExportGuard
	handles []string
}

// Preparer resolves timeline media references ahead of encoding.
type Preparer struct {
	manager *resources.Manager
	logger  *slog.Logger
}

// NewPreparer constructs a Preparer backed by the given resource manager.
func NewPreparer(manager *resources.Manager, logger *slog.Logger) *Preparer {
	return &Preparer{
		manager: manager,
		logger:  logging.NewComponentLogger(logger, "preparer"),
	}
}

// Prepare pins the resource table, resolves every visible media-backed
// element to a file path, and materializes in-memory resources into
// scratchDir. Sources come back ordered by track, then by start time.
func (p *Preparer) Prepare(tl *timeline.Timeline, scratchDir string) (*PreparedSources, error) {
	prepared := &PreparedSources{
		manager: p.manager,
		guard:   p.manager.PinForExport(),
	}

	for trackIndex, track := range tl.Tracks {
		for _, element := range track.Elements {
			if element.Hidden || element.MediaID == "" {
				continue
			}
			source, err := p.resolve(tl, element, trackIndex, scratchDir, prepared)
			if err != nil {
				prepared.Release()
				return nil, err
			}
			prepared.Sources = append(prepared.Sources, source)
		}
	}

	sort.SliceStable(prepared.Sources, func(i, j int) bool {
		a, b := prepared.Sources[i], prepared.Sources[j]
		if a.TrackIndex != b.TrackIndex {
			return a.TrackIndex < b.TrackIndex
		}
		return a.Element.StartTime < b.Element.StartTime
	})
	return prepared, nil
}

func (p *Preparer) resolve(tl *timeline.Timeline, element timeline.Element, trackIndex int, scratchDir string, prepared *PreparedSources) (Source, error) {
	item, ok := tl.Catalog.Lookup(element.MediaID)
	if !ok {
		// Validation rejects dangling references, so reaching this point
		// means the timeline mutated after validation.
		return Source{}, services.Wrap(services.ErrMissingSource, "preparer", "resolve media",
			fmt.Sprintf("element %s references unknown media %s", element.ID, element.MediaID), nil)
	}

	source := Source{Element: element, Item: item, TrackIndex: trackIndex}

	if item.HasPath() {
		if _, err := os.Stat(item.Path); err != nil {
			return Source{}, services.Wrap(services.ErrMissingSource, "preparer", "resolve media",
				fmt.Sprintf("media %s points at an unreadable file", item.ID), err)
		}
		source.Path = item.Path
		return source, nil
	}

	handleID, err := p.manager.AcquireExisting(item.ResourceID, "export")
	if err != nil {
		return Source{}, err
	}
	prepared.handles = append(prepared.handles, handleID)

	data, err := p.manager.Data(handleID)
	if err != nil {
		return Source{}, err
	}
	path := filepath.Join(scratchDir, "resource-"+textutil.SanitizeToken(item.ID)+materializedExt(item.Type))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Source{}, services.Wrap(services.ErrResourceUnavailable, "preparer", "materialize resource",
			"check temp directory permissions and free space", err)
	}
	p.logger.Debug("materialized in-memory resource",
		logging.String("media_id", item.ID),
		logging.String(logging.FieldHandleID, handleID),
		logging.Int("bytes", len(data)),
	)
	source.Path = path
	return source, nil
}

// Release drops every acquired resource reference and lifts the export pin.
// Safe to call more than once.
func (ps *PreparedSources) Release() {
	for _, handleID := range ps.handles {
		ps.manager.Release(handleID, "export")
	}
	ps.handles = nil
	ps.guard.Close()
}

// Videos returns the path-resolved video and image sources in timeline
// order across all tracks.
func (ps *PreparedSources) Videos() []Source {
	var videos []Source
	for _, source := range ps.Sources {
		if source.Item.Type == timeline.MediaVideo || source.Item.Type == timeline.MediaImage {
			videos = append(videos, source)
		}
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Element.StartTime < videos[j].Element.StartTime
	})
	return videos
}

// Audio returns the audio sources in timeline order.
func (ps *PreparedSources) Audio() []Source {
	var audio []Source
	for _, source := range ps.Sources {
		if source.Item.Type == timeline.MediaAudio {
			audio = append(audio, source)
		}
	}
	sort.SliceStable(audio, func(i, j int) bool {
		return audio[i].Element.StartTime < audio[j].Element.StartTime
	})
	return audio
}

func materializedExt(mediaType timeline.MediaType) string {
	switch mediaType {
	case timeline.MediaImage:
		return ".png"
	case timeline.MediaAudio:
		return ".m4a"
	default:
		return ".mp4"
	}
}
