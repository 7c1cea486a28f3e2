package timeline

import (
	"fmt"
	"strings"
)

// MediaType distinguishes catalog entries.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
)

var validMediaTypes = map[MediaType]struct{}{
	MediaVideo: {},
	MediaImage: {},
	MediaAudio: {},
}

// MediaItem is a catalog entry an element references by ID. Exactly one of
// Path and ResourceID is authoritative; when both are set the path wins.
type MediaItem struct {
	ID         string
	Type       MediaType
	Path       string
	ResourceID string
}

// HasPath reports whether the item is backed by a filesystem file.
func (m MediaItem) HasPath() bool {
	return strings.TrimSpace(m.Path) != ""
}

// Validate checks a single catalog entry.
func (m MediaItem) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("media item missing id")
	}
	if _, ok := validMediaTypes[m.Type]; !ok {
		return fmt.Errorf("media item %s: unknown type %q", m.ID, m.Type)
	}
	if !m.HasPath() && strings.TrimSpace(m.ResourceID) == "" {
		return fmt.Errorf("media item %s: needs a path or an in-memory resource reference", m.ID)
	}
	return nil
}

// Catalog maps media item IDs to their entries.
type Catalog map[string]MediaItem

// Lookup returns the entry for id.
func (c Catalog) Lookup(id string) (MediaItem, bool) {
	item, ok := c[id]
	return item, ok
}

// Validate checks every catalog entry.
func (c Catalog) Validate() error {
	for id, item := range c {
		if item.ID != id {
			return fmt.Errorf("catalog key %q does not match item id %q", id, item.ID)
		}
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
