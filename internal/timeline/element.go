package timeline

import (
	"fmt"
	"strings"
)

// Kind distinguishes element categories on a track.
type Kind string

const (
	KindMedia   Kind = "media"
	KindText    Kind = "text"
	KindSticker Kind = "sticker"
	KindCaption Kind = "caption"
)

var validKinds = map[Kind]struct{}{
	KindMedia:   {},
	KindText:    {},
	KindSticker: {},
	KindCaption: {},
}

// Element is a single positioned item on a track. Times are seconds on the
// timeline; trims are offsets into the source excluded from playback.
type Element struct {
	ID        string
	Kind      Kind
	MediaID   string
	Text      string
	StartTime float64
	Duration  float64
	TrimStart float64
	TrimEnd   float64
	Hidden    bool
	EffectIDs []string
}

// EffectiveDuration returns the rendered duration after trims.
func (e Element) EffectiveDuration() float64 {
	d := e.Duration - e.TrimStart - e.TrimEnd
	if d < 0 {
		return 0
	}
	return d
}

// End returns the exclusive end of the element's occupied timeline range.
func (e Element) End() float64 {
	return e.StartTime + e.EffectiveDuration()
}

// Overlaps reports whether two elements' occupied ranges intersect.
func (e Element) Overlaps(other Element) bool {
	return e.StartTime < other.End() && other.StartTime < e.End()
}

// Trimmed reports whether the element excludes any part of its source.
func (e Element) Trimmed() bool {
	return e.TrimStart > 0 || e.TrimEnd > 0
}

// Validate checks structural invariants on a single element.
func (e Element) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("element missing id")
	}
	if _, ok := validKinds[e.Kind]; !ok {
		return fmt.Errorf("element %s: unknown kind %q", e.ID, e.Kind)
	}
	if e.Kind == KindMedia && strings.TrimSpace(e.MediaID) == "" {
		return fmt.Errorf("element %s: media element missing media reference", e.ID)
	}
	if e.Duration <= 0 {
		return fmt.Errorf("element %s: duration must be positive, got %v", e.ID, e.Duration)
	}
	if e.TrimStart < 0 || e.TrimEnd < 0 {
		return fmt.Errorf("element %s: trims must not be negative", e.ID)
	}
	if e.TrimStart+e.TrimEnd > e.Duration {
		return fmt.Errorf("element %s: trims %v+%v exceed duration %v", e.ID, e.TrimStart, e.TrimEnd, e.Duration)
	}
	return nil
}

// Track is an ordered collection of elements.
type Track struct {
	ID       string
	Elements []Element
}

// Effect describes a named effect a media element may reference.
type Effect struct {
	ID      string
	Type    string
	Enabled bool
}
