package timeline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Timeline is a fully loaded and validated project: what the analyzer and
// executor consume.
type Timeline struct {
	Tracks  []Track
	Catalog Catalog
	Effects map[string]Effect
	Target  Target
}

// document mirrors the YAML project file layout.
type document struct {
	Output string `yaml:"output"`
	Target struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
		FPS    int `yaml:"fps"`
	} `yaml:"target"`
	Media []struct {
		ID       string `yaml:"id"`
		Type     string `yaml:"type"`
		Path     string `yaml:"path"`
		Resource string `yaml:"resource"`
	} `yaml:"media"`
	Effects []struct {
		ID      string `yaml:"id"`
		Type    string `yaml:"type"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"effects"`
	Tracks []struct {
		ID       string `yaml:"id"`
		Elements []struct {
			ID        string   `yaml:"id"`
			Kind      string   `yaml:"kind"`
			Media     string   `yaml:"media"`
			Text      string   `yaml:"text"`
			Start     float64  `yaml:"start"`
			Duration  float64  `yaml:"duration"`
			TrimStart float64  `yaml:"trim_start"`
			TrimEnd   float64  `yaml:"trim_end"`
			Hidden    bool     `yaml:"hidden"`
			Effects   []string `yaml:"effects"`
		} `yaml:"elements"`
	} `yaml:"tracks"`
}

// LoadFile reads and validates a timeline project document.
func LoadFile(path string) (*Timeline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open timeline document: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse timeline document %s: %w", path, err)
	}
	return doc.build()
}

func (doc document) build() (*Timeline, error) {
	tl := &Timeline{
		Catalog: make(Catalog, len(doc.Media)),
		Effects: make(map[string]Effect, len(doc.Effects)),
		Target: Target{
			Width:      doc.Target.Width,
			Height:     doc.Target.Height,
			FPS:        doc.Target.FPS,
			OutputPath: strings.TrimSpace(doc.Output),
		},
	}

	for _, m := range doc.Media {
		item := MediaItem{
			ID:         strings.TrimSpace(m.ID),
			Type:       MediaType(strings.TrimSpace(m.Type)),
			Path:       strings.TrimSpace(m.Path),
			ResourceID: strings.TrimSpace(m.Resource),
		}
		if _, exists := tl.Catalog[item.ID]; exists {
			return nil, fmt.Errorf("duplicate media id %q", item.ID)
		}
		tl.Catalog[item.ID] = item
	}

	for _, fx := range doc.Effects {
		effect := Effect{
			ID:      strings.TrimSpace(fx.ID),
			Type:    strings.TrimSpace(fx.Type),
			Enabled: fx.Enabled,
		}
		if effect.ID == "" {
			return nil, fmt.Errorf("effect missing id")
		}
		if _, exists := tl.Effects[effect.ID]; exists {
			return nil, fmt.Errorf("duplicate effect id %q", effect.ID)
		}
		tl.Effects[effect.ID] = effect
	}

	for _, tr := range doc.Tracks {
		track := Track{ID: strings.TrimSpace(tr.ID)}
		for _, el := range tr.Elements {
			track.Elements = append(track.Elements, Element{
				ID:        strings.TrimSpace(el.ID),
				Kind:      Kind(strings.TrimSpace(el.Kind)),
				MediaID:   strings.TrimSpace(el.Media),
				Text:      el.Text,
				StartTime: el.Start,
				Duration:  el.Duration,
				TrimStart: el.TrimStart,
				TrimEnd:   el.TrimEnd,
				Hidden:    el.Hidden,
				EffectIDs: el.Effects,
			})
		}
		tl.Tracks = append(tl.Tracks, track)
	}

	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return tl, nil
}

// Validate checks structural invariants across the whole timeline.
func (t *Timeline) Validate() error {
	if err := t.Catalog.Validate(); err != nil {
		return err
	}
	if err := t.Target.Validate(); err != nil {
		return err
	}
	for _, track := range t.Tracks {
		for _, el := range track.Elements {
			if err := el.Validate(); err != nil {
				return err
			}
			if el.Kind == KindMedia {
				if _, ok := t.Catalog.Lookup(el.MediaID); !ok {
					return fmt.Errorf("element %s references unknown media %q", el.ID, el.MediaID)
				}
			}
			for _, fxID := range el.EffectIDs {
				if _, ok := t.Effects[fxID]; !ok {
					return fmt.Errorf("element %s references unknown effect %q", el.ID, fxID)
				}
			}
		}
	}
	return nil
}

// VisibleElements flattens all tracks into the non-hidden elements, in track
// then element order.
func (t *Timeline) VisibleElements() []Element {
	var out []Element
	for _, track := range t.Tracks {
		for _, el := range track.Elements {
			if el.Hidden {
				continue
			}
			out = append(out, el)
		}
	}
	return out
}

// EffectEnabled reports whether the referenced effect exists and is enabled.
func (t *Timeline) EffectEnabled(id string) bool {
	fx, ok := t.Effects[id]
	return ok && fx.Enabled
}
