package config

import (
	"fmt"
	"strings"
)

var allowedPresets = map[string]struct{}{
	"ultrafast": {},
	"superfast": {},
	"veryfast":  {},
	"faster":    {},
	"fast":      {},
	"medium":    {},
	"slow":      {},
	"slower":    {},
	"veryslow":  {},
}

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		return fmt.Errorf("paths.temp_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must not be empty")
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return c.validateResources()
}

func (c *Config) validateExport() error {
	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		return fmt.Errorf("export.width and export.height must be positive (got %dx%d)", c.Export.Width, c.Export.Height)
	}
	if c.Export.Width%2 != 0 || c.Export.Height%2 != 0 {
		// Most encoders require even dimensions for 4:2:0 content.
		return fmt.Errorf("export.width and export.height must be even (got %dx%d)", c.Export.Width, c.Export.Height)
	}
	if c.Export.FPS <= 0 || c.Export.FPS > 240 {
		return fmt.Errorf("export.fps must be in (0, 240], got %d", c.Export.FPS)
	}
	if c.Export.CRF < 0 || c.Export.CRF > 51 {
		return fmt.Errorf("export.crf must be in [0, 51], got %d", c.Export.CRF)
	}
	if c.Export.Preset != "" {
		if _, ok := allowedPresets[c.Export.Preset]; !ok {
			return fmt.Errorf("export.preset %q is not a known encoder preset", c.Export.Preset)
		}
	}
	if c.Export.ProgressIntervalSeconds < 0 {
		return fmt.Errorf("export.progress_interval_seconds must not be negative, got %d", c.Export.ProgressIntervalSeconds)
	}
	return nil
}

func (c *Config) validateResources() error {
	if c.Resources.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("resources.sweep_interval_seconds must be positive, got %d", c.Resources.SweepIntervalSeconds)
	}
	if c.Resources.HandleMaxAgeSeconds <= 0 {
		return fmt.Errorf("resources.handle_max_age_seconds must be positive, got %d", c.Resources.HandleMaxAgeSeconds)
	}
	return nil
}
