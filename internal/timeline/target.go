package timeline

import "fmt"

// Target holds export output settings. Zero Width/Height/FPS mean "not
// specified"; the analyzer resolves them from the first video source or the
// configured defaults.
type Target struct {
	Width      int
	Height     int
	FPS        int
	CRF        int
	Preset     string
	OutputPath string
}

// Specified reports whether the caller provided explicit dimensions.
func (t Target) Specified() bool {
	return t.Width > 0 && t.Height > 0 && t.FPS > 0
}

// Validate rejects partially specified or nonsensical targets. A fully
// unspecified target is fine; resolution happens later.
func (t Target) Validate() error {
	set := 0
	for _, v := range []int{t.Width, t.Height, t.FPS} {
		if v > 0 {
			set++
		}
	}
	if set != 0 && set != 3 {
		return fmt.Errorf("target settings must specify width, height, and fps together")
	}
	if t.Width < 0 || t.Height < 0 || t.FPS < 0 {
		return fmt.Errorf("target settings must not be negative")
	}
	return nil
}
