package config

import "fmt"

// PaddingConfig inflates a fitted region per edge, as fractions of the span.
type PaddingConfig struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// MapConfig defines viewport behavior.
type MapConfig struct {
	// DebounceMS delays refits so marker churn settles first.
	DebounceMS int `json:"debounce_ms"`
	// PadCollapsed applies while the header panel is collapsed.
	PadCollapsed PaddingConfig `json:"pad_collapsed"`
	// PadExpanded applies while the header panel is expanded and hides more
	// of the map, so its bottom inset is larger.
	PadExpanded PaddingConfig `json:"pad_expanded"`
}

// SetDefaults applies the standard debounce and paddings.
func (c *MapConfig) SetDefaults() {
	if c.DebounceMS == 0 {
		c.DebounceMS = 300
	}
	zero := PaddingConfig{}
	if c.PadCollapsed == zero {
		c.PadCollapsed = PaddingConfig{Top: 0.1, Right: 0.1, Bottom: 0.1, Left: 0.1}
	}
	if c.PadExpanded == zero {
		c.PadExpanded = PaddingConfig{Top: 0.35, Right: 0.1, Bottom: 0.1, Left: 0.1}
	}
}

// Validate rejects negative values.
func (c MapConfig) Validate() error {
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms cannot be negative")
	}
	for _, p := range []PaddingConfig{c.PadCollapsed, c.PadExpanded} {
		if p.Top < 0 || p.Right < 0 || p.Bottom < 0 || p.Left < 0 {
			return fmt.Errorf("padding fractions cannot be negative")
		}
	}
	return nil
}
