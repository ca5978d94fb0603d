package rsvp

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"wordreel/internal/services"
)

// Font families available to the renderer.
const (
	FontSans  = "sans"
	FontSerif = "serif"
	FontMono  = "mono"
)

// Settings range limits.
const (
	MinWPM      = 100
	MaxWPM      = 5000
	MinGrouping = 1
	MaxGrouping = 3
)

// Settings is the immutable per-job settings bundle. Colors are hex RGB
// strings ("#RRGGBB") as received from the caller; they are validated here and
// parsed by the renderer.
type Settings struct {
	WPM                int    `json:"wpm"`
	WordGrouping       int    `json:"word_grouping"`
	Font               string `json:"font"`
	TextColor          string `json:"text_color"`
	BackgroundColor    string `json:"bg_color"`
	HighlightColor     string `json:"highlight_color"`
	PauseOnPunctuation bool   `json:"pause_on_punctuation"`
}

// DefaultSettings mirrors the defaults applied when a caller omits fields.
func DefaultSettings() Settings {
	return Settings{
		WPM:                300,
		WordGrouping:       1,
		Font:               FontSans,
		TextColor:          "#000000",
		BackgroundColor:    "#FFFFFF",
		HighlightColor:     "#FF0000",
		PauseOnPunctuation: true,
	}
}

// Validate checks all settings ranges and enumerations. Violations are tagged
// as validation errors for synchronous rejection at submission.
func (s Settings) Validate() error {
	if s.WPM < MinWPM || s.WPM > MaxWPM {
		return services.Wrap(services.ErrValidation, "rsvp", "settings",
			fmt.Sprintf("wpm must be between %d and %d, got %d", MinWPM, MaxWPM, s.WPM), nil)
	}
	if s.WordGrouping < MinGrouping || s.WordGrouping > MaxGrouping {
		return services.Wrap(services.ErrValidation, "rsvp", "settings",
			fmt.Sprintf("word_grouping must be between %d and %d, got %d", MinGrouping, MaxGrouping, s.WordGrouping), nil)
	}
	switch s.Font {
	case FontSans, FontSerif, FontMono:
	default:
		return services.Wrap(services.ErrValidation, "rsvp", "settings",
			fmt.Sprintf("font must be one of sans, serif, mono, got %q", s.Font), nil)
	}
	for name, value := range map[string]string{
		"text_color":      s.TextColor,
		"bg_color":        s.BackgroundColor,
		"highlight_color": s.HighlightColor,
	} {
		if _, err := ParseHexColor(value); err != nil {
			return services.Wrap(services.ErrValidation, "rsvp", "settings",
				fmt.Sprintf("%s: %v", name, err), nil)
		}
	}
	return nil
}

// ParseHexColor parses "#RRGGBB" (leading # optional) into an opaque RGBA.
func ParseHexColor(value string) (color.RGBA, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) != 6 {
		return color.RGBA{}, fmt.Errorf("expected 6 hex digits, got %q", value)
	}
	parsed, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", value)
	}
	return color.RGBA{
		R: uint8(parsed >> 16),
		G: uint8(parsed >> 8),
		B: uint8(parsed),
		A: 0xFF,
	}, nil
}
