package main

import (
	"github.com/spf13/cobra"

	"wordreel/internal/rsvp"
)

// settingsFlags collects the playback settings shared by submit variants.
type settingsFlags struct {
	wpm            int
	grouping       int
	font           string
	textColor      string
	bgColor        string
	highlightColor string
	noPause        bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	defaults := rsvp.DefaultSettings()
	cmd.Flags().IntVar(&f.wpm, "wpm", defaults.WPM, "Reading speed in words per minute (100-5000)")
	cmd.Flags().IntVar(&f.grouping, "grouping", defaults.WordGrouping, "Words shown per frame (1-3)")
	cmd.Flags().StringVar(&f.font, "font", defaults.Font, "Font family: sans, serif, or mono")
	cmd.Flags().StringVar(&f.textColor, "text-color", defaults.TextColor, "Text color as hex")
	cmd.Flags().StringVar(&f.bgColor, "bg-color", defaults.BackgroundColor, "Background color as hex")
	cmd.Flags().StringVar(&f.highlightColor, "highlight-color", defaults.HighlightColor, "Focus letter color as hex")
	cmd.Flags().BoolVar(&f.noPause, "no-punctuation-pause", false, "Disable longer display after punctuation")
}

func (f *settingsFlags) settings() rsvp.Settings {
	s := rsvp.DefaultSettings()
	s.WPM = f.wpm
	s.WordGrouping = f.grouping
	s.Font = f.font
	s.TextColor = f.textColor
	s.BackgroundColor = f.bgColor
	s.HighlightColor = f.highlightColor
	s.PauseOnPunctuation = !f.noPause
	return s
}
