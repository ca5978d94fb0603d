package rsvp

import (
	"fmt"
	"math"
	"strings"
	"time"

	"wordreel/internal/services"
)

// DisplayUnit is one timed group of words. Produced once per job and consumed
// in order exactly once by the renderer.
type DisplayUnit struct {
	Index    int
	Words    []string
	Text     string
	ORP      int
	Duration time.Duration
	// PunctPause records that a punctuation pause factor was applied,
	// so downstream consumers can verify it without re-deriving it.
	PunctPause bool
}

// Engine computes display units. The pause factors and word ceiling come from
// server configuration, not the per-job settings bundle.
type Engine struct {
	MaxWords      int
	SentencePause float64
	ClausePause   float64
}

// NewEngine builds an engine with the given limits and pause factors.
func NewEngine(maxWords int, sentencePause, clausePause float64) Engine {
	return Engine{MaxWords: maxWords, SentencePause: sentencePause, ClausePause: clausePause}
}

// WordCount reports the whitespace-token count used by submission validation.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Segment tokenizes text and produces the ordered unit sequence for the given
// settings. It fails with a validation error when the text is empty after
// trimming or exceeds the engine's word ceiling.
func (e Engine) Segment(text string, settings Settings) ([]DisplayUnit, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, services.Wrap(services.ErrValidation, "rsvp", "segment", "no text content found", nil)
	}
	if e.MaxWords > 0 && len(words) > e.MaxWords {
		return nil, services.Wrap(services.ErrValidation, "rsvp", "segment",
			fmt.Sprintf("text exceeds %d word limit (found %d words)", e.MaxWords, len(words)), nil)
	}

	grouping := settings.WordGrouping
	if grouping < MinGrouping {
		grouping = MinGrouping
	}

	units := make([]DisplayUnit, 0, (len(words)+grouping-1)/grouping)
	for start := 0; start < len(words); start += grouping {
		end := start + grouping
		if end > len(words) {
			end = len(words)
		}
		group := words[start:end]

		unit := DisplayUnit{
			Index: len(units),
			Words: group,
			Text:  strings.Join(group, " "),
			ORP:   orpIndex(group[0]),
		}
		unit.Duration, unit.PunctPause = e.duration(settings, group)
		units = append(units, unit)
	}
	return units, nil
}

// duration computes the display time for one group: 60000/wpm ms per word,
// multiplied by a pause factor when the group ends in punctuation and the
// settings ask for punctuation pauses.
func (e Engine) duration(settings Settings, group []string) (time.Duration, bool) {
	ms := 60000.0 / float64(settings.WPM) * float64(len(group))

	paused := false
	if settings.PauseOnPunctuation {
		if factor := e.pauseFactor(group[len(group)-1]); factor > 0 {
			ms *= factor
			paused = true
		}
	}
	return time.Duration(math.Round(ms)) * time.Millisecond, paused
}

func (e Engine) pauseFactor(word string) float64 {
	if word == "" {
		return 0
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return e.SentencePause
	case ',', ';', ':':
		return e.ClausePause
	}
	return 0
}

// orpIndex is the optimal recognition point within a word: one third of the
// way in, clamped to the word's rune bounds. For multi-word groups it is
// computed on the first word, which also starts the concatenated display
// string, so the index is valid for both.
func orpIndex(word string) int {
	runes := []rune(word)
	if len(runes) == 0 {
		return 0
	}
	orp := len(runes) / 3
	if orp > len(runes)-1 {
		orp = len(runes) - 1
	}
	return orp
}
