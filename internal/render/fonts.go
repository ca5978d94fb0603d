package render

import (
	"github.com/go-fonts/liberation/liberationmonoregular"
	"github.com/go-fonts/liberation/liberationsansregular"
	"github.com/go-fonts/liberation/liberationserifregular"

	"wordreel/internal/rsvp"
)

// fontData maps the settings font enum to embedded TTF bytes. Liberation
// faces are metric-compatible with the common system families, so output is
// identical across hosts without a font path in config.
func fontData(family string) ([]byte, bool) {
	switch family {
	case rsvp.FontSans:
		return liberationsansregular.TTF, true
	case rsvp.FontSerif:
		return liberationserifregular.TTF, true
	case rsvp.FontMono:
		return liberationmonoregular.TTF, true
	default:
		return nil, false
	}
}
