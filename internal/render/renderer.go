package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"wordreel/internal/rsvp"
	"wordreel/internal/services"
)

// Marker geometry above the text, matching the reference output: a short
// vertical tick centered on the fixation column.
const (
	markerGap    = 20
	markerHeight = 10
	markerWidth  = 3
)

// Frame is one rendered bitmap plus its target display duration. Frames are
// transient: the encoder consumes them and they are not retained.
type Frame struct {
	Image    *image.RGBA
	Duration time.Duration
}

// Renderer draws display units onto a fixed-size canvas. A Renderer belongs
// to exactly one job; the underlying font face holds a glyph cache that must
// not be shared across goroutines.
type Renderer struct {
	width    int
	height   int
	face     font.Face
	textCol  color.RGBA
	bgCol    color.RGBA
	hlCol    color.RGBA
	baseline int
	textTop  int
}

// New builds a renderer for one job. The font family comes from the settings
// bundle; failure to resolve or parse it is a render error, fatal to the job.
func New(settings rsvp.Settings, width, height int) (*Renderer, error) {
	data, ok := fontData(settings.Font)
	if !ok {
		return nil, services.Wrap(services.ErrRender, "render", "load font",
			fmt.Sprintf("unknown font family %q", settings.Font), nil)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrRender, "render", "parse font", settings.Font, err)
	}

	size := min(width, height) / 8
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrRender, "render", "create face", settings.Font, err)
	}

	textCol, err := rsvp.ParseHexColor(settings.TextColor)
	if err != nil {
		return nil, services.Wrap(services.ErrRender, "render", "text color", "", err)
	}
	bgCol, err := rsvp.ParseHexColor(settings.BackgroundColor)
	if err != nil {
		return nil, services.Wrap(services.ErrRender, "render", "bg color", "", err)
	}
	hlCol, err := rsvp.ParseHexColor(settings.HighlightColor)
	if err != nil {
		return nil, services.Wrap(services.ErrRender, "render", "highlight color", "", err)
	}

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	textTop := (height - ascent - descent) / 2

	return &Renderer{
		width:    width,
		height:   height,
		face:     face,
		textCol:  textCol,
		bgCol:    bgCol,
		hlCol:    hlCol,
		baseline: textTop + ascent,
		textTop:  textTop,
	}, nil
}

// Render draws one display unit. Character cells are advanced individually so
// the ORP character can take the highlight color; the word is shifted so that
// character's center lands on the canvas center column.
func (r *Renderer) Render(unit rsvp.DisplayUnit) *Frame {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.bgCol), image.Point{}, draw.Src)

	runes := []rune(unit.Text)
	if len(runes) == 0 {
		r.drawMarker(img)
		return &Frame{Image: img, Duration: unit.Duration}
	}
	orp := unit.ORP
	if orp < 0 || orp >= len(runes) {
		orp = 0
	}

	advances := make([]fixed.Int26_6, len(runes))
	for i, rn := range runes {
		adv, ok := r.face.GlyphAdvance(rn)
		if !ok {
			adv, _ = r.face.GlyphAdvance('?')
			runes[i] = '?'
		}
		advances[i] = adv
	}

	var orpCenter fixed.Int26_6
	for i := 0; i < orp; i++ {
		orpCenter += advances[i]
	}
	orpCenter += advances[orp] / 2

	centerX := fixed.I(r.width / 2)
	x := centerX - orpCenter

	for i, rn := range runes {
		col := r.textCol
		if i == orp {
			col = r.hlCol
		}
		drawer := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(col),
			Face: r.face,
			Dot:  fixed.Point26_6{X: x, Y: fixed.I(r.baseline)},
		}
		drawer.DrawString(string(rn))
		x += advances[i]
	}

	r.drawMarker(img)

	return &Frame{Image: img, Duration: unit.Duration}
}

// drawMarker paints the fixation tick above the text line.
func (r *Renderer) drawMarker(img *image.RGBA) {
	top := r.textTop - markerGap
	if top < 0 {
		top = 0
	}
	left := r.width/2 - markerWidth/2
	rect := image.Rect(left, top, left+markerWidth, top+markerHeight)
	draw.Draw(img, rect, image.NewUniform(r.hlCol), image.Point{}, draw.Src)
}
