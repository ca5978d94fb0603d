package jobs

import (
	"context"
	"log/slog"
	"path/filepath"

	"wordreel/internal/encoder"
	"wordreel/internal/logging"
	"wordreel/internal/render"
	"wordreel/internal/rsvp"
)

// VideoPipeline is the production Pipeline: segment the text, rasterize each
// display unit, and stream the frames into the encoder. Frames flow through
// an unbuffered channel so rendering never runs far ahead of ffmpeg and at
// most one frame is in flight per job.
type VideoPipeline struct {
	engine      rsvp.Engine
	enc         *encoder.Encoder
	artifactDir string
	width       int
	height      int
	logger      *slog.Logger
}

// NewVideoPipeline builds the production pipeline. Artifacts land in
// artifactDir as <job id>.mp4.
func NewVideoPipeline(engine rsvp.Engine, enc *encoder.Encoder, artifactDir string, width, height int, logger *slog.Logger) *VideoPipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &VideoPipeline{
		engine:      engine,
		enc:         enc,
		artifactDir: artifactDir,
		width:       width,
		height:      height,
		logger:      logging.WithComponent(logger, "pipeline"),
	}
}

// Run executes the full pipeline for one job. Cancellation is checked at
// every unit boundary; a cancelled or timed-out context surfaces as its
// cause so the caller can classify the outcome.
func (p *VideoPipeline) Run(ctx context.Context, job *Job, report func(current, total int)) (string, error) {
	units, err := p.engine.Segment(job.Text, job.Settings)
	if err != nil {
		return "", err
	}
	report(0, len(units))

	renderer, err := render.New(job.Settings, p.width, p.height)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(p.artifactDir, job.ID+".mp4")
	frames := make(chan *render.Frame)
	encodeDone := make(chan error, 1)
	go func() {
		encodeDone <- p.enc.Encode(ctx, outputPath, frames)
	}()

	streamed := 0
loop:
	for _, unit := range units {
		if ctx.Err() != nil {
			break
		}
		frame := renderer.Render(unit)
		select {
		case frames <- frame:
			streamed++
			report(streamed, len(units))
		case <-ctx.Done():
			break loop
		case err := <-encodeDone:
			// Encoder died before consuming every frame.
			return "", err
		}
	}
	close(frames)

	if err := <-encodeDone; err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", context.Cause(ctx)
	}
	return outputPath, nil
}
