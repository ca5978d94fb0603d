package encoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"wordreel/internal/logging"
	"wordreel/internal/render"
	"wordreel/internal/services"
)

const stderrTailLimit = 4096

// Encoder wraps an external ffmpeg binary. It is stateless and safe for
// concurrent use; every Encode call spawns its own process.
type Encoder struct {
	binary string
	width  int
	height int
	fps    int
	preset string
	crf    int
	logger *slog.Logger
}

// New builds an encoder for the given geometry. The binary may be a bare
// name resolved through PATH or an absolute path from config.
func New(binary string, width, height, fps int, preset string, crf int, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Encoder{
		binary: binary,
		width:  width,
		height: height,
		fps:    fps,
		preset: preset,
		crf:    crf,
		logger: logging.WithComponent(logger, "encoder"),
	}
}

// Check verifies the ffmpeg binary is reachable. Called once at daemon
// startup so a missing tool fails loudly instead of failing every job.
func (e *Encoder) Check() error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return services.Wrap(services.ErrExternalTool, "encoder", "locate binary", e.binary, err)
	}
	return nil
}

// Encode drains frames into an ffmpeg process and writes the finished MP4 to
// outputPath. The file appears atomically: data goes to a sibling temp path
// and is renamed only after ffmpeg exits zero. On any failure, including a
// cancelled context, the partial file is removed and outputPath is untouched.
func (e *Encoder) Encode(ctx context.Context, outputPath string, frames <-chan *render.Frame) error {
	tmpPath := outputPath + ".tmp"

	cmd := exec.CommandContext(ctx, e.binary, encodeArgs(e.width, e.height, e.fps, e.preset, e.crf, tmpPath)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return services.Wrap(services.ErrEncode, "encoder", "open stdin", "", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("starting ffmpeg",
		logging.String("binary", e.binary),
		logging.String("output", tmpPath),
		logging.Int("fps", e.fps))

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrEncode, "encoder", "start ffmpeg", e.binary, err)
	}

	writeErr := e.streamFrames(ctx, stdin, frames)
	stdin.Close()

	waitErr := cmd.Wait()
	if writeErr != nil || waitErr != nil {
		os.Remove(tmpPath)
		if cause := context.Cause(ctx); cause != nil {
			// The process was killed because the job was cancelled or timed
			// out; report that instead of the broken-pipe noise it causes.
			return services.Wrap(cause, "encoder", "encode", "ffmpeg interrupted", nil)
		}
		if waitErr != nil {
			return services.Wrap(services.ErrEncode, "encoder", "encode",
				fmt.Sprintf("ffmpeg failed: %s", stderrTail(stderr.Bytes())), waitErr)
		}
		return services.Wrap(services.ErrEncode, "encoder", "encode", "write frames", writeErr)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrEncode, "encoder", "finalize output", outputPath, err)
	}
	return nil
}

// streamFrames writes each bitmap to the pipe, repeated to fill its display
// duration at the output frame rate.
func (e *Encoder) streamFrames(ctx context.Context, w io.Writer, frames <-chan *render.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			repeats := ExpandCount(frame.Duration, e.fps)
			for i := 0; i < repeats; i++ {
				if err := ctx.Err(); err != nil {
					return context.Cause(ctx)
				}
				if _, err := w.Write(frame.Image.Pix); err != nil {
					return err
				}
			}
		}
	}
}

// stderrTail keeps the last chunk of ffmpeg's stderr for error messages.
// Early output is usually banner noise; the failure reason is at the end.
func stderrTail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > stderrTailLimit {
		s = "..." + s[len(s)-stderrTailLimit:]
	}
	if s == "" {
		return "no stderr output"
	}
	return s
}
