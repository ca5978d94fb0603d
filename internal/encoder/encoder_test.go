package encoder_test

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wordreel/internal/encoder"
	"wordreel/internal/render"
	"wordreel/internal/services"
)

func TestExpandCount(t *testing.T) {
	cases := []struct {
		duration time.Duration
		fps      int
		want     int
	}{
		{200 * time.Millisecond, 30, 6},
		{500 * time.Millisecond, 30, 15},
		{133 * time.Millisecond, 30, 4},
		{12 * time.Millisecond, 30, 1}, // rounds to zero, floor keeps it visible
		{1 * time.Second, 30, 30},
	}
	for _, tc := range cases {
		if got := encoder.ExpandCount(tc.duration, tc.fps); got != tc.want {
			t.Errorf("ExpandCount(%v, %d) = %d, want %d", tc.duration, tc.fps, got, tc.want)
		}
	}
}

// writeStub installs a shell script standing in for ffmpeg. The script drains
// stdin and then runs the given body with $1 bound to the output path, which
// ffmpeg receives as its final argument.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	script := "#!/bin/sh\nwhile [ $# -gt 1 ]; do shift; done\ncat > /dev/null\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func frameChan(n int) <-chan *render.Frame {
	ch := make(chan *render.Frame, n)
	for i := 0; i < n; i++ {
		ch <- &render.Frame{
			Image:    image.NewRGBA(image.Rect(0, 0, 8, 8)),
			Duration: 100 * time.Millisecond,
		}
	}
	close(ch)
	return ch
}

func TestEncodeWritesOutputAtomically(t *testing.T) {
	stub := writeStub(t, `printf mp4 > "$1"`)
	out := filepath.Join(t.TempDir(), "video.mp4")
	enc := encoder.New(stub, 8, 8, 30, "fast", 23, nil)

	if err := enc.Encode(context.Background(), out, frameChan(3)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if string(data) != "mp4" {
		t.Fatalf("unexpected output contents %q", data)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind after success")
	}
}

func TestEncodeFailureCleansUp(t *testing.T) {
	stub := writeStub(t, `printf junk > "$1"; exit 1`)
	out := filepath.Join(t.TempDir(), "video.mp4")
	enc := encoder.New(stub, 8, 8, 30, "fast", 23, nil)

	err := enc.Encode(context.Background(), out, frameChan(1))
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatal("output path should not exist after failure")
	}
	if _, statErr := os.Stat(out + ".tmp"); !os.IsNotExist(statErr) {
		t.Fatal("partial temp file should be removed after failure")
	}
}

func TestEncodeCancelKillsProcess(t *testing.T) {
	stub := writeStub(t, `sleep 30`)
	out := filepath.Join(t.TempDir(), "video.mp4")
	enc := encoder.New(stub, 8, 8, 30, "fast", 23, nil)

	ctx, cancel := context.WithCancelCause(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel(services.ErrCancelled)
	}()

	// Leave the channel open so Encode blocks waiting for frames until the
	// cancellation fires.
	frames := make(chan *render.Frame)
	start := time.Now()
	err := enc.Encode(ctx, out, frames)
	if !services.IsCancellation(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancel took %v, process was not killed", elapsed)
	}
	if _, statErr := os.Stat(out + ".tmp"); !os.IsNotExist(statErr) {
		t.Fatal("partial temp file should be removed after cancel")
	}
}

func TestCheckMissingBinary(t *testing.T) {
	enc := encoder.New("no-such-encoder-binary", 8, 8, 30, "fast", 23, nil)
	if err := enc.Check(); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
