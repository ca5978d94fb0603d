package encoder

import (
	"fmt"
	"strconv"
)

// encodeArgs builds the full ffmpeg argument list for a raw RGBA pipe input.
// The pixel format filter keeps the output playable in browsers and stock
// players, which reject H.264 streams in rgba.
func encodeArgs(width, height, fps int, preset string, crf int, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-vf", "format=yuv420p",
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-movflags", "+faststart",
		"-f", "mp4",
		output,
	}
}
