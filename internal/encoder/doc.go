// Package encoder turns rendered frames into an H.264 MP4 via an external
// ffmpeg process.
//
// Display units carry variable durations but the output stream runs at a
// fixed frame rate, so each bitmap is repeated for the number of output
// frames closest to its duration (never fewer than one). Raw RGBA pixels are
// streamed over ffmpeg's stdin; nothing is staged on disk except the output
// file itself, which is written to a temp path and renamed into place only
// after ffmpeg exits cleanly. A cancelled context kills the process and
// removes the partial file.
package encoder
