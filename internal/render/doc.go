// Package render rasterizes display units into video frames.
//
// Rendering is deterministic: the same unit and settings always produce a
// pixel-identical bitmap. Each job constructs its own Renderer (font faces are
// not safe for concurrent use), so no layout state can leak between jobs. The
// ORP character is placed so its horizontal center sits at the canvas center,
// keeping the reader's fixation point stationary across frames.
package render
