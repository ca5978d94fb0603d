// Package rsvp implements the timing engine: it turns free-form text plus a
// settings bundle into an ordered sequence of display units, each carrying the
// words shown together, the optimal recognition point within them, and the
// display duration.
//
// Segmentation is pure and deterministic; identical inputs always produce
// identical unit sequences, so a job can recompute its units at any point
// without retained state.
package rsvp
