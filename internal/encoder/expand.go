package encoder

import (
	"math"
	"time"
)

// ExpandCount returns how many output frames a bitmap occupies at the given
// frame rate. The duration is rounded to the nearest whole frame, with a
// floor of one so every display unit is visible even at extreme speeds.
func ExpandCount(d time.Duration, fps int) int {
	n := int(math.Round(d.Seconds() * float64(fps)))
	if n < 1 {
		n = 1
	}
	return n
}
