package timing

import (
	"math"
	"time"
)

// Constants for display refresh timing
const (
	DefaultRefreshRate = 60.0
	DefaultInterval    = time.Second / 60
)

// FrameInterval returns the duration of a single refresh at the given rate.
// Rates that are not positive fall back to DefaultInterval.
func FrameInterval(hz float64) time.Duration {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return DefaultInterval
	}
	d := time.Duration(float64(time.Second) / hz)
	if d <= 0 {
		return DefaultInterval
	}
	return d
}

// RefreshRate is the inverse of FrameInterval.
func RefreshRate(interval time.Duration) float64 {
	if interval <= 0 {
		return DefaultRefreshRate
	}
	return float64(time.Second) / float64(interval)
}
