package animator

import "time"

// Frame describes one vsync-driven frame.
type Frame struct {
	Number    uint64    // 1 for the first frame
	Start     time.Time // vsync instant the frame belongs to
	Target    time.Time // estimated next vsync, the frame deadline
	Delivered time.Time // when the frame callback started
	Skipped   uint64    // vsync ticks that passed since the previous frame without one
}

// Interval is the refresh interval implied by the vsync pair.
func (f Frame) Interval() time.Duration {
	return f.Target.Sub(f.Start)
}

// Lateness is how long after the vsync instant the frame was delivered.
func (f Frame) Lateness() time.Duration {
	return f.Delivered.Sub(f.Start)
}

// Budget is the time left for producing the frame before its deadline.
func (f Frame) Budget() time.Duration {
	return f.Target.Sub(f.Delivered)
}

// skippedTicks counts whole intervals between two frame starts, minus the
// one that is expected.
func skippedTicks(lastStart, start time.Time, interval time.Duration) uint64 {
	if lastStart.IsZero() || interval <= 0 {
		return 0
	}
	n := int64((start.Sub(lastStart)+interval/2)/interval) - 1
	if n <= 0 {
		return 0
	}
	return uint64(n)
}
