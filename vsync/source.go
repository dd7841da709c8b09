package vsync

import (
	"sync"
	"time"

	"github.com/valerio/go-vsync/vsync/timing"
)

// ChannelSource turns a stream of raw vblank instants, such as the return
// times of a blocking present call, into a Source. Ticks that arrive while
// no request is armed are discarded.
type ChannelSource struct {
	mu       sync.Mutex
	fire     func(frameStart, frameTarget time.Time)
	closed   bool
	armed    uint64
	last     time.Time
	estimate time.Duration

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ Source = (*ChannelSource)(nil)

// NewChannelSource starts reading ticks until the channel is closed or the
// source is closed. nominal seeds the refresh interval estimate used for
// frame targets; non-positive values select timing.DefaultInterval.
func NewChannelSource(ticks <-chan time.Time, nominal time.Duration) *ChannelSource {
	if nominal <= 0 {
		nominal = timing.DefaultInterval
	}
	s := &ChannelSource{
		estimate: nominal,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run(ticks)
	return s
}

func (s *ChannelSource) RequestVsync(fire func(frameStart, frameTarget time.Time)) (func() bool, error) {
	if fire == nil {
		return nil, ErrNilCallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceClosed
	}
	if s.fire != nil {
		return nil, ErrWaitPending
	}
	s.armed++
	s.fire = fire

	id := s.armed
	return func() bool { return s.withdraw(id) }, nil
}

// withdraw drops the request armed as id unless it already fired.
func (s *ChannelSource) withdraw(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fire == nil || s.armed != id {
		return false
	}
	s.fire = nil
	return true
}

// Interval is the current estimate of the refresh interval.
func (s *ChannelSource) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimate
}

// Close stops the reader goroutine and drops an armed request.
func (s *ChannelSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
	return nil
}

// Done is closed once the source stops delivering.
func (s *ChannelSource) Done() <-chan struct{} {
	return s.done
}

func (s *ChannelSource) run(ticks <-chan time.Time) {
	defer func() {
		s.mu.Lock()
		s.closed = true
		s.fire = nil
		s.mu.Unlock()
		close(s.done)
	}()

	for {
		select {
		case <-s.quit:
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			s.deliver(tick)
		}
	}
}

func (s *ChannelSource) deliver(tick time.Time) {
	s.mu.Lock()
	if !s.last.IsZero() {
		// smooth over plausible gaps only, a stall says nothing about the rate
		if gap := tick.Sub(s.last); gap > 0 && gap < 2*s.estimate {
			s.estimate += (gap - s.estimate) / 8
		}
	}
	s.last = tick
	fire := s.fire
	s.fire = nil
	target := tick.Add(s.estimate)
	s.mu.Unlock()

	if fire != nil {
		fire(tick, target)
	}
}
