package vsync

import "sync"

// waitSlot holds the single outstanding callback of a waiter. Each armed
// wait gets a new generation; deliveries carry the generation they were
// armed with and are ignored once it is stale, which is how a timer or
// platform signal that outlives its wait (or the waiter) becomes a no-op.
type waitSlot struct {
	mu       sync.Mutex
	callback Callback
	gen      uint64
	cancel   func() bool
	closed   bool
}

func (s *waitSlot) arm(cb Callback) (uint64, error) {
	if cb == nil {
		return 0, ErrNilCallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrWaiterClosed
	}
	if s.callback != nil {
		return 0, ErrWaitPending
	}
	s.gen++
	s.callback = cb
	s.cancel = nil
	return s.gen, nil
}

// setCancel attaches a cancel func to the wait armed as gen. If that wait is
// already gone the func is called right away.
func (s *waitSlot) setCancel(gen uint64, cancel func() bool) {
	if cancel == nil {
		return
	}

	s.mu.Lock()
	if s.closed || s.gen != gen || s.callback == nil {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()
}

// take hands out the callback armed as gen and returns the slot to idle.
// It returns nil for stale generations and closed slots.
func (s *waitSlot) take(gen uint64) Callback {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.gen != gen {
		return nil
	}
	cb := s.callback
	s.callback = nil
	s.cancel = nil
	return cb
}

// release abandons the wait armed as gen without invoking it.
func (s *waitSlot) release(gen uint64) {
	s.take(gen)
}

func (s *waitSlot) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callback != nil
}

func (s *waitSlot) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.callback = nil
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
