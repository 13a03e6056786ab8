package capture

import (
	"sync"
	"time"
)

// synchronizer coordinates the driver's delivery goroutine (producer) and
// the goroutine blocked in CaptureFrame (consumer). The ready flag and the
// slot it guards are only ever touched under mu; the lock release in the
// delivery callback and the lock acquire after wake-up establish the
// happens-before edge that makes the copied frame fully visible to the
// waiter.
//
// wake carries at most one token. arm drains a stale token left over from a
// frame that arrived after a previous capture timed out, so it can never be
// mistaken for the current capture's signal.
type synchronizer struct {
	mu    sync.Mutex
	ready bool
	wake  chan struct{}
}

func newSynchronizer() *synchronizer {
	return &synchronizer{wake: make(chan struct{}, 1)}
}

// arm clears readiness ahead of a new capture. Must be called before the
// trigger is issued; this ordering is what rules out the lost-wakeup race
// when the frame arrives before the waiter starts waiting.
func (s *synchronizer) arm() {
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()

	select {
	case <-s.wake:
	default:
	}
}

// signal wakes the waiter after ready has been set under mu. The buffered
// send never blocks the delivery goroutine.
func (s *synchronizer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// waitUntil blocks until ready becomes true or the deadline passes. The
// condition is re-checked in a loop, so stray wake tokens are harmless.
func (s *synchronizer) waitUntil(deadline time.Time) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		s.mu.Lock()
		ready := s.ready
		s.mu.Unlock()
		if ready {
			return nil
		}

		select {
		case <-s.wake:
		case <-timer.C:
			// The frame may have landed between the last check and the
			// timer firing; prefer success over a spurious timeout.
			s.mu.Lock()
			ready = s.ready
			s.mu.Unlock()
			if ready {
				return nil
			}
			return ErrCaptureTimeout
		}
	}
}
