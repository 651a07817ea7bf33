// Package debounce schedules per-field validation as cancellable tasks:
// each new request for a field cancels the previously armed timer before
// re-arming the delay.
package debounce

import (
	"sync"
	"time"
)

// Scheduler debounces callbacks keyed by field name.
type Scheduler struct {
	delay time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func New(delay time.Duration) *Scheduler {
	return &Scheduler{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms fn to run after the delay. A previously scheduled task for
// the same field is cancelled first; re-arming on each keystroke keeps only
// the latest validation pending.
func (s *Scheduler) Schedule(field string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if t, ok := s.timers[field]; ok {
		t.Stop()
	}

	s.timers[field] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.timers, field)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops a pending task for the field, if any.
func (s *Scheduler) Cancel(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[field]; ok {
		t.Stop()
		delete(s.timers, field)
	}
}

// Stop cancels every pending task and rejects new schedules.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for field, t := range s.timers {
		t.Stop()
		delete(s.timers, field)
	}
}
