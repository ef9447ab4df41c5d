package service

import (
	"context"
	"sync"
	"time"
)

// Scheduler serializes operations through a single FIFO with a rolling
// per-window cap. When the cap is hit the drain loop pauses until the next
// window boundary; a fixed spacing delay separates consecutive operations.
// The clock and sleep functions are injectable so tests can drive it with a
// fake clock instead of waiting in real time.
type Scheduler struct {
	limit   int
	window  time.Duration
	spacing time.Duration

	now   func() time.Time
	sleep func(time.Duration)

	jobs chan func()

	mu          sync.Mutex
	count       int
	windowStart time.Time

	startOnce sync.Once
}

// NewScheduler creates a scheduler allowing limit operations per window with
// the given spacing between operations. Construct one per process and pass it
// to every caller that shares the provider's quota.
func NewScheduler(limit int, window, spacing time.Duration) *Scheduler {
	return &Scheduler{
		limit:   limit,
		window:  window,
		spacing: spacing,
		now:     time.Now,
		sleep:   time.Sleep,
		jobs:    make(chan func(), 256),
	}
}

// newSchedulerWithClock is the test constructor with an injected clock.
func newSchedulerWithClock(limit int, window, spacing time.Duration, now func() time.Time, sleep func(time.Duration)) *Scheduler {
	s := NewScheduler(limit, window, spacing)
	s.now = now
	s.sleep = sleep
	return s
}

func (s *Scheduler) start() {
	s.startOnce.Do(func() {
		s.windowStart = s.now()
		go s.drain()
	})
}

func (s *Scheduler) drain() {
	for job := range s.jobs {
		s.mu.Lock()
		if elapsed := s.now().Sub(s.windowStart); elapsed >= s.window {
			s.count = 0
			s.windowStart = s.now()
		}
		if s.count >= s.limit {
			wait := s.window - s.now().Sub(s.windowStart)
			s.mu.Unlock()
			if wait > 0 {
				s.sleep(wait)
			}
			s.mu.Lock()
			s.count = 0
			s.windowStart = s.now()
		}
		s.count++
		s.mu.Unlock()

		job()

		s.sleep(s.spacing)
	}
}

// Do enqueues op and waits for it to run. Returns the op's error, or the
// context's error if ctx ends before the op is dequeued.
func (s *Scheduler) Do(ctx context.Context, op func() error) error {
	s.start()

	done := make(chan error, 1)
	job := func() {
		done <- op()
	}

	select {
	case s.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
