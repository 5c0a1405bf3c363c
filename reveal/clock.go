package reveal

import (
	"sync"
	"time"
)

// CancelFunc drops a scheduled callback that has not run yet.
type CancelFunc func()

// Clock delivers frame callbacks. Each Schedule call fires fn at most once.
type Clock interface {
	Now() time.Time
	Schedule(fn func(now time.Time)) CancelFunc
}

// DefaultFrameInterval is roughly one 60Hz frame.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameClock fires callbacks on the wall clock after a fixed interval.
type FrameClock struct {
	interval time.Duration
}

// NewFrameClock creates a frame clock. Non-positive intervals use
// DefaultFrameInterval.
func NewFrameClock(interval time.Duration) *FrameClock {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameClock{interval: interval}
}

func (c *FrameClock) Now() time.Time { return time.Now() }

// Interval returns the frame spacing.
func (c *FrameClock) Interval() time.Duration { return c.interval }

func (c *FrameClock) Schedule(fn func(now time.Time)) CancelFunc {
	t := time.AfterFunc(c.interval, func() { fn(time.Now()) })
	return func() { t.Stop() }
}

// ManualClock is a Clock that only moves when told to. Used in tests and
// for rendering frames offline.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*scheduled
}

type scheduled struct {
	fn        func(time.Time)
	cancelled bool
}

// NewManualClock creates a manual clock at the given start time.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualClock) Schedule(fn func(now time.Time)) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &scheduled{fn: fn}
	m.pending = append(m.pending, s)
	return func() {
		m.mu.Lock()
		s.cancelled = true
		m.mu.Unlock()
	}
}

// Advance moves time forward by d and runs every callback scheduled before
// the call, in scheduling order. Callbacks scheduled while running wait
// for the next Advance.
func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	due := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, s := range due {
		m.mu.Lock()
		skip := s.cancelled
		m.mu.Unlock()
		if !skip {
			s.fn(now)
		}
	}
}

// Pending returns the number of live scheduled callbacks.
func (m *ManualClock) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.pending {
		if !s.cancelled {
			n++
		}
	}
	return n
}
