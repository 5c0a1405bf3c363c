package reveal

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCancelled is returned by Run.Wait when the run was cancelled before
// it completed.
var ErrCancelled = errors.New("reveal: run cancelled")

// Run is one scheduled session.
type Run struct {
	mu      sync.Mutex
	session *Session
	clock   Clock
	render  func(string)
	onDone  func()

	cancel    CancelFunc
	stopped   bool
	cancelled bool
	finished  chan struct{}
}

func (r *Run) step(now time.Time) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	f := r.session.Tick(now)
	if !f.Waiting && r.render != nil {
		r.render(f.Text)
	}
	if !f.Done {
		r.cancel = r.clock.Schedule(r.step)
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.cancel = nil
	close(r.finished)
	onDone := r.onDone
	r.mu.Unlock()

	if onDone != nil {
		onDone()
	}
}

// Cancel stops the run. After Cancel returns the render callback is not
// called again and the completion callback never fires. Render callbacks
// must not call Cancel on their own run.
func (r *Run) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	r.cancelled = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	close(r.finished)
}

// Done is closed when the run completes or is cancelled.
func (r *Run) Done() <-chan struct{} { return r.finished }

// Cancelled reports whether the run was stopped before completing.
func (r *Run) Cancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// Wait blocks until the run ends. If ctx ends first the run is cancelled
// and ctx.Err() returned.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.finished:
		if r.Cancelled() {
			return ErrCancelled
		}
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// Animator drives reveals into a single render target. Starting a new
// reveal cancels the one in flight.
type Animator struct {
	clock Clock
	opts  []Option

	mu  sync.Mutex
	run *Run
}

// NewAnimator creates an animator ticking on clock. Options apply to every
// session it starts.
func NewAnimator(clock Clock, opts ...Option) *Animator {
	return &Animator{clock: clock, opts: opts}
}

// Start begins revealing markup. render receives every frame after the
// delay; onDone fires once after the final frame and may start another
// reveal on the same animator.
func (a *Animator) Start(markup string, cfg Config, render func(string), onDone func()) *Run {
	r := &Run{
		session:  NewSession(markup, cfg, a.opts...),
		clock:    a.clock,
		render:   render,
		onDone:   onDone,
		finished: make(chan struct{}),
	}

	a.mu.Lock()
	prev := a.run
	a.run = r
	a.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	r.mu.Lock()
	if !r.stopped {
		r.cancel = a.clock.Schedule(r.step)
	}
	r.mu.Unlock()
	return r
}

// Stop cancels the reveal in flight, if any.
func (a *Animator) Stop() {
	a.mu.Lock()
	r := a.run
	a.run = nil
	a.mu.Unlock()
	if r != nil {
		r.Cancel()
	}
}

// Play runs one reveal on clock until it completes or ctx ends.
func Play(ctx context.Context, clock Clock, markup string, cfg Config, render func(string), opts ...Option) error {
	run := NewAnimator(clock, opts...).Start(markup, cfg, render, nil)
	return run.Wait(ctx)
}

// Frames renders a reveal offline at a fixed step and returns every frame
// the render callback would have seen.
func Frames(markup string, cfg Config, step time.Duration, opts ...Option) []string {
	if step <= 0 {
		step = DefaultFrameInterval
	}
	s := NewSession(markup, cfg, opts...)
	now := time.Unix(0, 0)
	var frames []string
	for {
		f := s.Tick(now)
		if !f.Waiting {
			frames = append(frames, f.Text)
		}
		if f.Done {
			return frames
		}
		now = now.Add(step)
	}
}
