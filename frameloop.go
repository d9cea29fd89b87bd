package geocam

import "time"

// FrameHandle identifies a scheduled frame callback.
type FrameHandle uint64

// FrameLoop is the scheduling collaborator: a "call me before the next
// redraw" primitive plus an injectable clock and the host's reduced-motion
// preference. All callbacks run on the host's frame thread; the engine never
// spawns goroutines.
type FrameLoop interface {
	// ScheduleFrame registers fn to be invoked once on the next frame.
	ScheduleFrame(fn func(now time.Duration)) FrameHandle
	// CancelFrame drops a pending callback. Unknown handles are ignored.
	CancelFrame(h FrameHandle)
	// Now is the current time on the loop's monotonic clock.
	Now() time.Duration
	PrefersReducedMotion() bool
}

type scheduledFrame struct {
	handle FrameHandle
	fn     func(now time.Duration)
}

// ManualFrameLoop is a deterministic FrameLoop for tests and offline
// stepping: time only moves when Advance is called.
type ManualFrameLoop struct {
	now           time.Duration
	nextHandle    FrameHandle
	pending       []scheduledFrame
	reducedMotion bool
}

func NewManualFrameLoop() *ManualFrameLoop {
	return &ManualFrameLoop{}
}

func (l *ManualFrameLoop) ScheduleFrame(fn func(now time.Duration)) FrameHandle {
	l.nextHandle++
	l.pending = append(l.pending, scheduledFrame{handle: l.nextHandle, fn: fn})
	return l.nextHandle
}

func (l *ManualFrameLoop) CancelFrame(h FrameHandle) {
	for i, sf := range l.pending {
		if sf.handle == h {
			l.pending = append(l.pending[:i:i], l.pending[i+1:]...)
			return
		}
	}
}

func (l *ManualFrameLoop) Now() time.Duration { return l.now }

func (l *ManualFrameLoop) PrefersReducedMotion() bool { return l.reducedMotion }

// SetPrefersReducedMotion flips the host accessibility signal.
func (l *ManualFrameLoop) SetPrefersReducedMotion(on bool) { l.reducedMotion = on }

// HasPending reports whether a frame callback is armed.
func (l *ManualFrameLoop) HasPending() bool { return len(l.pending) > 0 }

// Advance moves the clock by dt and fires the callbacks that were pending
// before the move. Callbacks scheduled during the run wait for the next
// Advance, matching a real per-frame loop.
func (l *ManualFrameLoop) Advance(dt time.Duration) {
	l.now += dt
	due := l.pending
	l.pending = nil
	for _, sf := range due {
		sf.fn(l.now)
	}
}

// AdvanceUntilIdle advances in dt steps until no callback is pending, with a
// step cap so a misbehaving callback chain cannot spin forever.
func (l *ManualFrameLoop) AdvanceUntilIdle(dt time.Duration, maxSteps int) {
	for i := 0; i < maxSteps && l.HasPending(); i++ {
		l.Advance(dt)
	}
}

// TickerFrameLoop is a wall-clock FrameLoop for interactive hosts. The host
// calls Pump once per rendered frame.
type TickerFrameLoop struct {
	start         time.Time
	nextHandle    FrameHandle
	pending       []scheduledFrame
	reducedMotion bool
}

func NewTickerFrameLoop() *TickerFrameLoop {
	return &TickerFrameLoop{start: time.Now()}
}

func (l *TickerFrameLoop) ScheduleFrame(fn func(now time.Duration)) FrameHandle {
	l.nextHandle++
	l.pending = append(l.pending, scheduledFrame{handle: l.nextHandle, fn: fn})
	return l.nextHandle
}

func (l *TickerFrameLoop) CancelFrame(h FrameHandle) {
	for i, sf := range l.pending {
		if sf.handle == h {
			l.pending = append(l.pending[:i:i], l.pending[i+1:]...)
			return
		}
	}
}

func (l *TickerFrameLoop) Now() time.Duration { return time.Since(l.start) }

func (l *TickerFrameLoop) PrefersReducedMotion() bool { return l.reducedMotion }

func (l *TickerFrameLoop) SetPrefersReducedMotion(on bool) { l.reducedMotion = on }

// Pump fires the callbacks pending at the time of the call. Returns true if
// callbacks remain armed afterwards (the host should keep animating).
func (l *TickerFrameLoop) Pump() bool {
	due := l.pending
	l.pending = nil
	now := l.Now()
	for _, sf := range due {
		sf.fn(now)
	}
	return len(l.pending) > 0
}
