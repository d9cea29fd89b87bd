package geocam

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// defaultEaseDuration applies when an animated request does not specify one.
const defaultEaseDuration = 500 * time.Millisecond

// Ptr is a convenience for building option structs with literal values.
func Ptr[T any](v T) *T { return &v }

// CameraConfig wires the camera to its collaborators. Every field is
// optional; zero values resolve to a 512x512 default transform, a manual
// frame loop, a discarding emitter and a nop logger.
type CameraConfig struct {
	Transform ViewTransform
	Loop      FrameLoop
	Emitter   Emitter
	Logger    Logger
}

// Camera turns declarative view requests into a time-varying camera state.
// It owns at most one easing session at a time: every request replaces the
// previous session (silently) before starting, so cancellation is a
// synchronous O(1) operation that never emits spurious events.
//
// All methods must be called from the host's frame thread; the camera never
// locks and never spawns goroutines.
type Camera struct {
	tr      ViewTransform
	loop    FrameLoop
	emitter Emitter
	log     Logger

	session *easingSession
}

func NewCamera(cfg CameraConfig) *Camera {
	if cfg.Transform == nil {
		cfg.Transform = NewTransform(512, 512)
	}
	if cfg.Loop == nil {
		cfg.Loop = NewManualFrameLoop()
	}
	if cfg.Emitter == nil {
		cfg.Emitter = NewNopEmitter()
	}
	if cfg.Logger == nil {
		cfg.Logger = NewNopLogger()
	}
	return &Camera{tr: cfg.Transform, loop: cfg.Loop, emitter: cfg.Emitter, log: cfg.Logger}
}

func (c *Camera) Transform() ViewTransform { return c.tr }

func (c *Camera) GetCenter() LngLat      { return c.tr.Center() }
func (c *Camera) GetZoom() float64       { return c.tr.Zoom() }
func (c *Camera) GetBearing() float64    { return c.tr.Bearing() }
func (c *Camera) GetPitch() float64      { return c.tr.Pitch() }
func (c *Camera) GetPadding() EdgeInsets { return c.tr.Padding() }

// IsEasing reports whether a transition is in flight. It turns false before
// the final moveend fires, so an end handler may immediately start the next
// transition.
func (c *Camera) IsEasing() bool { return c.session != nil }

// IsZooming reports whether the in-flight transition changes the zoom.
func (c *Camera) IsZooming() bool { return c.session != nil && c.session.zooming }

// IsRotating reports whether the in-flight transition changes the bearing.
func (c *Camera) IsRotating() bool { return c.session != nil && c.session.rotating }

// IsPitching reports whether the in-flight transition changes the pitch.
func (c *Camera) IsPitching() bool { return c.session != nil && c.session.pitching }

// IsPanning reports whether the in-flight transition moves the center.
func (c *Camera) IsPanning() bool { return c.session != nil && c.session.panning }

// JumpToOptions is the target of an instantaneous request. Nil fields keep
// their current values.
type JumpToOptions struct {
	Center  *LngLat
	Zoom    *float64
	Bearing *float64
	Pitch   *float64
	Padding *EdgeInsets
}

// EaseOptions parameterizes a linear (easeTo) transition. Nil target fields
// keep their current values.
type EaseOptions struct {
	Center  *LngLat
	Zoom    *float64
	Bearing *float64
	Pitch   *float64
	Padding *EdgeInsets

	// Offset shifts where the requested center lands, in pixels relative to
	// the padded viewport center (screen axes, so it follows the current
	// bearing).
	Offset mgl64.Vec2
	// Around keeps the given coordinate fixed on screen while zoom and
	// bearing change around it.
	Around *LngLat

	// Duration defaults to 500ms. Animate=false forces an instantaneous
	// apply; Essential animates even when the host prefers reduced motion.
	Duration    *time.Duration
	Easing      EasingFn
	Animate     *bool
	Essential   bool
	NoMoveStart bool
}

// FlyToOptions parameterizes a flight along the zoom-out/pan/zoom-in curve.
type FlyToOptions struct {
	EaseOptions

	// Curve is rho, the zoom-out shape constant (default 1.42).
	Curve float64
	// MinZoom floors the flight's zoom-out excursion (clamped against the
	// transform's own zoom range).
	MinZoom *float64
	// Speed is the average flight speed in screenfuls per second relative to
	// the curve (default 1.2). ScreenSpeed overrides it without the curve
	// normalization.
	Speed       float64
	ScreenSpeed float64
	// MaxDuration degrades the flight to an instantaneous jump when the
	// explicit or computed duration exceeds it.
	MaxDuration time.Duration
}

// JumpTo applies the target immediately and emits the start/change/end
// triple for every axis that actually changed, wrapped in the move group.
func (c *Camera) JumpTo(opts JumpToOptions, data EventData) error {
	if opts.Center != nil && !opts.Center.Valid() {
		return ErrInvalidCenter
	}
	c.cancelSession()

	tr := c.tr
	id := uuid.New()
	zoomChanged := opts.Zoom != nil && clamp(*opts.Zoom, tr.MinZoom(), tr.MaxZoom()) != tr.Zoom()
	bearingChanged := opts.Bearing != nil && wrapDegrees(*opts.Bearing) != tr.Bearing()
	pitchChanged := opts.Pitch != nil && clamp(*opts.Pitch, 0, tr.MaxPitch()) != tr.Pitch()

	if opts.Center != nil {
		tr.SetCenter(opts.Center.Wrap())
	}
	if opts.Zoom != nil {
		tr.SetZoom(*opts.Zoom)
	}
	if opts.Bearing != nil {
		tr.SetBearing(*opts.Bearing)
	}
	if opts.Pitch != nil {
		tr.SetPitch(*opts.Pitch)
	}
	if opts.Padding != nil {
		tr.SetPadding(*opts.Padding)
	}

	c.emitInstant(id, data, zoomChanged, bearingChanged, pitchChanged, false)
	return nil
}

// emitInstant fires the synchronous event set of an instantaneous request:
// movestart (unless suppressed), the per-axis triples in zoom/rotate/pitch
// order, then move and moveend.
func (c *Camera) emitInstant(id uuid.UUID, data EventData, zoomed, rotated, pitched, noMoveStart bool) {
	if !noMoveStart {
		c.emit(EventMoveStart, id, data)
	}
	if zoomed {
		c.emit(EventZoomStart, id, data)
		c.emit(EventZoom, id, data)
		c.emit(EventZoomEnd, id, data)
	}
	if rotated {
		c.emit(EventRotateStart, id, data)
		c.emit(EventRotate, id, data)
		c.emit(EventRotateEnd, id, data)
	}
	if pitched {
		c.emit(EventPitchStart, id, data)
		c.emit(EventPitch, id, data)
		c.emit(EventPitchEnd, id, data)
	}
	c.emit(EventMove, id, data)
	c.emit(EventMoveEnd, id, data)
}

// EaseTo transitions to the target with linearly interpolated (eased) state.
func (c *Camera) EaseTo(opts EaseOptions, data EventData) error {
	if opts.Center != nil && !opts.Center.Valid() {
		return ErrInvalidCenter
	}
	if opts.Around != nil && !opts.Around.Valid() {
		return ErrInvalidCenter
	}

	s, err := c.buildSession(opts)
	if err != nil {
		return err
	}
	s.eventData = data
	c.startSession(s)
	return nil
}

// FlyTo transitions along the combined zoom/pan curve: zoom out, translate,
// zoom back in.
func (c *Camera) FlyTo(opts FlyToOptions, data EventData) error {
	if opts.Center != nil && !opts.Center.Valid() {
		return ErrInvalidCenter
	}
	if opts.Around != nil && !opts.Around.Valid() {
		return ErrInvalidCenter
	}

	s, err := c.buildSession(opts.EaseOptions)
	if err != nil {
		return err
	}
	s.eventData = data

	tr := c.tr
	u1 := s.delta.Len()
	w0 := math.Max(tr.Width(), tr.Height())

	// The zoom-out excursion never drops below the transform's floor, or the
	// caller's tighter one.
	effMinZoom := tr.MinZoom()
	if opts.MinZoom != nil {
		effMinZoom = clamp(math.Min(math.Min(*opts.MinZoom, s.startZoom), s.endZoom), tr.MinZoom(), tr.MaxZoom())
	}
	wMax := w0 * zoomScale(s.startZoom-effMinZoom)

	plan := PlanFly(w0, s.startZoom, s.endZoom, u1, opts.Curve, wMax)
	if plan.Degenerate() {
		// Start and target coincide with no zoom change: no path curve, run
		// the plain time-based interpolation instead.
		c.log.Debugf("flyTo degenerate, falling back to easeTo")
		c.startSession(s)
		return nil
	}

	s.flight = &plan
	// The curve changes zoom mid-flight even when the endpoint zooms match.
	s.zooming = true
	if plan.exponential {
		s.zooming = s.startZoom != s.endZoom
	}

	if opts.Duration != nil {
		s.duration = *opts.Duration
	} else {
		s.duration = plan.Duration(opts.Speed, opts.ScreenSpeed)
	}
	if opts.Animate != nil && !*opts.Animate {
		s.duration = 0
	}
	if c.loop.PrefersReducedMotion() && !opts.Essential {
		s.duration = 0
	}
	if opts.MaxDuration > 0 && s.duration > opts.MaxDuration {
		s.duration = 0
	}

	c.startSession(s)
	return nil
}

// buildSession resolves an ease request against the current transform state
// into a session. The caller adjusts duration/flight fields for flyTo.
func (c *Camera) buildSession(opts EaseOptions) (*easingSession, error) {
	tr := c.tr

	s := &easingSession{
		id:           uuid.New(),
		easing:       opts.Easing,
		eventData:    nil,
		noMoveStart:  opts.NoMoveStart,
		startZoom:    tr.Zoom(),
		startBearing: tr.Bearing(),
		startPitch:   tr.Pitch(),
		startPadding: tr.Padding(),
	}
	if s.easing == nil {
		s.easing = EaseInOutCubic
	}

	s.duration = defaultEaseDuration
	if opts.Duration != nil {
		s.duration = *opts.Duration
	}
	if opts.Animate != nil && !*opts.Animate {
		s.duration = 0
	}
	if c.loop.PrefersReducedMotion() && !opts.Essential {
		s.duration = 0
	}

	s.endZoom = s.startZoom
	if opts.Zoom != nil {
		s.endZoom = clamp(*opts.Zoom, tr.MinZoom(), tr.MaxZoom())
	}
	s.endBearing = s.startBearing
	if opts.Bearing != nil {
		// Always rotate the short way.
		s.endBearing = s.startBearing + shortestAngleDelta(s.startBearing, *opts.Bearing)
	}
	s.endPitch = s.startPitch
	if opts.Pitch != nil {
		s.endPitch = clamp(*opts.Pitch, 0, tr.MaxPitch())
	}
	s.endPadding = s.startPadding
	if opts.Padding != nil {
		s.endPadding = *opts.Padding
	}

	s.offset = opts.Offset
	s.pointAtOffset = tr.CenterPoint().Add(opts.Offset)
	locationAtOffset, ok := tr.PointLocation(s.pointAtOffset)
	if !ok {
		// Offset point above the horizon; fall back to the focal point.
		locationAtOffset = tr.Center()
		s.pointAtOffset = tr.CenterPoint()
	}

	center := locationAtOffset
	if opts.Center != nil {
		center = opts.Center.Wrap()
	}
	center = normalizeCenterForPath(tr, center)
	s.endCenter = center

	s.from = tr.Project(locationAtOffset)
	s.delta = tr.Project(center).Sub(s.from)

	if opts.Around != nil {
		around := *opts.Around
		s.around = &around
		s.aroundPoint = tr.LocationPoint(around)
	}

	s.zooming = s.endZoom != s.startZoom
	s.rotating = s.endBearing != s.startBearing
	s.pitching = s.endPitch != s.startPitch
	s.padding = !s.endPadding.Equal(s.startPadding)
	s.panning = s.delta.Len() > 0

	return s, nil
}

// startSession replaces any in-flight session (silently) and either applies
// the target instantaneously (duration 0) or arms the per-frame callback.
func (c *Camera) startSession(s *easingSession) {
	c.cancelSession()

	if s.duration <= 0 {
		c.applySessionState(s, 1)
		c.emitInstant(s.id, s.eventData, s.zooming, s.rotating, s.pitching, s.noMoveStart)
		c.log.Debugf("session %s applied instantaneously", s.id)
		return
	}

	s.startTime = c.loop.Now()
	c.session = s
	c.log.Debugf("session %s started (duration %s)", s.id, s.duration)
	if !s.noMoveStart {
		c.emit(EventMoveStart, s.id, s.eventData)
	}
	c.armFrame()
}

// Stop ends the in-flight transition at its current interpolated values and
// fires the end events for the axes that were animating. Idempotent: a
// second call while idle is a no-op.
func (c *Camera) Stop() {
	s := c.session
	if s == nil {
		return
	}
	if s.frameArmed {
		c.loop.CancelFrame(s.frameHandle)
		s.frameArmed = false
	}
	c.log.Debugf("session %s stopped", s.id)
	c.finishSession(s)
}

// cancelSession silently discards the in-flight session: no events, no stale
// frame callback.
func (c *Camera) cancelSession() {
	s := c.session
	if s == nil {
		return
	}
	if s.frameArmed {
		c.loop.CancelFrame(s.frameHandle)
		s.frameArmed = false
	}
	c.session = nil
	c.log.Debugf("session %s superseded", s.id)
}

func (c *Camera) armFrame() {
	s := c.session
	s.frameArmed = true
	s.frameHandle = c.loop.ScheduleFrame(c.step)
}

// step advances the in-flight session to the given time. It is the only
// frame callback the camera registers.
func (c *Camera) step(now time.Duration) {
	s := c.session
	if s == nil {
		return
	}
	s.frameArmed = false

	t := s.progress(now)
	k := s.easing(t)
	if t >= 1 {
		k = 1
	}

	c.applySessionState(s, k)
	c.emitFrameEvents(s)

	// A frame handler may have stopped this session or started another one;
	// the replacement armed its own frame, so this one must not finish or
	// re-arm on its behalf.
	if c.session != s {
		return
	}

	if t >= 1 {
		c.log.Debugf("session %s finished", s.id)
		c.finishSession(s)
		return
	}
	c.armFrame()
}

// finishSession clears the session, then emits the end events in the fixed
// zoom/rotate/pitch/move order. Clearing first makes the camera re-entrant:
// an end handler may start the next transition.
func (c *Camera) finishSession(s *easingSession) {
	c.session = nil
	if s.zooming {
		c.emit(EventZoomEnd, s.id, s.eventData)
	}
	if s.rotating {
		c.emit(EventRotateEnd, s.id, s.eventData)
	}
	if s.pitching {
		c.emit(EventPitchEnd, s.id, s.eventData)
	}
	c.emit(EventMoveEnd, s.id, s.eventData)
}

// applySessionState writes the interpolated state for eased progress k into
// the transform. k = 1 snaps exactly to the target values.
func (c *Camera) applySessionState(s *easingSession, k float64) {
	tr := c.tr
	finished := k >= 1

	if s.zooming {
		switch {
		case finished:
			tr.SetZoom(s.endZoom)
		case s.flight != nil:
			tr.SetZoom(s.flight.Zoom(k))
		default:
			tr.SetZoom(lerp(s.startZoom, s.endZoom, k))
		}
	}
	if s.rotating {
		if finished {
			tr.SetBearing(s.endBearing)
		} else {
			tr.SetBearing(lerp(s.startBearing, s.endBearing, k))
		}
	}
	if s.pitching {
		if finished {
			tr.SetPitch(s.endPitch)
		} else {
			tr.SetPitch(lerp(s.startPitch, s.endPitch, k))
		}
	}
	if s.padding {
		tr.SetPadding(s.startPadding.Lerp(s.endPadding, k))
		s.pointAtOffset = tr.CenterPoint().Add(s.offset)
	}

	if s.around != nil {
		tr.SetLocationAtPoint(*s.around, s.aroundPoint)
		return
	}

	target := s.endCenter
	if !finished {
		var w mgl64.Vec2
		if s.flight != nil {
			w = s.from.Add(s.delta.Mul(s.flight.PathFraction(k))).Mul(s.flight.Scale(k))
		} else {
			scale := zoomScale(tr.Zoom() - s.startZoom)
			finalScale := zoomScale(s.endZoom - s.startZoom)
			// Move the center faster while zoomed out so the on-screen speed
			// of the pan stays steady across the zoom change.
			var base float64
			if s.endZoom > s.startZoom {
				base = math.Min(2, finalScale)
			} else {
				base = math.Max(0.5, finalScale)
			}
			speedup := math.Pow(base, 1-k)
			w = s.from.Add(s.delta.Mul(k * speedup)).Mul(scale)
		}
		target = tr.Unproject(w)
	}
	if tr.RenderWorldCopies() {
		target = target.Wrap()
	}
	tr.SetLocationAtPoint(target, s.pointAtOffset)
}

// emitFrameEvents fires the per-frame event set: each active axis's start on
// its first frame, its change event every frame, then the umbrella move.
func (c *Camera) emitFrameEvents(s *easingSession) {
	if s.zooming {
		if !s.zoomStarted {
			s.zoomStarted = true
			c.emit(EventZoomStart, s.id, s.eventData)
		}
		c.emit(EventZoom, s.id, s.eventData)
	}
	if s.rotating {
		if !s.rotateStarted {
			s.rotateStarted = true
			c.emit(EventRotateStart, s.id, s.eventData)
		}
		c.emit(EventRotate, s.id, s.eventData)
	}
	if s.pitching {
		if !s.pitchStarted {
			s.pitchStarted = true
			c.emit(EventPitchStart, s.id, s.eventData)
		}
		c.emit(EventPitch, s.id, s.eventData)
	}
	c.emit(EventMove, s.id, s.eventData)
}

func (c *Camera) emit(eventType string, id uuid.UUID, data EventData) {
	c.emitter.Emit(Event{Type: eventType, SessionID: id, Data: data})
}

// normalizeCenterForPath adjusts the target longitude by a world so a
// transition crossing the antimeridian interpolates monotonically through
// the seam. With world copies disabled the longer, non-wrapping path is kept.
func normalizeCenterForPath(tr ViewTransform, center LngLat) LngLat {
	if !tr.RenderWorldCopies() {
		return center
	}
	d := center.Lng - tr.Center().Lng
	if d > 180 {
		center.Lng -= 360
	} else if d < -180 {
		center.Lng += 360
	}
	return center
}

// PanBy pans the map by the given screen-pixel offset (screen axes, so the
// pan direction follows the current bearing).
func (c *Camera) PanBy(offset mgl64.Vec2, opts EaseOptions, data EventData) error {
	opts.Offset = offset.Mul(-1)
	opts.Center = Ptr(c.tr.Center())
	return c.EaseTo(opts, data)
}

// PanTo eases the center to the given coordinate.
func (c *Camera) PanTo(center LngLat, opts EaseOptions, data EventData) error {
	opts.Center = &center
	return c.EaseTo(opts, data)
}

// ZoomTo eases to the given zoom level.
func (c *Camera) ZoomTo(zoom float64, opts EaseOptions, data EventData) error {
	opts.Zoom = &zoom
	return c.EaseTo(opts, data)
}

// RotateTo eases to the given bearing, rotating the short way.
func (c *Camera) RotateTo(bearing float64, opts EaseOptions, data EventData) error {
	opts.Bearing = &bearing
	return c.EaseTo(opts, data)
}

// ResetNorth rotates the bearing back to 0 the short way.
func (c *Camera) ResetNorth(opts EaseOptions, data EventData) error {
	return c.RotateTo(0, opts, data)
}

// ResetNorthPitch rotates the bearing back to 0 and levels the pitch.
func (c *Camera) ResetNorthPitch(opts EaseOptions, data EventData) error {
	opts.Bearing = Ptr(0.0)
	opts.Pitch = Ptr(0.0)
	return c.EaseTo(opts, data)
}
