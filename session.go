package geocam

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// easingSession captures one in-flight transition. It is created by a
// transition request, mutated only by the camera's frame callback, and
// destroyed when progress reaches 1, when a new request supersedes it
// (silently) or when Stop ends it (with end events, once).
type easingSession struct {
	id uuid.UUID

	startTime time.Duration
	duration  time.Duration
	easing    EasingFn

	// Axis flags: true only if the axis actually changes over the
	// transition. They decide which events fire.
	zooming  bool
	panning  bool
	rotating bool
	pitching bool
	padding  bool

	startZoom, endZoom       float64
	startBearing, endBearing float64
	startPitch, endPitch     float64
	startPadding, endPadding EdgeInsets

	// Pan geometry in world pixels at the start zoom.
	from  mgl64.Vec2
	delta mgl64.Vec2

	endCenter LngLat

	// Pivot geometry. around keeps a geographic point fixed on screen;
	// pointAtOffset is where the requested center ends up.
	around        *LngLat
	aroundPoint   mgl64.Vec2
	offset        mgl64.Vec2
	pointAtOffset mgl64.Vec2

	// flight is set for flyTo requests; nil sessions interpolate linearly.
	flight *FlyToPlan

	eventData   EventData
	noMoveStart bool

	// First-frame emission bookkeeping.
	zoomStarted   bool
	rotateStarted bool
	pitchStarted  bool

	frameHandle FrameHandle
	frameArmed  bool
}

func (s *easingSession) progress(now time.Duration) float64 {
	if s.duration <= 0 {
		return 1
	}
	return clamp(float64(now-s.startTime)/float64(s.duration), 0, 1)
}
