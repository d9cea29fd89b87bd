package geocam

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// tileBase is the width of the world in pixels at zoom 0.
const tileBase = 256.0

// fieldOfView is the vertical camera field of view in radians. The value
// keeps the distance from the camera to the center plane at exactly
// 1.5 viewport heights.
const fieldOfView = 0.6435011087932844

// Projection selects the surface model used when fitting and framing
// content. Transitions always interpolate in planar Mercator space; the
// projection changes how the Bounds Fitter measures the region to frame.
type Projection int

const (
	ProjectionMercator Projection = iota
	ProjectionGlobe
)

// ViewTransform is the camera engine's view of the map state. The engine
// reads and writes center/zoom/bearing/pitch/padding through it and relies
// on it for geographic<->screen conversion; it never renders.
type ViewTransform interface {
	Center() LngLat
	SetCenter(LngLat)
	Zoom() float64
	SetZoom(float64)
	Bearing() float64
	SetBearing(float64)
	Pitch() float64
	SetPitch(float64)
	Padding() EdgeInsets
	SetPadding(EdgeInsets)

	MinZoom() float64
	MaxZoom() float64
	MaxPitch() float64

	Width() float64
	Height() float64
	// WorldSize is the width of the full world in pixels at the current zoom.
	WorldSize() float64

	// Project converts a coordinate to absolute world pixels at the current
	// zoom; Unproject is its inverse. Neither involves the viewport.
	Project(LngLat) mgl64.Vec2
	Unproject(mgl64.Vec2) LngLat

	// LocationPoint converts a coordinate to viewport pixels under the
	// current bearing and pitch. PointLocation is the inverse; it reports
	// false when the screen point does not hit the ground plane (at or above
	// the horizon under high pitch).
	LocationPoint(LngLat) mgl64.Vec2
	PointLocation(mgl64.Vec2) (LngLat, bool)

	// CenterPoint is the viewport focal point: the screen position of the
	// center coordinate, shifted by the persistent padding.
	CenterPoint() mgl64.Vec2
	// SetLocationAtPoint moves the center so that the given coordinate
	// projects to the given viewport pixel. Reports false when the pixel is
	// unusable (above the horizon).
	SetLocationAtPoint(LngLat, mgl64.Vec2) bool

	RenderWorldCopies() bool
	Projection() Projection
}

// Transform is the default planar ViewTransform: Web Mercator on a 256-px
// tile base with a perspective camera (bearing and pitch affect screen
// conversion, pitch 0 degenerates to plain planar math).
type Transform struct {
	width  float64
	height float64

	center  LngLat
	zoom    float64
	bearing float64
	pitch   float64
	padding EdgeInsets

	minZoom  float64
	maxZoom  float64
	maxPitch float64

	renderWorldCopies bool
	projection        Projection
}

var _ ViewTransform = (*Transform)(nil)

// NewTransform creates a transform with the given viewport size and the
// default limits (zoom -2..22, pitch 0..85, world copies on). The negative
// floor leaves room for flight curves to overshoot past zoom 0.
func NewTransform(width, height float64) *Transform {
	return &Transform{
		width:             width,
		height:            height,
		zoom:              0,
		minZoom:           -2,
		maxZoom:           22,
		maxPitch:          85,
		renderWorldCopies: true,
		projection:        ProjectionMercator,
	}
}

func (t *Transform) Center() LngLat { return t.center }

// SetCenter clamps latitude to the Mercator range. Longitude is stored as
// given; transitions rely on transiently out-of-range longitudes near the
// antimeridian.
func (t *Transform) SetCenter(ll LngLat) {
	ll.Lat = clamp(ll.Lat, -MaxMercatorLatitude, MaxMercatorLatitude)
	t.center = ll
}

func (t *Transform) Zoom() float64     { return t.zoom }
func (t *Transform) SetZoom(z float64) { t.zoom = clamp(z, t.minZoom, t.maxZoom) }

func (t *Transform) Bearing() float64     { return t.bearing }
func (t *Transform) SetBearing(b float64) { t.bearing = wrapDegrees(b) }

func (t *Transform) Pitch() float64     { return t.pitch }
func (t *Transform) SetPitch(p float64) { t.pitch = clamp(p, 0, t.maxPitch) }

func (t *Transform) Padding() EdgeInsets     { return t.padding }
func (t *Transform) SetPadding(p EdgeInsets) { t.padding = p }

func (t *Transform) MinZoom() float64  { return t.minZoom }
func (t *Transform) MaxZoom() float64  { return t.maxZoom }
func (t *Transform) MaxPitch() float64 { return t.maxPitch }

// SetZoomRange adjusts the zoom limits and re-clamps the current zoom.
func (t *Transform) SetZoomRange(min, max float64) {
	t.minZoom = min
	t.maxZoom = max
	t.zoom = clamp(t.zoom, min, max)
}

// SetMaxPitch adjusts the pitch limit and re-clamps the current pitch.
func (t *Transform) SetMaxPitch(max float64) {
	t.maxPitch = max
	t.pitch = clamp(t.pitch, 0, max)
}

func (t *Transform) Width() float64  { return t.width }
func (t *Transform) Height() float64 { return t.height }

// Resize updates the viewport dimensions.
func (t *Transform) Resize(width, height float64) {
	t.width = width
	t.height = height
}

func (t *Transform) WorldSize() float64 { return tileBase * math.Exp2(t.zoom) }

func (t *Transform) RenderWorldCopies() bool { return t.renderWorldCopies }

// SetRenderWorldCopies toggles antimeridian wrap-around. With copies off,
// transitions take the non-wrapping path.
func (t *Transform) SetRenderWorldCopies(on bool) { t.renderWorldCopies = on }

func (t *Transform) Projection() Projection        { return t.projection }
func (t *Transform) SetProjection(proj Projection) { t.projection = proj }

func (t *Transform) Project(ll LngLat) mgl64.Vec2 {
	ws := t.WorldSize()
	return mgl64.Vec2{
		(ll.Lng + 180) / 360 * ws,
		mercatorYFromLat(ll.Lat) * ws,
	}
}

func (t *Transform) Unproject(p mgl64.Vec2) LngLat {
	ws := t.WorldSize()
	return LngLat{
		Lng: p.X()/ws*360 - 180,
		Lat: latFromMercatorY(p.Y() / ws),
	}
}

func (t *Transform) CenterPoint() mgl64.Vec2 {
	return mgl64.Vec2{
		t.width/2 + (t.padding.Left-t.padding.Right)/2,
		t.height/2 + (t.padding.Top-t.padding.Bottom)/2,
	}
}

// cameraToCenterDistance is the distance from the camera to the focal point
// on the ground plane, in pixels at the current zoom.
func (t *Transform) cameraToCenterDistance() float64 {
	return 0.5 * t.height / math.Tan(fieldOfView/2)
}

// cameraBasis returns the forward, right and screen-up axes of the camera in
// world-pixel space (x east, y south, z up).
func (t *Transform) cameraBasis() (forward, right, up mgl64.Vec3) {
	return cameraAxes(t.bearing, t.pitch)
}

// cameraAxes derives the camera basis from bearing and pitch in degrees.
// Forward points from the camera toward the ground.
func cameraAxes(bearingDeg, pitchDeg float64) (forward, right, up mgl64.Vec3) {
	b := mgl64.DegToRad(bearingDeg)
	p := mgl64.DegToRad(pitchDeg)
	forward = mgl64.Vec3{
		math.Sin(b) * math.Sin(p),
		-math.Cos(b) * math.Sin(p),
		-math.Cos(p),
	}
	right = mgl64.Vec3{math.Cos(b), math.Sin(b), 0}
	up = forward.Cross(right)
	return
}

// cameraPosition is the camera location in world pixels, z up.
func (t *Transform) cameraPosition() mgl64.Vec3 {
	c := t.Project(t.center)
	f, _, _ := t.cameraBasis()
	d := t.cameraToCenterDistance()
	return mgl64.Vec3{c.X(), c.Y(), 0}.Sub(f.Mul(d))
}

func (t *Transform) LocationPoint(ll LngLat) mgl64.Vec2 {
	w := t.Project(ll)
	f, r, u := t.cameraBasis()
	pos := t.cameraPosition()
	d := t.cameraToCenterDistance()
	v := mgl64.Vec3{w.X(), w.Y(), 0}.Sub(pos)
	depth := v.Dot(f)
	cp := t.CenterPoint()
	return mgl64.Vec2{
		cp.X() + v.Dot(r)/depth*d,
		cp.Y() - v.Dot(u)/depth*d,
	}
}

func (t *Transform) PointLocation(p mgl64.Vec2) (LngLat, bool) {
	f, r, u := t.cameraBasis()
	pos := t.cameraPosition()
	d := t.cameraToCenterDistance()
	cp := t.CenterPoint()
	dir := f.Add(r.Mul((p.X() - cp.X()) / d)).Sub(u.Mul((p.Y() - cp.Y()) / d))
	if dir.Z() >= -1e-12 {
		// Ray parallel to or pointing away from the ground plane.
		return LngLat{}, false
	}
	s := -pos.Z() / dir.Z()
	hit := pos.Add(dir.Mul(s))
	if math.IsNaN(hit.X()) || math.IsNaN(hit.Y()) {
		return LngLat{}, false
	}
	return t.Unproject(mgl64.Vec2{hit.X(), hit.Y()}), true
}

func (t *Transform) SetLocationAtPoint(ll LngLat, p mgl64.Vec2) bool {
	at, ok := t.PointLocation(p)
	if !ok {
		return false
	}
	want := t.Project(ll)
	have := t.Project(at)
	c := t.Project(t.center)
	t.SetCenter(t.Unproject(c.Add(want.Sub(have))))
	return true
}

// mercatorYFromLat maps latitude to the [0, 1] Mercator y range, north at 0.
func mercatorYFromLat(lat float64) float64 {
	rad := lat * math.Pi / 180
	return (1 - math.Log(math.Tan(math.Pi/4+rad/2))/math.Pi) / 2
}

func latFromMercatorY(y float64) float64 {
	return math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi
}

// zoomScale converts a zoom delta to a scale factor.
func zoomScale(dz float64) float64 { return math.Exp2(dz) }

// scaleZoom converts a scale factor to a zoom delta.
func scaleZoom(scale float64) float64 { return math.Log2(scale) }
