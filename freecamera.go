package geocam

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	// ErrInvalidOrientation reports an orientation quaternion that cannot be
	// normalized or does not describe a camera looking at the map.
	ErrInvalidOrientation = errors.New("geocam: invalid camera orientation")
	// ErrInvalidCameraPosition reports a free camera position from which no
	// map center can be derived, e.g. at or below the ground plane.
	ErrInvalidCameraPosition = errors.New("geocam: invalid camera position")
)

// lookAtEps is the squared length below which a look direction or its cross
// product with the up hint counts as degenerate.
const lookAtEps = 1e-20

// FreeCameraOptions addresses the camera by its physical position and
// orientation instead of center/zoom/bearing/pitch. Position is in Mercator
// units: x and y span one world copy in [0, 1] (x east from the
// antimeridian, y south from the north edge) and z is altitude on the same
// scale. Orientation rotates a camera that by default looks straight down
// with north up.
//
// A nil field means "keep the current value" when applied.
type FreeCameraOptions struct {
	Position    *mgl64.Vec3
	Orientation *mgl64.Quat
}

// LookAtPoint orients the camera from its current Position toward the given
// coordinate on the ground. The optional up hint controls the camera roll;
// it defaults to world up. When the requested view is degenerate (the target
// coincides with the position, or the look direction is parallel to the up
// hint, e.g. looking straight down with the default hint) the orientation is
// left unset.
func (o *FreeCameraOptions) LookAtPoint(at LngLat, up *mgl64.Vec3) {
	if o.Position == nil {
		return
	}
	target := mercatorFromLngLat(at)
	forward := target.Sub(*o.Position)
	if forward.LenSqr() < lookAtEps {
		return
	}
	forward = forward.Normalize()

	upHint := mgl64.Vec3{0, 0, 1}
	if up != nil {
		upHint = *up
	}
	right := upHint.Cross(forward)
	if right.LenSqr() < lookAtEps {
		return
	}
	right = right.Normalize()
	q := quatFromAxes(right, forward)
	o.Orientation = &q
}

// SetPitchBearing orients the camera from pitch and bearing in degrees.
// Values outside the usual ranges are taken modulo a full turn.
func (o *FreeCameraOptions) SetPitchBearing(pitch, bearing float64) {
	q := quatFromPitchBearing(pitch, bearing)
	o.Orientation = &q
}

// GetFreeCameraOptions derives the physical camera state from the current
// center, zoom, bearing and pitch.
func (c *Camera) GetFreeCameraOptions() FreeCameraOptions {
	tr := c.tr
	ws := tr.WorldSize()
	center := tr.Project(tr.Center())
	forward, _, _ := cameraAxes(tr.Bearing(), tr.Pitch())
	dist := 0.5 * tr.Height() / math.Tan(fieldOfView/2)

	posPx := mgl64.Vec3{center.X(), center.Y(), 0}.Sub(forward.Mul(dist))
	pos := posPx.Mul(1 / ws)
	q := quatFromPitchBearing(tr.Pitch(), tr.Bearing())
	return FreeCameraOptions{Position: &pos, Orientation: &q}
}

// SetFreeCameraOptions applies a physical camera state, updating center,
// zoom, bearing and pitch to match. Validation happens before any state is
// written; on error the camera is untouched. Events follow the
// instantaneous-request contract, with the per-axis triples only for axes
// that actually changed.
func (c *Camera) SetFreeCameraOptions(opts FreeCameraOptions, data EventData) error {
	tr := c.tr

	pitch, bearing := tr.Pitch(), tr.Bearing()
	if opts.Orientation != nil {
		q := *opts.Orientation
		if q.Norm() < 1e-12 {
			return ErrInvalidOrientation
		}
		q = q.Normalize()
		var ok bool
		pitch, bearing, ok = anglesFromQuat(q)
		if !ok {
			return ErrInvalidOrientation
		}
	}

	center, zoom := tr.Center(), tr.Zoom()
	if opts.Position != nil {
		pos := *opts.Position
		forward, _, _ := cameraAxes(bearing, pitch)
		// The ray from the camera must descend to hit the ground plane.
		if pos.Z() <= 0 || forward.Z() >= -1e-12 {
			return ErrInvalidCameraPosition
		}
		distMerc := pos.Z() / -forward.Z()
		hit := pos.Add(forward.Mul(distMerc))
		center = LngLat{Lng: hit.X()*360 - 180, Lat: latFromMercatorY(hit.Y())}
		if !center.Valid() {
			return ErrInvalidCameraPosition
		}
		// The camera sits a fixed number of viewport heights from the focal
		// point, which pins the world scale and hence the zoom.
		distPx := 0.5 * tr.Height() / math.Tan(fieldOfView/2)
		zoom = scaleZoom(distPx / distMerc / tileBase)
	}

	c.cancelSession()

	id := uuid.New()
	zoomChanged := clamp(zoom, tr.MinZoom(), tr.MaxZoom()) != tr.Zoom()
	bearingChanged := wrapDegrees(bearing) != tr.Bearing()
	pitchChanged := clamp(pitch, 0, tr.MaxPitch()) != tr.Pitch()

	tr.SetCenter(center.Wrap())
	tr.SetZoom(zoom)
	tr.SetBearing(bearing)
	tr.SetPitch(pitch)

	c.emitInstant(id, data, zoomChanged, bearingChanged, pitchChanged, false)
	return nil
}

// mercatorFromLngLat converts a coordinate on the ground plane to Mercator
// units.
func mercatorFromLngLat(ll LngLat) mgl64.Vec3 {
	return mgl64.Vec3{(ll.Lng + 180) / 360, mercatorYFromLat(ll.Lat), 0}
}

// quatFromPitchBearing builds the orientation of a camera at the given pitch
// and bearing: a yaw about world up composed with a tilt about the camera's
// right axis.
func quatFromPitchBearing(pitchDeg, bearingDeg float64) mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(bearingDeg), mgl64.Vec3{0, 0, 1})
	tilt := mgl64.QuatRotate(-mgl64.DegToRad(pitchDeg), mgl64.Vec3{1, 0, 0})
	return yaw.Mul(tilt)
}

// quatFromAxes builds an orientation from an orthonormal right/forward pair.
// The camera looks along forward with right along its screen x axis.
func quatFromAxes(right, forward mgl64.Vec3) mgl64.Quat {
	up := right.Cross(forward)
	back := forward.Mul(-1)
	m := mgl64.Mat4{
		right.X(), right.Y(), right.Z(), 0,
		up.X(), up.Y(), up.Z(), 0,
		back.X(), back.Y(), back.Z(), 0,
		0, 0, 0, 1,
	}
	return mgl64.Mat4ToQuat(m).Normalize()
}

// anglesFromQuat recovers pitch and bearing in degrees from an orientation.
// When the camera looks straight down the bearing is taken from its up
// vector instead of the (vertical) look direction. Reports false for
// orientations that leave the camera looking above the horizontal.
func anglesFromQuat(q mgl64.Quat) (pitch, bearing float64, ok bool) {
	forward := q.Rotate(mgl64.Vec3{0, 0, -1})
	if forward.Z() > 1e-9 {
		return 0, 0, false
	}
	pitchRad := math.Acos(clamp(-forward.Z(), -1, 1))
	if math.Sin(pitchRad) < 1e-9 {
		up := q.Rotate(mgl64.Vec3{0, 1, 0})
		bearing = mgl64.RadToDeg(math.Atan2(-up.X(), up.Y()))
	} else {
		bearing = mgl64.RadToDeg(math.Atan2(forward.X(), -forward.Y()))
	}
	return mgl64.RadToDeg(pitchRad), bearing, true
}
