package geocam

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrCannotFit reports that no zoom can frame the requested region, e.g.
// when the combined padding exceeds the viewport.
var ErrCannotFit = errors.New("geocam: requested region cannot be fit to the viewport")

// CameraPosition is the result of a fit: a camera state callers feed into
// JumpTo, EaseTo or FlyTo. Computing one never mutates the transform.
type CameraPosition struct {
	Center  LngLat
	Zoom    float64
	Bearing float64
	Pitch   float64
}

// CameraForBoundsOptions controls the fit solve. Padding is merged with
// (added to) the transform's persistent padding and never written back.
type CameraForBoundsOptions struct {
	Bearing *float64
	Pitch   *float64
	Padding *EdgeInsets
	// Offset shifts where the framed region's center lands, in pixels
	// relative to the viewport center.
	Offset  mgl64.Vec2
	MaxZoom *float64
}

// CameraForBounds computes the camera state that frames the geographic box
// spanned by the two corners, which may be given in any order. The solve
// respects the requested bearing: the box is measured in a coordinate system
// rotated to match it, and asymmetric padding is rotated along with the
// content.
func (c *Camera) CameraForBounds(a, b LngLat, opts CameraForBoundsOptions) (CameraPosition, error) {
	bounds, err := NewLngLatBounds(a, b)
	if err != nil {
		return CameraPosition{}, err
	}

	bearing := 0.0
	if opts.Bearing != nil {
		bearing = *opts.Bearing
	}
	pitch := 0.0
	if opts.Pitch != nil {
		pitch = *opts.Pitch
	}

	extra := EdgeInsets{}
	if opts.Padding != nil {
		extra = *opts.Padding
	}
	edge := c.tr.Padding().Add(extra)

	sw, ne := bounds.Southwest, bounds.Northeast
	nw := LngLat{Lng: sw.Lng, Lat: ne.Lat}
	se := LngLat{Lng: ne.Lng, Lat: sw.Lat}

	var corners [4]mgl64.Vec2
	var pxPerRadian float64
	if c.tr.Projection() == ProjectionGlobe {
		corners, pxPerRadian = globeCorners(c.tr, [4]LngLat{sw, ne, nw, se})
	} else {
		for i, ll := range [4]LngLat{sw, ne, nw, se} {
			corners[i] = c.tr.Project(ll)
		}
	}

	// Measure the box in a frame rotated to the destination bearing, so the
	// fit is exact under rotation.
	rot := -mgl64.DegToRad(bearing)
	lo := rotate2(corners[0], rot)
	hi := lo
	for _, p := range corners[1:] {
		r := rotate2(p, rot)
		lo = mgl64.Vec2{math.Min(lo.X(), r.X()), math.Min(lo.Y(), r.Y())}
		hi = mgl64.Vec2{math.Max(hi.X(), r.X()), math.Max(hi.Y(), r.Y())}
	}
	size := hi.Sub(lo)

	availX := c.tr.Width() - edge.Left - edge.Right
	availY := c.tr.Height() - edge.Top - edge.Bottom
	if availX <= 0 || availY <= 0 || size.X() <= 0 || size.Y() <= 0 {
		return CameraPosition{}, ErrCannotFit
	}
	scaleX := availX / size.X()
	scaleY := availY / size.Y()

	maxZoom := c.tr.MaxZoom()
	if opts.MaxZoom != nil {
		maxZoom = math.Min(maxZoom, *opts.MaxZoom)
	}
	zoom := clamp(c.tr.Zoom()+scaleZoom(math.Min(scaleX, scaleY)), c.tr.MinZoom(), maxZoom)

	// The asymmetric part of the per-call padding shifts the framed region;
	// it rotates together with the content. The sign and order of these
	// rotations is load-bearing: the padding offset rotates by +bearing in
	// screen space while the content was rotated by -bearing above.
	paddingOffset := mgl64.Vec2{(extra.Left - extra.Right) / 2, (extra.Top - extra.Bottom) / 2}
	offsetAtCurrentZoom := opts.Offset.Add(rotate2(paddingOffset, mgl64.DegToRad(bearing)))
	offsetAtFinalZoom := offsetAtCurrentZoom.Mul(zoomScale(c.tr.Zoom() - zoom))

	mid := rotate2(lo.Add(hi).Mul(0.5), -rot).Sub(offsetAtFinalZoom)

	var center LngLat
	if c.tr.Projection() == ProjectionGlobe {
		center = globeUnproject(bounds, mid, pxPerRadian)
	} else {
		center = c.tr.Unproject(mid)
	}

	return CameraPosition{Center: center, Zoom: zoom, Bearing: bearing, Pitch: pitch}, nil
}

// FitBoundsOptions combines the fit solve with the transition that applies
// it.
type FitBoundsOptions struct {
	Fit  CameraForBoundsOptions
	Ease EaseOptions
}

// FitBounds frames the box spanned by the two corners with an eased
// transition. The per-call fit padding is not written into the transform's
// persistent padding.
func (c *Camera) FitBounds(a, b LngLat, opts FitBoundsOptions, data EventData) error {
	pos, err := c.CameraForBounds(a, b, opts.Fit)
	if err != nil {
		return err
	}
	return c.easeToFit(pos, opts, data)
}

// FitScreenCoordinates frames the rotated rectangle spanned by two arbitrary
// viewport-pixel corners (in any order), as used for drag-to-zoom. When the
// implied view is physically impossible (a corner at or above the horizon
// under extreme pitch) the camera state is left unchanged.
func (c *Camera) FitScreenCoordinates(p0, p1 mgl64.Vec2, bearing float64, opts FitBoundsOptions, data EventData) error {
	ll0, ok0 := c.tr.PointLocation(p0)
	ll1, ok1 := c.tr.PointLocation(p1)
	if !ok0 || !ok1 {
		return nil
	}
	opts.Fit.Bearing = &bearing
	pos, err := c.CameraForBounds(ll0, ll1, opts.Fit)
	if err != nil {
		return err
	}
	return c.easeToFit(pos, opts, data)
}

// easeToFit applies a fit result; the pitch is only touched when the fit
// asked for one.
func (c *Camera) easeToFit(pos CameraPosition, opts FitBoundsOptions, data EventData) error {
	e := opts.Ease
	e.Center = &pos.Center
	e.Zoom = &pos.Zoom
	e.Bearing = &pos.Bearing
	if opts.Fit.Pitch != nil {
		e.Pitch = &pos.Pitch
	}
	return c.EaseTo(e, data)
}

// rotate2 rotates a screen-space vector by the given angle in radians.
func rotate2(v mgl64.Vec2, angle float64) mgl64.Vec2 {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return mgl64.Vec2{
		cos*v.X() - sin*v.Y(),
		sin*v.X() + cos*v.Y(),
	}
}

// globeCorners projects the box corners with azimuthal-equidistant math
// about the geographic midpoint of the box: each corner maps to its
// great-circle direction and angular distance from the midpoint, scaled to
// pixels at the current zoom. This yields a genuinely spherical fit that
// differs numerically from the planar Mercator solve.
func globeCorners(tr ViewTransform, lls [4]LngLat) ([4]mgl64.Vec2, float64) {
	var sum mgl64.Vec3
	var vecs [4]mgl64.Vec3
	for i, ll := range lls {
		vecs[i] = sphereVec(ll)
		sum = sum.Add(vecs[i])
	}
	center := sum.Normalize()
	east, north := tangentBasis(center)
	pxPerRadian := tr.WorldSize() / (2 * math.Pi)

	var out [4]mgl64.Vec2
	for i, v := range vecs {
		theta := math.Acos(clamp(center.Dot(v), -1, 1))
		if theta < 1e-12 {
			out[i] = mgl64.Vec2{}
			continue
		}
		// Direction of the corner in the tangent plane at the center.
		t := v.Sub(center.Mul(center.Dot(v))).Normalize()
		out[i] = mgl64.Vec2{
			t.Dot(east) * theta * pxPerRadian,
			-t.Dot(north) * theta * pxPerRadian, // screen y grows southward
		}
	}
	return out, pxPerRadian
}

// globeUnproject maps a point in the azimuthal frame of globeCorners back to
// a coordinate.
func globeUnproject(bounds LngLatBounds, p mgl64.Vec2, pxPerRadian float64) LngLat {
	sw, ne := bounds.Southwest, bounds.Northeast
	nw := LngLat{Lng: sw.Lng, Lat: ne.Lat}
	se := LngLat{Lng: ne.Lng, Lat: sw.Lat}
	center := sphereVec(sw).Add(sphereVec(ne)).Add(sphereVec(nw)).Add(sphereVec(se)).Normalize()
	east, north := tangentBasis(center)

	theta := p.Len() / pxPerRadian
	if theta < 1e-12 {
		return lngLatFromSphere(center)
	}
	dir := east.Mul(p.X() / p.Len()).Add(north.Mul(-p.Y() / p.Len())).Normalize()
	rotated := center.Mul(math.Cos(theta)).Add(dir.Mul(math.Sin(theta)))
	return lngLatFromSphere(rotated)
}

// sphereVec converts a coordinate to a unit vector (x toward lng 0 at the
// equator, z toward the north pole).
func sphereVec(ll LngLat) mgl64.Vec3 {
	lat := mgl64.DegToRad(ll.Lat)
	lng := mgl64.DegToRad(ll.Lng)
	return mgl64.Vec3{
		math.Cos(lat) * math.Cos(lng),
		math.Cos(lat) * math.Sin(lng),
		math.Sin(lat),
	}
}

func lngLatFromSphere(v mgl64.Vec3) LngLat {
	return LngLat{
		Lng: mgl64.RadToDeg(math.Atan2(v.Y(), v.X())),
		Lat: mgl64.RadToDeg(math.Asin(clamp(v.Z(), -1, 1))),
	}
}

// tangentBasis returns the unit east and north directions at a point on the
// sphere.
func tangentBasis(center mgl64.Vec3) (east, north mgl64.Vec3) {
	up := mgl64.Vec3{0, 0, 1}
	east = up.Cross(center)
	if east.Len() < 1e-12 {
		// At the poles any direction serves as east.
		east = mgl64.Vec3{0, 1, 0}
	} else {
		east = east.Normalize()
	}
	north = center.Cross(east).Normalize()
	return
}
