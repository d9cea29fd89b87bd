package geocam

import (
	"errors"
	"fmt"
	"math"
)

// MaxMercatorLatitude is the latitude at which the square Web-Mercator world
// is cut off. Centers are clamped into this range.
const MaxMercatorLatitude = 85.051129

var (
	ErrInvalidCenter = errors.New("geocam: invalid center coordinate")
	ErrInvalidBounds = errors.New("geocam: invalid bounds")
)

// LngLat is a geographic coordinate in degrees.
type LngLat struct {
	Lng float64
	Lat float64
}

// NewLngLat validates lng/lat and returns a coordinate. Longitude may be any
// finite value (it wraps), latitude must lie in [-90, 90].
func NewLngLat(lng, lat float64) (LngLat, error) {
	if math.IsNaN(lng) || math.IsInf(lng, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return LngLat{}, fmt.Errorf("%w: (%v, %v)", ErrInvalidCenter, lng, lat)
	}
	if lat < -90 || lat > 90 {
		return LngLat{}, fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCenter, lat)
	}
	return LngLat{Lng: lng, Lat: lat}, nil
}

// Valid reports whether the coordinate would pass NewLngLat.
func (ll LngLat) Valid() bool {
	_, err := NewLngLat(ll.Lng, ll.Lat)
	return err == nil
}

// Wrap returns the coordinate with longitude reduced into [-180, 180).
func (ll LngLat) Wrap() LngLat {
	return LngLat{Lng: wrapLongitude(ll.Lng), Lat: ll.Lat}
}

func wrapLongitude(lng float64) float64 {
	w := math.Mod(lng+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}

// LngLatBounds is a geographic rectangle. Construction is insensitive to the
// order of the supplied corners.
type LngLatBounds struct {
	Southwest LngLat
	Northeast LngLat
}

// NewLngLatBounds builds bounds from two corners given in any order.
func NewLngLatBounds(a, b LngLat) (LngLatBounds, error) {
	if !a.Valid() || !b.Valid() {
		return LngLatBounds{}, fmt.Errorf("%w: corners (%v, %v)", ErrInvalidBounds, a, b)
	}
	return LngLatBounds{
		Southwest: LngLat{Lng: math.Min(a.Lng, b.Lng), Lat: math.Min(a.Lat, b.Lat)},
		Northeast: LngLat{Lng: math.Max(a.Lng, b.Lng), Lat: math.Max(a.Lat, b.Lat)},
	}, nil
}

// Extend grows the bounds to include the given coordinate.
func (b LngLatBounds) Extend(ll LngLat) LngLatBounds {
	return LngLatBounds{
		Southwest: LngLat{Lng: math.Min(b.Southwest.Lng, ll.Lng), Lat: math.Min(b.Southwest.Lat, ll.Lat)},
		Northeast: LngLat{Lng: math.Max(b.Northeast.Lng, ll.Lng), Lat: math.Max(b.Northeast.Lat, ll.Lat)},
	}
}

// Center returns the midpoint of the bounds.
func (b LngLatBounds) Center() LngLat {
	return LngLat{
		Lng: (b.Southwest.Lng + b.Northeast.Lng) / 2,
		Lat: (b.Southwest.Lat + b.Northeast.Lat) / 2,
	}
}

// EdgeInsets is per-edge screen padding in pixels.
type EdgeInsets struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// UniformInsets returns padding with the same inset on every edge.
func UniformInsets(p float64) EdgeInsets {
	return EdgeInsets{Top: p, Right: p, Bottom: p, Left: p}
}

// Add returns the per-edge sum of two paddings.
func (e EdgeInsets) Add(o EdgeInsets) EdgeInsets {
	return EdgeInsets{
		Top:    e.Top + o.Top,
		Right:  e.Right + o.Right,
		Bottom: e.Bottom + o.Bottom,
		Left:   e.Left + o.Left,
	}
}

// Lerp interpolates per-edge between e and o at fraction t.
func (e EdgeInsets) Lerp(o EdgeInsets, t float64) EdgeInsets {
	return EdgeInsets{
		Top:    lerp(e.Top, o.Top, t),
		Right:  lerp(e.Right, o.Right, t),
		Bottom: lerp(e.Bottom, o.Bottom, t),
		Left:   lerp(e.Left, o.Left, t),
	}
}

func (e EdgeInsets) Equal(o EdgeInsets) bool {
	return e.Top == o.Top && e.Right == o.Right && e.Bottom == o.Bottom && e.Left == o.Left
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// wrapDegrees reduces an angle into (-180, 180].
func wrapDegrees(deg float64) float64 {
	w := math.Mod(deg, 360)
	if w > 180 {
		w -= 360
	} else if w <= -180 {
		w += 360
	}
	return w
}

// shortestAngleDelta returns the signed smallest rotation from a to b, in
// degrees within (-180, 180].
func shortestAngleDelta(from, to float64) float64 {
	return wrapDegrees(to - from)
}
