package geocam

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	tr := NewTransform(512, 512)
	tr.SetZoom(4)

	for _, ll := range []LngLat{
		{Lng: 0, Lat: 0},
		{Lng: -122.4194, Lat: 37.7749},
		{Lng: 174.7633, Lat: -36.8485},
		{Lng: -179.9, Lat: 84},
	} {
		got := tr.Unproject(tr.Project(ll))
		if !almostEqual(got.Lng, ll.Lng, 1e-9) || !almostEqual(got.Lat, ll.Lat, 1e-9) {
			t.Errorf("Round trip of %v gave %v", ll, got)
		}
	}
}

func TestWorldSize(t *testing.T) {
	tr := NewTransform(512, 512)
	if tr.WorldSize() != 256 {
		t.Errorf("World at zoom 0 should be 256 px, got %v", tr.WorldSize())
	}
	tr.SetZoom(1)
	if tr.WorldSize() != 512 {
		t.Errorf("World at zoom 1 should be 512 px, got %v", tr.WorldSize())
	}
}

func TestLocationPointFlat(t *testing.T) {
	tr := NewTransform(512, 512)
	tr.SetZoom(2)

	// Pitch 0, bearing 0: screen offsets are plain world-pixel offsets.
	p := tr.LocationPoint(LngLat{Lng: 5, Lat: 0})
	wantX := 256 + 5.0/360*tr.WorldSize()
	if !almostEqual(p.X(), wantX, 1e-9) || !almostEqual(p.Y(), 256, 1e-9) {
		t.Errorf("LocationPoint(5, 0) = %v, want (%v, 256)", p, wantX)
	}

	ll, ok := tr.PointLocation(p)
	if !ok {
		t.Fatal("PointLocation failed on a visible point")
	}
	if !almostEqual(ll.Lng, 5, 1e-9) || !almostEqual(ll.Lat, 0, 1e-9) {
		t.Errorf("PointLocation round trip gave %v", ll)
	}
}

func TestLocationPointRotatedPitched(t *testing.T) {
	tr := NewTransform(512, 512)
	tr.SetZoom(5)
	tr.SetBearing(37)
	tr.SetPitch(40)
	tr.SetCenter(LngLat{Lng: 11, Lat: 48})

	// Center always projects to the focal point.
	cp := tr.LocationPoint(tr.Center())
	if !almostEqual(cp.X(), 256, 1e-6) || !almostEqual(cp.Y(), 256, 1e-6) {
		t.Errorf("Center should project to the center point, got %v", cp)
	}

	ll := LngLat{Lng: 11.02, Lat: 48.01}
	back, ok := tr.PointLocation(tr.LocationPoint(ll))
	if !ok {
		t.Fatal("PointLocation failed on a visible point")
	}
	if !almostEqual(back.Lng, ll.Lng, 1e-9) || !almostEqual(back.Lat, ll.Lat, 1e-9) {
		t.Errorf("Rotated/pitched round trip of %v gave %v", ll, back)
	}
}

func TestPointLocationAboveHorizon(t *testing.T) {
	tr := NewTransform(512, 512)
	tr.SetMaxPitch(85)
	tr.SetPitch(85)

	// At extreme pitch the top of the screen is above the horizon.
	if _, ok := tr.PointLocation(mgl64.Vec2{256, 0}); ok {
		t.Error("Point at the top of a steeply pitched view should not hit the ground")
	}
	// The focal point itself always does.
	if _, ok := tr.PointLocation(mgl64.Vec2{256, 256}); !ok {
		t.Error("The focal point should always hit the ground")
	}
}

func TestSetLocationAtPoint(t *testing.T) {
	tr := NewTransform(512, 512)
	tr.SetZoom(3)

	target := LngLat{Lng: 10, Lat: 20}
	at := mgl64.Vec2{100, 400}
	if !tr.SetLocationAtPoint(target, at) {
		t.Fatal("SetLocationAtPoint failed")
	}
	got := tr.LocationPoint(target)
	if !almostEqual(got.X(), at.X(), 1e-6) || !almostEqual(got.Y(), at.Y(), 1e-6) {
		t.Errorf("Target projects to %v, want %v", got, at)
	}
}

func TestCenterPointPadding(t *testing.T) {
	tr := NewTransform(512, 512)
	tr.SetPadding(EdgeInsets{Left: 100})
	cp := tr.CenterPoint()
	if cp.X() != 306 || cp.Y() != 256 {
		t.Errorf("Focal point with left padding = %v, want (306, 256)", cp)
	}
}

func TestSetCenterClampsLatitudeOnly(t *testing.T) {
	tr := NewTransform(512, 512)
	tr.SetCenter(LngLat{Lng: 190, Lat: 89})
	c := tr.Center()
	if c.Lat != MaxMercatorLatitude {
		t.Errorf("Latitude should clamp to %v, got %v", MaxMercatorLatitude, c.Lat)
	}
	// Longitude is kept raw; transitions use out-of-range values near the seam.
	if c.Lng != 190 {
		t.Errorf("Longitude should be stored unwrapped, got %v", c.Lng)
	}
}

func TestZoomRangeClamping(t *testing.T) {
	tr := NewTransform(512, 512)
	tr.SetZoom(30)
	if tr.Zoom() != 22 {
		t.Errorf("Zoom should clamp to maxZoom 22, got %v", tr.Zoom())
	}
	tr.SetZoomRange(2, 10)
	if tr.Zoom() != 10 {
		t.Errorf("SetZoomRange should re-clamp the current zoom, got %v", tr.Zoom())
	}
	tr.SetPitch(120)
	if tr.Pitch() != 85 {
		t.Errorf("Pitch should clamp to maxPitch 85, got %v", tr.Pitch())
	}
}
