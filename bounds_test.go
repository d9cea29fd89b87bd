package geocam

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var boundsNW = LngLat{Lng: -133, Lat: 50}
var boundsSE = LngLat{Lng: -68, Lat: 16}

func TestCameraForBoundsReference(t *testing.T) {
	cam, _, _, _ := newTestCamera(256, 256)

	pos, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 2.469, pos.Zoom, 1e-3)
	assert.InDelta(t, -100.5, pos.Center.Lng, 1e-6)
	assert.InDelta(t, 34.7171, pos.Center.Lat, 1e-2)
	assert.Zero(t, pos.Bearing)
}

func TestCameraForBoundsCornerOrder(t *testing.T) {
	cam, _, _, _ := newTestCamera(256, 256)

	a, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)
	b, err := cam.CameraForBounds(boundsSE, boundsNW, CameraForBoundsOptions{})
	require.NoError(t, err)
	// Southwest/southeast style corner pairs span the same box.
	c, err := cam.CameraForBounds(
		LngLat{Lng: -133, Lat: 16}, LngLat{Lng: -68, Lat: 50}, CameraForBoundsOptions{})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestCameraForBoundsDoesNotMutate(t *testing.T) {
	cam, tr, _, rec := newTestCamera(256, 256)
	tr.SetZoom(5)
	tr.SetCenter(LngLat{Lng: 7, Lat: 7})

	_, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)

	assert.Equal(t, LngLat{Lng: 7, Lat: 7}, tr.Center())
	assert.Equal(t, 5.0, tr.Zoom())
	assert.Empty(t, rec.events, "computing a fit emits nothing")
}

func TestCameraForBoundsSolveIsZoomInvariant(t *testing.T) {
	cam, tr, _, _ := newTestCamera(256, 256)

	base, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)

	tr.SetZoom(9)
	again, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)

	assert.InDelta(t, base.Zoom, again.Zoom, 1e-9)
	assert.InDelta(t, base.Center.Lng, again.Center.Lng, 1e-9)
	assert.InDelta(t, base.Center.Lat, again.Center.Lat, 1e-9)
}

func TestCameraForBoundsPadding(t *testing.T) {
	cam, tr, _, _ := newTestCamera(256, 256)

	plain, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)

	padded, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{
		Padding: Ptr(UniformInsets(20)),
	})
	require.NoError(t, err)
	if padded.Zoom >= plain.Zoom {
		t.Errorf("Padding should zoom out: %v vs %v", padded.Zoom, plain.Zoom)
	}
	// Uniform padding keeps the center put.
	assert.InDelta(t, plain.Center.Lng, padded.Center.Lng, 1e-9)

	// Per-call padding merges with the transform's persistent padding.
	tr.SetPadding(UniformInsets(20))
	persistent, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)
	assert.InDelta(t, padded.Zoom, persistent.Zoom, 1e-9)

	tr.SetPadding(EdgeInsets{})
	asym, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{
		Padding: Ptr(EdgeInsets{Left: 100}),
	})
	require.NoError(t, err)
	if asym.Center.Lng >= plain.Center.Lng {
		t.Errorf("Left padding should push the center west: %v vs %v",
			asym.Center.Lng, plain.Center.Lng)
	}
}

func TestCameraForBoundsImpossiblePadding(t *testing.T) {
	cam, tr, _, _ := newTestCamera(256, 256)

	_, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{
		Padding: Ptr(UniformInsets(200)),
	})
	assert.ErrorIs(t, err, ErrCannotFit)
	assert.Equal(t, LngLat{}, tr.Center(), "a failed fit must not mutate")
}

func TestCameraForBoundsBearing(t *testing.T) {
	cam, _, _, _ := newTestCamera(512, 256)

	north, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)
	rotated, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{
		Bearing: Ptr(90.0),
	})
	require.NoError(t, err)

	assert.Equal(t, 90.0, rotated.Bearing)
	// The wide box no longer fits the wide viewport once rotated a quarter
	// turn: the solve must zoom out.
	if rotated.Zoom >= north.Zoom {
		t.Errorf("Rotated fit should differ: %v vs %v", rotated.Zoom, north.Zoom)
	}
}

func TestCameraForBoundsOffsetAndMaxZoom(t *testing.T) {
	cam, _, _, _ := newTestCamera(256, 256)

	plain, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)
	shifted, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{
		Offset: mgl64.Vec2{50, 0},
	})
	require.NoError(t, err)
	if shifted.Center.Lng >= plain.Center.Lng {
		t.Errorf("An eastward offset lands the region east, so the center moves west: %v vs %v",
			shifted.Center.Lng, plain.Center.Lng)
	}

	tiny, err := cam.CameraForBounds(
		LngLat{Lng: 10, Lat: 10}, LngLat{Lng: 10.001, Lat: 10.001},
		CameraForBoundsOptions{MaxZoom: Ptr(15.0)})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, tiny.Zoom, 1e-9)
}

func TestCameraForBoundsGlobe(t *testing.T) {
	cam, tr, _, _ := newTestCamera(256, 256)

	planar, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)

	tr.SetProjection(ProjectionGlobe)
	globe, err := cam.CameraForBounds(boundsNW, boundsSE, CameraForBoundsOptions{})
	require.NoError(t, err)

	if math.IsNaN(globe.Zoom) || math.IsInf(globe.Zoom, 0) {
		t.Fatalf("Globe fit produced a non-finite zoom: %v", globe.Zoom)
	}
	// The box is symmetric about its central meridian in both models.
	assert.InDelta(t, -100.5, globe.Center.Lng, 1e-6)
	if globe.Center.Lat <= 16 || globe.Center.Lat >= 50 {
		t.Errorf("Globe center latitude %v should fall inside the box", globe.Center.Lat)
	}
	// Spherical measurement differs from planar Mercator.
	if almostEqual(globe.Zoom, planar.Zoom, 1e-9) && almostEqual(globe.Center.Lat, planar.Center.Lat, 1e-9) {
		t.Error("Globe fit should not be numerically identical to the planar fit")
	}
}

func TestFitBoundsApplies(t *testing.T) {
	cam, tr, _, _ := newTestCamera(256, 256)

	err := cam.FitBounds(boundsNW, boundsSE, FitBoundsOptions{
		Ease: EaseOptions{Duration: Ptr(time.Duration(0))},
	}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 2.469, cam.GetZoom(), 1e-3)
	assert.InDelta(t, -100.5, cam.GetCenter().Lng, 1e-6)
	assert.Equal(t, EdgeInsets{}, tr.Padding(), "per-call fit padding stays out of the transform")
}

func TestFitBoundsDoesNotPersistPadding(t *testing.T) {
	cam, tr, _, _ := newTestCamera(256, 256)

	err := cam.FitBounds(boundsNW, boundsSE, FitBoundsOptions{
		Fit:  CameraForBoundsOptions{Padding: Ptr(UniformInsets(30))},
		Ease: EaseOptions{Duration: Ptr(time.Duration(0))},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, EdgeInsets{}, tr.Padding())
}

func TestFitScreenCoordinates(t *testing.T) {
	cam, tr, _, _ := newTestCamera(256, 256)
	tr.SetZoom(4)

	p0 := mgl64.Vec2{60, 60}
	p1 := mgl64.Vec2{200, 180}
	ll0, ok := tr.PointLocation(p0)
	require.True(t, ok)
	ll1, ok := tr.PointLocation(p1)
	require.True(t, ok)

	err := cam.FitScreenCoordinates(p0, p1, 0, FitBoundsOptions{
		Ease: EaseOptions{Duration: Ptr(time.Duration(0))},
	}, nil)
	require.NoError(t, err)

	// The drag rectangle was smaller than the viewport, so the camera zooms
	// in and both corners stay visible.
	if cam.GetZoom() <= 4 {
		t.Errorf("Drag-to-zoom on an interior box should zoom in, got %v", cam.GetZoom())
	}
	for _, ll := range []LngLat{ll0, ll1} {
		p := tr.LocationPoint(ll)
		if p.X() < -1 || p.X() > 257 || p.Y() < -1 || p.Y() > 257 {
			t.Errorf("Corner %v left the viewport: %v", ll, p)
		}
	}
}

func TestFitScreenCoordinatesAboveHorizon(t *testing.T) {
	cam, tr, _, rec := newTestCamera(256, 256)
	tr.SetZoom(4)
	tr.SetPitch(85)
	before := tr.Center()

	err := cam.FitScreenCoordinates(
		mgl64.Vec2{128, 2}, mgl64.Vec2{200, 180}, 0,
		FitBoundsOptions{Ease: EaseOptions{Duration: Ptr(time.Duration(0))}}, nil)
	require.NoError(t, err)

	assert.Equal(t, before, tr.Center(), "an impossible view leaves the camera untouched")
	assert.Equal(t, 4.0, tr.Zoom())
	assert.Empty(t, rec.events)
}
