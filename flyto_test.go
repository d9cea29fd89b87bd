package geocam

import (
	"math"
	"testing"
	"time"
)

func TestPlanFlyEndpoints(t *testing.T) {
	plan := PlanFly(512, 2, 8, 4000, 0, 0)

	if z := plan.Zoom(0); !almostEqual(z, 2, 1e-9) {
		t.Errorf("Zoom(0) = %v, want the start zoom 2", z)
	}
	if z := plan.Zoom(1); !almostEqual(z, 8, 1e-9) {
		t.Errorf("Zoom(1) = %v, want the target zoom 8", z)
	}
	if u := plan.PathFraction(0); !almostEqual(u, 0, 1e-9) {
		t.Errorf("PathFraction(0) = %v, want 0", u)
	}
	if u := plan.PathFraction(1); !almostEqual(u, 1, 1e-9) {
		t.Errorf("PathFraction(1) = %v, want 1", u)
	}
}

func TestPlanFlyZoomDipsOnLongFlights(t *testing.T) {
	// A flight across a large distance zooms out beyond both endpoints; from
	// zoom 0 the curve dips below zero mid-flight.
	plan := PlanFly(512, 0, 18, 5e6, 0, 0)

	minZoom := math.Inf(1)
	for k := 0.0; k <= 1.0; k += 0.01 {
		if z := plan.Zoom(k); z < minZoom {
			minZoom = z
		}
	}
	if minZoom >= 0 {
		t.Errorf("Long flight should dip below zoom 0, min was %v", minZoom)
	}
}

func TestPlanFlySpanCap(t *testing.T) {
	// Capping the visible span (the minimum-zoom floor) flattens the curve so
	// the zoom-out excursion shrinks.
	w0 := 512.0
	free := PlanFly(w0, 4, 4, 1e6, 0, 0)
	capped := PlanFly(w0, 4, 4, 1e6, 0, w0*4)

	dip := func(p FlyToPlan) float64 {
		min := math.Inf(1)
		for k := 0.0; k <= 1.0; k += 0.01 {
			if z := p.Zoom(k); z < min {
				min = z
			}
		}
		return min
	}
	if capped.rho >= free.rho {
		t.Errorf("Cap should shrink rho: %v vs %v", capped.rho, free.rho)
	}
	if dip(capped) <= dip(free) {
		t.Errorf("Capped flight should dip less: %v vs %v", dip(capped), dip(free))
	}
	if z := capped.Zoom(1); !almostEqual(z, 4, 1e-9) {
		t.Errorf("Cap must not move the endpoint, Zoom(1) = %v", z)
	}
}

func TestPlanFlyLinearDegenerate(t *testing.T) {
	plan := PlanFly(512, 5, 5, 0, 0, 0)
	if !plan.Degenerate() {
		t.Error("Same center, same zoom should be a degenerate flight")
	}
}

func TestPlanFlyExponentialFallback(t *testing.T) {
	// Pure zoom with no travel: the hyperbolic solve blows up and the span
	// follows an exponential instead.
	plan := PlanFly(512, 2, 9, 0, 0, 0)
	if plan.Degenerate() {
		t.Fatal("Pure zoom should not be degenerate")
	}
	if !plan.exponential {
		t.Error("Pure zoom should take the exponential fallback")
	}
	if z := plan.Zoom(1); !almostEqual(z, 9, 1e-9) {
		t.Errorf("Exponential Zoom(1) = %v, want 9", z)
	}
	// Monotonic when not actually flying anywhere.
	prev := plan.Zoom(0)
	for k := 0.05; k <= 1.0; k += 0.05 {
		z := plan.Zoom(k)
		if z < prev-1e-9 {
			t.Fatalf("Exponential zoom should be monotonic, %v then %v", prev, z)
		}
		prev = z
	}
}

func TestPlanFlyDuration(t *testing.T) {
	plan := PlanFly(512, 2, 8, 4000, 0, 0)

	d := plan.Duration(0, 0)
	if d <= 0 {
		t.Fatalf("Default duration should be positive, got %v", d)
	}
	// Duration is the curve length divided by the speed.
	want := time.Duration(plan.PathLength() / defaultFlySpeed * float64(time.Second))
	if d != want {
		t.Errorf("Default duration = %v, want PathLength/defaultSpeed = %v", d, want)
	}
	faster := plan.Duration(2.4, 0)
	if faster >= d {
		t.Errorf("Doubling the speed should shorten the flight: %v vs %v", faster, d)
	}
	if ss := plan.Duration(0, 10); ss <= 0 {
		t.Errorf("Screen-speed duration should be positive, got %v", ss)
	}
}

func TestPlanFlyBadCurveInput(t *testing.T) {
	plan := PlanFly(512, 2, 8, 4000, math.NaN(), 0)
	if plan.rho != defaultFlyCurve {
		t.Errorf("NaN curve should fall back to the default, got %v", plan.rho)
	}
	if math.IsNaN(plan.Zoom(0.5)) {
		t.Error("Plan should never evaluate to NaN")
	}
}

func TestEasingEndpoints(t *testing.T) {
	for name, fn := range map[string]EasingFn{
		"linear":     EaseLinear,
		"inQuad":     EaseInQuad,
		"outQuad":    EaseOutQuad,
		"inCubic":    EaseInCubic,
		"outCubic":   EaseOutCubic,
		"inOutCubic": EaseInOutCubic,
		"outExpo":    EaseOutExpo,
	} {
		if v := fn(0); !almostEqual(v, 0, 1e-12) {
			t.Errorf("%s(0) = %v, want 0", name, v)
		}
		if v := fn(1); !almostEqual(v, 1, 1e-12) {
			t.Errorf("%s(1) = %v, want 1", name, v)
		}
		prev := fn(0)
		for t2 := 0.05; t2 <= 1.0001; t2 += 0.05 {
			v := fn(t2)
			if v < prev-1e-12 {
				t.Errorf("%s is not monotonic at t=%v", name, t2)
			}
			prev = v
		}
	}
}
