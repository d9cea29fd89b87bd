package geocam

import (
	"math"
	"time"
)

const (
	// defaultFlyCurve is rho, the zoom-out shape constant of the flight
	// curve (Van Wijk & Nuttall 2003).
	defaultFlyCurve = 1.42
	// defaultFlySpeed is the average flight speed in screenfuls per second,
	// relative to the curve.
	defaultFlySpeed = 1.2

	degenerateFlightEps = 1e-6
)

// FlyToPlan holds the closed-form parameters of one flight: a trajectory
// that zooms out, translates and zooms back in along a straight line between
// two centers. It is immutable once planned; the scheduler evaluates it at an
// eased time fraction each frame.
type FlyToPlan struct {
	rho  float64
	rho2 float64
	w0   float64 // visible span at the start, px
	w1   float64 // visible span at the target, px
	u1   float64 // total path length in px at the start zoom
	r0   float64
	s    float64 // total curve length in rho-screenfuls

	startZoom float64

	// linear is set when start and target coincide and zoom barely changes:
	// the flight degrades to plain time-based interpolation.
	linear bool
	// exponential is set when the centers coincide but zoom changes: the
	// span follows a pure exponential instead of the hyperbolic curve.
	exponential bool
	expSign     float64
}

// PlanFly computes flight parameters. w0 is the larger viewport dimension in
// pixels, z0/z1 the start and target zooms, u1 the planar distance between
// the centers in pixels at z0. wMax, when positive, caps the visible span so
// the flight's zoom-out excursion never drops below the transform's minimum
// zoom; ill-conditioned inputs resolve to a finite fallback plan instead of
// propagating NaN or Inf.
func PlanFly(w0, z0, z1, u1, rho, wMax float64) FlyToPlan {
	if rho <= 0 || math.IsNaN(rho) {
		rho = defaultFlyCurve
	}
	if w0 < 1 {
		w0 = 1
	}
	w1 := w0 / zoomScale(z1-z0)

	// The peak visible span along the path is rho^2*u1/2; shrink rho so the
	// peak exactly meets the span limit instead of exceeding it.
	if wMax > 0 && u1 > degenerateFlightEps {
		if capped := math.Sqrt(2 * wMax / u1); capped < rho {
			rho = capped
		}
	}

	p := FlyToPlan{rho: rho, rho2: rho * rho, w0: w0, w1: w1, u1: u1, startZoom: z0}

	b0 := (w1*w1 - w0*w0 + p.rho2*p.rho2*u1*u1) / (2 * w0 * p.rho2 * u1)
	b1 := (w1*w1 - w0*w0 - p.rho2*p.rho2*u1*u1) / (2 * w1 * p.rho2 * u1)
	p.r0 = math.Log(math.Sqrt(b0*b0+1) - b0)
	r1 := math.Log(math.Sqrt(b1*b1+1) - b1)
	p.s = (r1 - p.r0) / rho

	if math.Abs(u1) < degenerateFlightEps || math.IsNaN(p.s) || math.IsInf(p.s, 0) {
		if math.Abs(w0-w1) < degenerateFlightEps {
			p.linear = true
			p.s = 0
			return p
		}
		p.exponential = true
		p.expSign = 1
		if w1 < w0 {
			p.expSign = -1
		}
		p.s = math.Abs(math.Log(w1/w0)) / rho
	}
	return p
}

// Degenerate reports whether the flight has no usable path curve and the
// scheduler should fall back to plain linear interpolation.
func (p FlyToPlan) Degenerate() bool { return p.linear }

// PathLength is the total curve length S, in rho-screenfuls.
func (p FlyToPlan) PathLength() float64 { return p.s }

// span is the visible span at curve position s, relative to the start span.
func (p FlyToPlan) span(s float64) float64 {
	if p.linear {
		return 1
	}
	if p.exponential {
		return math.Exp(p.expSign * p.rho * s)
	}
	return math.Cosh(p.r0) / math.Cosh(p.r0+p.rho*s)
}

// Zoom evaluates the flight zoom at progress fraction k in [0, 1].
func (p FlyToPlan) Zoom(k float64) float64 {
	return p.startZoom + scaleZoom(1/p.span(k*p.s))
}

// Scale is the world-pixel scale factor relative to the start zoom at
// progress fraction k.
func (p FlyToPlan) Scale(k float64) float64 {
	return 1 / p.span(k*p.s)
}

// PathFraction is the fraction of the straight-line path covered at progress
// fraction k, in [0, 1].
func (p FlyToPlan) PathFraction(k float64) float64 {
	if p.linear || p.exponential {
		return 1
	}
	s := k * p.s
	u := p.w0 * ((math.Cosh(p.r0)*math.Tanh(p.r0+p.rho*s) - math.Sinh(p.r0)) / p.rho2) / p.u1
	return clamp(u, 0, 1)
}

// Duration derives the flight duration from the curve length. screenSpeed,
// when positive, overrides speed and is measured in screenfuls per second
// without the curve normalization.
func (p FlyToPlan) Duration(speed, screenSpeed float64) time.Duration {
	v := speed
	if screenSpeed > 0 {
		v = screenSpeed / p.rho
	}
	if v <= 0 {
		v = defaultFlySpeed
	}
	return time.Duration(p.s / v * float64(time.Second))
}
