package geocam

import "math"

// EasingFn remaps transition progress. Implementations must be monotonic on
// [0, 1] and fix both endpoints: f(0) = 0 and f(1) = 1.
type EasingFn func(t float64) float64

func EaseLinear(t float64) float64 { return t }

func EaseInQuad(t float64) float64 { return t * t }

func EaseOutQuad(t float64) float64 { return 1 - (1-t)*(1-t) }

func EaseInCubic(t float64) float64 { return t * t * t }

func EaseOutCubic(t float64) float64 { return 1 - math.Pow(1-t, 3) }

// EaseInOutCubic is the default transition curve: slow start, fast middle,
// slow finish.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func EaseOutExpo(t float64) float64 {
	if t >= 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}
