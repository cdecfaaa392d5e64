package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats/scalar"
)

// Epsilon is the tolerance used when comparing resolved transforms.
const Epsilon = 1e-9

const twoPi = 2 * math.Pi

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// NormalizeAngle wraps radians into [0, 2π).
func NormalizeAngle(rad float64) float64 {
	if math.IsNaN(rad) || math.IsInf(rad, 0) {
		return rad
	}
	r := math.Mod(rad, twoPi)
	if r < 0 {
		r += twoPi
	}
	if r >= twoPi {
		r = 0
	}
	return r
}

// AngleDelta returns the signed shortest difference b-a in (-π, π].
func AngleDelta(a, b float64) float64 {
	d := NormalizeAngle(b - a)
	if d > math.Pi {
		d -= twoPi
	}
	return d
}

func ApproxEqual(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, Epsilon, Epsilon)
}

func ApproxEqualTol(a, b, tol float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, tol, tol)
}

func ApproxEqualVec(a, b mgl64.Vec2, tol float64) bool {
	return ApproxEqualTol(a[0], b[0], tol) && ApproxEqualTol(a[1], b[1], tol)
}

// ApproxEqualAngle compares two angles modulo a full turn.
func ApproxEqualAngle(a, b, tol float64) bool {
	return math.Abs(AngleDelta(a, b)) <= tol
}
