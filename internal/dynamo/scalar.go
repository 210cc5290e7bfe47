package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func Clamp01(v float64) float64 {
	return mgl64.Clamp(v, 0, 1)
}

// Lerp interpolates from a to b by t without clamping t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// MoveTowards steps current toward target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// WrapDegrees maps an angle into [0, 360).
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// WrapSignedDegrees maps an angle into (-180, 180].
func WrapSignedDegrees(deg float64) float64 {
	deg = WrapDegrees(deg)
	if deg > 180 {
		deg -= 360
	}
	return deg
}

// WrapPi maps an angle in radians into (-π, π].
func WrapPi(rad float64) float64 {
	rad = math.Mod(rad+math.Pi, 2*math.Pi)
	if rad <= 0 {
		rad += 2 * math.Pi
	}
	return rad - math.Pi
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func IsFiniteVec(v mgl64.Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

// SanitizeVec zeroes any non-finite component.
func SanitizeVec(v mgl64.Vec3) mgl64.Vec3 {
	for i := range v {
		if !IsFinite(v[i]) {
			v[i] = 0
		}
	}
	return v
}
