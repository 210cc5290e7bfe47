package flight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
)

const denomEpsilon = 1e-6

// UpdateThrottleCommand integrates the throttle stick into the held command.
func UpdateThrottleCommand(command, delta, ratePerSec, dt float64) float64 {
	return dynamo.Clamp01(command + delta*ratePerSec*dt)
}

// KillRamp drives the held command toward zero at a bounded rate.
func KillRamp(command, ratePerSec, dt float64) float64 {
	return dynamo.Clamp01(dynamo.MoveTowards(command, 0, math.Max(0, ratePerSec)*dt))
}

// SmoothThrottle approaches command exponentially with time constant 1/rate.
func SmoothThrottle(throttle, command, rate, dt float64) float64 {
	alpha := 1 - math.Exp(-math.Max(0, rate)*dt)
	return dynamo.Clamp01(throttle + (command-throttle)*alpha)
}

// TiltCompensation returns the throttle multiplier that restores the vertical
// thrust component lost to tilt. The result lies in [1, max] when enabled and
// is exactly 1 when disabled.
func TiltCompensation(bodyUp mgl64.Vec3, enabled bool, strength, max, minCosine float64) float64 {
	if !enabled {
		return 1
	}
	max = math.Max(1, max)
	cosTilt := math.Max(math.Max(denomEpsilon, minCosine), bodyUp.Dot(dynamo.WorldUp))
	if !dynamo.IsFinite(cosTilt) {
		return 1
	}
	ideal := math.Min(1/cosTilt, max)
	factor := dynamo.Lerp(1, ideal, dynamo.Clamp01(strength))
	return mgl64.Clamp(factor, 1, max)
}
