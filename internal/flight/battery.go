package flight

import (
	"math"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// PowerDraw is the electrical power for an effective throttle on a convex curve.
func PowerDraw(baseW, maxExtraW, exponent, effThrottle float64) float64 {
	return baseW + maxExtraW*math.Pow(dynamo.Clamp01(effThrottle), exponent)
}

// Drain removes powerW*dt from energyJ and never goes below zero.
func Drain(energyJ, powerW, dt float64) float64 {
	return math.Max(0, energyJ-math.Max(0, powerW)*dt)
}

func batteryLevel(energyJ, capacityJ float64) float64 {
	return dynamo.Clamp01(energyJ / math.Max(denomEpsilon, capacityJ))
}

// ThrustAvailability blends between full thrust and thrust proportional to
// charge. limit 0 never degrades, limit 1 degrades linearly.
func ThrustAvailability(battery01, limit float64) float64 {
	return dynamo.Lerp(1, dynamo.Clamp01(battery01), dynamo.Clamp01(limit))
}

// MaxTotalThrust is the summed thrust of all motors at full throttle in newtons.
func MaxTotalThrust(thrustToWeight, mass, gravity float64) float64 {
	return thrustToWeight * mass * gravity
}
