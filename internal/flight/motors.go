package flight

import (
	"math"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Mix holds the per-axis mixing gains.
type Mix struct {
	Pitch float64
	Roll  float64
	Yaw   float64
}

// MixTargets distributes base output across the motors. Pitch up lifts the
// front pair, right roll lifts the left pair, and yaw is split by spin direction.
func MixTargets(base, pitchCmd, rollCmd, yawCmd float64, mix Mix) [NumMotors]float64 {
	pitch := -pitchCmd * mix.Pitch
	roll := rollCmd * mix.Roll
	yaw := yawCmd * mix.Yaw

	var out [NumMotors]float64
	out[MotorFR] = base - pitch - roll
	out[MotorFL] = base - pitch + roll
	out[MotorBL] = base + pitch + roll
	out[MotorBR] = base + pitch - roll
	for i := range out {
		out[i] = dynamo.Clamp01(out[i] + MotorSpinDir[i]*yaw)
	}
	return out
}

// Spool moves each output toward its target by at most ratePerSec*dt.
func Spool(out, target [NumMotors]float64, ratePerSec, dt float64) [NumMotors]float64 {
	step := math.Max(0, ratePerSec) * dt
	for i := range out {
		out[i] = dynamo.Clamp01(dynamo.MoveTowards(out[i], target[i], step))
	}
	return out
}

// MotorRPM maps a smoothed output to spin rate. Any output above epsilon spins
// at least at idle; the ceiling sags with the square root of charge.
func MotorRPM(out, battery01, idleRPM, maxRPM, epsilon float64) float64 {
	if out <= epsilon {
		return 0
	}
	ceiling := maxRPM * dynamo.Lerp(0.65, 1, math.Sqrt(dynamo.Clamp01(battery01)))
	return math.Max(0, dynamo.Lerp(idleRPM, ceiling, dynamo.Clamp01(out)))
}
