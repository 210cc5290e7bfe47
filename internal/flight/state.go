package flight

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Motor indices. Order is fixed: front-right, front-left, back-left, back-right.
const (
	MotorFR = iota
	MotorFL
	MotorBL
	MotorBR
	NumMotors
)

// MotorSpinDir alternates around the frame so diagonal pairs share a direction.
var MotorSpinDir = [NumMotors]float64{+1, -1, +1, -1}

// motorArms are body-frame unit offsets for each motor in the X layout.
// +X is right and +Z is forward.
var motorArms = [NumMotors]mgl64.Vec3{
	MotorFR: {+1, 0, +1},
	MotorFL: {-1, 0, +1},
	MotorBL: {-1, 0, -1},
	MotorBR: {+1, 0, -1},
}

// MotorPositions returns the world position of each motor hub.
func MotorPositions(pos mgl64.Vec3, rot mgl64.Quat, armLength float64) [NumMotors]mgl64.Vec3 {
	var out [NumMotors]mgl64.Vec3
	for i, arm := range motorArms {
		out[i] = pos.Add(rot.Rotate(arm.Normalize().Mul(armLength)))
	}
	return out
}

// State is everything the control loop carries between ticks for one vehicle.
type State struct {
	ThrottleCommand float64
	Throttle        float64

	PitchCmd float64
	RollCmd  float64
	YawCmd   float64

	YawTargetHeadingDeg float64
	KillMotors          bool

	BatteryEnergyJ  float64
	BatteryEnergyJ0 float64

	MotorOut       [NumMotors]float64
	MotorOutTarget [NumMotors]float64
	MotorRPM       [NumMotors]float64
	MotorSpinDir   [NumMotors]float64

	EffectiveThrottle float64
	TiltCompFactor    float64

	LastWindVel      mgl64.Vec3
	LastRelAirVel    mgl64.Vec3
	LastTotalThrustN float64
	LastPowerW       float64
}

func newState(p Params) State {
	return State{
		BatteryEnergyJ:  p.BatteryCapacityJ,
		BatteryEnergyJ0: p.BatteryCapacityJ,
		MotorSpinDir:    MotorSpinDir,
		TiltCompFactor:  1,
	}
}

// Battery01 is the remaining charge fraction.
func (s State) Battery01() float64 {
	return batteryLevel(s.BatteryEnergyJ, s.BatteryEnergyJ0)
}

// Depleted reports whether the battery can no longer supply thrust.
func (s State) Depleted() bool {
	return s.BatteryEnergyJ <= 0
}
