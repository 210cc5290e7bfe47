package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WorldUp is the +Y axis of the simulation frame. +Z is forward, +X is right.
var WorldUp = mgl64.Vec3{0, 1, 0}

// Command is one tick of pilot input. Axes are normalized to [-1, 1].
// Pitch > 0 pulls the nose up, Roll > 0 banks right, Yaw > 0 turns right.
// KillToggle is an edge: true on exactly the tick the toggle was pressed.
type Command struct {
	Pitch         float64 `json:"pitch" yaml:"pitch"`
	Roll          float64 `json:"roll" yaml:"roll"`
	Yaw           float64 `json:"yaw" yaml:"yaw"`
	ThrottleDelta float64 `json:"throttle_delta" yaml:"throttle_delta"`
	KillToggle    bool    `json:"kill_toggle" yaml:"kill_toggle"`
}

// Clamped returns c with every axis limited to [-1, 1] and non-finite values zeroed.
func (c Command) Clamped() Command {
	c.Pitch = clampAxis(c.Pitch)
	c.Roll = clampAxis(c.Roll)
	c.Yaw = clampAxis(c.Yaw)
	c.ThrottleDelta = clampAxis(c.ThrottleDelta)
	return c
}

func clampAxis(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return mgl64.Clamp(v, -1, 1)
}

type Mode int

const (
	ModeArmed Mode = iota
	ModeKilled
	ModeDepleted
)

func (m Mode) String() string {
	switch m {
	case ModeArmed:
		return "armed"
	case ModeKilled:
		return "killed"
	case ModeDepleted:
		return "depleted"
	default:
		return "unknown"
	}
}

// RigidBody is the physics backend a vehicle drives. Implementations own
// integration; the vehicle only reads pose and accumulates forces during a tick.
type RigidBody interface {
	Pose() (pos mgl64.Vec3, rot mgl64.Quat)
	Velocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	Mass() float64
	// Gravity is the magnitude (m/s²) of the gravity the body integrates with.
	Gravity() float64
	SetCenterOfMass(offset mgl64.Vec3)
	SetMaxAngularVelocity(max float64)
	// AddForceAtPoint applies a world-frame force (N) at a world-frame point.
	AddForceAtPoint(force, point mgl64.Vec3)
	// AddTorque applies a world-frame angular acceleration (rad/s²), mass independent.
	AddTorque(angularAccel mgl64.Vec3)
}

// Observation is the body state read at the start of a tick.
type Observation struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// Observe reads the current body state.
func Observe(b RigidBody) Observation {
	pos, rot := b.Pose()
	return Observation{
		Position:        pos,
		Rotation:        rot,
		Velocity:        b.Velocity(),
		AngularVelocity: b.AngularVelocity(),
	}
}

// Up returns the body up axis in world coordinates.
func (o Observation) Up() mgl64.Vec3 {
	return o.Rotation.Rotate(WorldUp)
}

// TiltDeg is the angle between the body up axis and world up.
func (o Observation) TiltDeg() float64 {
	c := mgl64.Clamp(o.Up().Dot(WorldUp), -1, 1)
	return mgl64.RadToDeg(math.Acos(c))
}

// Altitude is the height above the world origin.
func (o Observation) Altitude() float64 {
	return o.Position.Y()
}

// Telemetry is a read-only snapshot published at the end of every tick.
// It is a plain value; copies never alias vehicle state.
type Telemetry struct {
	Mode              Mode       `json:"mode"`
	Throttle          float64    `json:"throttle"`
	EffectiveThrottle float64    `json:"effective_throttle"`
	TiltCompFactor    float64    `json:"tilt_comp_factor"`
	TotalThrustN      float64    `json:"total_thrust_n"`
	PowerW            float64    `json:"power_w"`
	Battery01         float64    `json:"battery01"`
	BatteryEnergyJ    float64    `json:"battery_energy_j"`
	MotorOut          [4]float64 `json:"motor_out"`
	MotorRPM          [4]float64 `json:"motor_rpm"`
	KillMotors        bool       `json:"kill_motors"`
	HeadingDeg        float64    `json:"heading_deg"`
	WindVel           mgl64.Vec3 `json:"wind_vel"`
	RelAirVel         mgl64.Vec3 `json:"rel_air_vel"`
}

// Sample is one recorded tick.
type Sample struct {
	Time        float64
	Observation Observation
	Command     Command
	Telemetry   Telemetry
}
