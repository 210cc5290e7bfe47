package control

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.einride.tech/pid"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Gains are the three terms of one loop.
type Gains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

func (g Gains) controller() pid.Controller {
	return pid.Controller{
		Config: pid.ControllerConfig{
			ProportionalGain: g.Kp,
			IntegralGain:     g.Ki,
			DerivativeGain:   g.Kd,
		},
	}
}

type AutopilotParams struct {
	TargetAltitude    float64 `yaml:"target_altitude"`
	TargetHeadingDeg  float64 `yaml:"target_heading_deg"`
	MaxClimbRate      float64 `yaml:"max_climb_rate"`
	HoldHeading       bool    `yaml:"hold_heading"`
	HoldVelocity      bool    `yaml:"hold_velocity"`
	TargetForwardVel  float64 `yaml:"target_forward_vel"`
	TargetRightVel    float64 `yaml:"target_right_vel"`
	AltitudeGains     Gains   `yaml:"altitude"`
	ClimbRateGains    Gains   `yaml:"climb_rate"`
	HeadingGains      Gains   `yaml:"heading"`
	VelocityGains     Gains   `yaml:"velocity"`
	DefaultSampleTime float64 `yaml:"default_sample_time"`
}

func DefaultAutopilotParams() AutopilotParams {
	return AutopilotParams{
		TargetAltitude:    5,
		MaxClimbRate:      2,
		HoldHeading:       true,
		AltitudeGains:     Gains{Kp: 0.8},
		ClimbRateGains:    Gains{Kp: 0.25, Ki: 0.02, Kd: 0.18},
		HeadingGains:      Gains{Kp: 0.05},
		VelocityGains:     Gains{Kp: 0.3, Ki: 0.05},
		DefaultSampleTime: 1.0 / 120.0,
	}
}

// Autopilot flies the vehicle through the stick interface: an altitude loop
// cascaded onto a climb-rate loop drives throttle, a heading loop drives yaw and
// an optional ground-velocity loop drives pitch and roll.
type Autopilot struct {
	params   AutopilotParams
	altitude pid.Controller
	climb    pid.Controller
	heading  pid.Controller
	forward  pid.Controller
	right    pid.Controller
	lastT    float64
	started  bool
}

func NewAutopilot(params AutopilotParams) *Autopilot {
	a := &Autopilot{params: params}
	a.Reset()
	return a
}

func (a *Autopilot) Params() AutopilotParams { return a.params }

// SetTargetAltitude retargets the altitude loop without clearing its state.
func (a *Autopilot) SetTargetAltitude(alt float64) { a.params.TargetAltitude = alt }

func (a *Autopilot) Reset() {
	a.altitude = a.params.AltitudeGains.controller()
	a.climb = a.params.ClimbRateGains.controller()
	a.heading = a.params.HeadingGains.controller()
	a.forward = a.params.VelocityGains.controller()
	a.right = a.params.VelocityGains.controller()
	a.started = false
	a.lastT = 0
}

func (a *Autopilot) sampleInterval(t float64) time.Duration {
	dt := a.params.DefaultSampleTime
	if a.started && t > a.lastT {
		dt = t - a.lastT
	}
	a.started = true
	a.lastT = t
	if dt <= 0 {
		dt = 1.0 / 120.0
	}
	return time.Duration(dt * float64(time.Second))
}

func (a *Autopilot) Command(obs dynamo.Observation, tel dynamo.Telemetry, t float64) dynamo.Command {
	interval := a.sampleInterval(t)
	var cmd dynamo.Command

	a.altitude.Update(pid.ControllerInput{
		ReferenceSignal:  a.params.TargetAltitude,
		ActualSignal:     obs.Altitude(),
		SamplingInterval: interval,
	})
	maxClimb := math.Max(0, a.params.MaxClimbRate)
	climbRef := mgl64.Clamp(a.altitude.State.ControlSignal, -maxClimb, maxClimb)

	a.climb.Update(pid.ControllerInput{
		ReferenceSignal:  climbRef,
		ActualSignal:     obs.Velocity.Y(),
		SamplingInterval: interval,
	})
	cmd.ThrottleDelta = a.climb.State.ControlSignal

	if a.params.HoldHeading {
		// Reference is the wrapped error so the loop never turns the long way.
		errDeg := dynamo.WrapSignedDegrees(a.params.TargetHeadingDeg - tel.HeadingDeg)
		a.heading.Update(pid.ControllerInput{
			ReferenceSignal:  errDeg,
			ActualSignal:     0,
			SamplingInterval: interval,
		})
		cmd.Yaw = a.heading.State.ControlSignal
	}

	if a.params.HoldVelocity {
		h := mgl64.DegToRad(tel.HeadingDeg)
		fwd := mgl64.Vec3{math.Sin(h), 0, math.Cos(h)}
		right := mgl64.Vec3{math.Cos(h), 0, -math.Sin(h)}

		a.forward.Update(pid.ControllerInput{
			ReferenceSignal:  a.params.TargetForwardVel,
			ActualSignal:     obs.Velocity.Dot(fwd),
			SamplingInterval: interval,
		})
		a.right.Update(pid.ControllerInput{
			ReferenceSignal:  a.params.TargetRightVel,
			ActualSignal:     obs.Velocity.Dot(right),
			SamplingInterval: interval,
		})
		// Nose down accelerates forward, which is negative pitch.
		cmd.Pitch = -a.forward.State.ControlSignal
		cmd.Roll = a.right.State.ControlSignal
	}

	return cmd.Clamped()
}
