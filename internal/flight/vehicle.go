package flight

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/san-kum/quadsim/internal/control"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/environment"
)

var bodyRight = mgl64.Vec3{1, 0, 0}

// Vehicle runs the flight control loop for one airframe against a rigid body.
// It owns its State exclusively and is not safe for concurrent use.
type Vehicle struct {
	name   string
	body   dynamo.RigidBody
	params Params
	env    *environment.Model
	pd     control.PD
	rescue control.Rescue
	log    zerolog.Logger

	state     State
	mode      dynamo.Mode
	telemetry dynamo.Telemetry
}

type Option func(*Vehicle)

func WithLogger(l zerolog.Logger) Option {
	return func(v *Vehicle) { v.log = l }
}

func WithName(name string) Option {
	return func(v *Vehicle) { v.name = name }
}

// New validates params and prepares body: the centre of mass is lowered and
// the angular speed capped once, here.
func New(body dynamo.RigidBody, params Params, env *environment.Model, opts ...Option) (*Vehicle, error) {
	if body == nil {
		return nil, fmt.Errorf("flight: nil rigid body")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("flight: %w", err)
	}
	if env == nil {
		env = environment.New(environment.Calm(), nil)
	}

	v := &Vehicle{
		name:   "quad",
		body:   body,
		params: params,
		env:    env,
		pd:     control.PD{Kp: params.Kp, Kd: params.Kd},
		rescue: control.Rescue{
			Strength: params.UprightRescueStrength,
			StartDeg: params.RescueStartDeg,
			FullDeg:  params.RescueFullDeg,
		},
		log:   zerolog.Nop(),
		state: newState(params),
		mode:  dynamo.ModeArmed,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.With().Str("vehicle", v.name).Logger()

	body.SetCenterOfMass(mgl64.Vec3{0, -params.CenterOfMassDrop, 0})
	body.SetMaxAngularVelocity(params.MaxAngularSpeed)
	v.publish()
	return v, nil
}

func (v *Vehicle) Name() string                { return v.name }
func (v *Vehicle) Params() Params              { return v.params }
func (v *Vehicle) Body() dynamo.RigidBody      { return v.body }
func (v *Vehicle) Mode() dynamo.Mode           { return v.mode }
func (v *Vehicle) State() State                { return v.state }
func (v *Vehicle) Telemetry() dynamo.Telemetry { return v.telemetry }

// ResetBattery refills the battery. It is the only way out of the depleted mode.
func (v *Vehicle) ResetBattery() {
	v.state.BatteryEnergyJ = v.state.BatteryEnergyJ0
	v.log.Info().Float64("energy_j", v.state.BatteryEnergyJ).Msg("battery reset")
	v.updateMode(math.NaN())
	v.publish()
}

// Step runs one fixed tick. Every force and torque is accumulated on the body;
// the caller integrates the body afterwards.
func (v *Vehicle) Step(cmd dynamo.Command, t, dt float64) {
	if !(dt > 0) || !dynamo.IsFinite(dt) {
		return
	}
	cmd = cmd.Clamped()
	p := &v.params
	s := &v.state

	if cmd.KillToggle {
		s.KillMotors = !s.KillMotors
	}
	s.PitchCmd, s.RollCmd, s.YawCmd = cmd.Pitch, cmd.Roll, cmd.Yaw
	s.ThrottleCommand = UpdateThrottleCommand(s.ThrottleCommand, cmd.ThrottleDelta, p.ThrottleChangePerSec, dt)
	if s.KillMotors {
		s.ThrottleCommand = KillRamp(s.ThrottleCommand, p.KillRampPerSec, dt)
	}

	obs := dynamo.Observe(v.body)
	up := obs.Up()

	heading, target := control.ResolveTarget(s.YawTargetHeadingDeg, cmd, p.MaxTiltDeg, p.YawRateDegPerSec, dt)
	s.YawTargetHeadingDeg = heading
	if accel, ok := v.pd.Correction(target.Quat(), obs.Rotation, obs.AngularVelocity); ok {
		v.body.AddTorque(accel)
	}
	if rescue := v.rescue.Torque(up, obs.Rotation.Rotate(bodyRight)); rescue.Len() > 0 {
		v.body.AddTorque(rescue)
	}

	s.Throttle = SmoothThrottle(s.Throttle, s.ThrottleCommand, p.ThrottleSmoothing, dt)
	s.TiltCompFactor = TiltCompensation(up, p.TiltCompEnabled, p.TiltCompStrength, p.TiltCompMax, p.TiltCompMinCosine)
	s.EffectiveThrottle = dynamo.Clamp01(s.Throttle * s.TiltCompFactor)

	// Killed motors draw only the base load; a depleted pack draws nothing.
	s.LastPowerW = 0
	if !s.Depleted() {
		load := s.EffectiveThrottle
		if s.KillMotors {
			load = 0
		}
		s.LastPowerW = PowerDraw(p.BasePowerW, p.MaxExtraPowerW, p.PowerExponent, load)
		s.BatteryEnergyJ = Drain(s.BatteryEnergyJ, s.LastPowerW, dt)
	}
	battery01 := s.Battery01()
	grounded := s.KillMotors || s.Depleted()

	s.LastTotalThrustN = 0
	if !grounded {
		s.LastTotalThrustN = s.EffectiveThrottle *
			MaxTotalThrust(p.ThrustToWeight, v.body.Mass(), v.body.Gravity()) *
			ThrustAvailability(battery01, p.BatteryThrustLimit)
	}
	if s.LastTotalThrustN > 0 {
		perMotor := up.Mul(s.LastTotalThrustN / NumMotors)
		for _, at := range MotorPositions(obs.Position, obs.Rotation, p.ArmLength) {
			v.body.AddForceAtPoint(perMotor, at)
		}
	}

	if grounded {
		s.MotorOutTarget = [NumMotors]float64{}
	} else {
		s.MotorOutTarget = MixTargets(s.EffectiveThrottle, s.PitchCmd, s.RollCmd, s.YawCmd,
			Mix{Pitch: p.MixPitch, Roll: p.MixRoll, Yaw: p.MixYaw})
	}
	s.MotorOut = Spool(s.MotorOut, s.MotorOutTarget, p.SpoolRatePerSec, dt)
	for i := range s.MotorOut {
		s.MotorRPM[i] = MotorRPM(s.MotorOut[i], battery01, p.IdleRPM, p.MaxRPM, p.RPMEpsilon)
	}

	forces := v.env.Step(obs.Position, obs.Velocity, t)
	s.LastWindVel = forces.Wind
	s.LastRelAirVel = forces.RelAirVel
	if forces.Drag.Len() > 0 {
		v.body.AddForceAtPoint(forces.Drag, obs.Position)
	}
	if forces.Turbulence.Len() > 0 {
		v.body.AddTorque(forces.Turbulence)
	}

	v.updateMode(t)
	v.publish()
}

func (v *Vehicle) updateMode(t float64) {
	next := dynamo.ModeArmed
	switch {
	case v.state.Depleted():
		next = dynamo.ModeDepleted
	case v.state.KillMotors:
		next = dynamo.ModeKilled
	}
	if next == v.mode {
		return
	}
	ev := v.log.Info().Stringer("from", v.mode).Stringer("mode", next)
	if dynamo.IsFinite(t) {
		ev = ev.Float64("t", t)
	}
	ev.Float64("battery", v.state.Battery01()).Msg("mode change")
	v.mode = next
}

func (v *Vehicle) publish() {
	s := &v.state
	v.telemetry = dynamo.Telemetry{
		Mode:              v.mode,
		Throttle:          s.Throttle,
		EffectiveThrottle: s.EffectiveThrottle,
		TiltCompFactor:    s.TiltCompFactor,
		TotalThrustN:      s.LastTotalThrustN,
		PowerW:            s.LastPowerW,
		Battery01:         s.Battery01(),
		BatteryEnergyJ:    s.BatteryEnergyJ,
		MotorOut:          s.MotorOut,
		MotorRPM:          s.MotorRPM,
		KillMotors:        s.KillMotors,
		HeadingDeg:        s.YawTargetHeadingDeg,
		WindVel:           s.LastWindVel,
		RelAirVel:         s.LastRelAirVel,
	}
}
