package flight

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/environment"
)

const tick = 1.0 / 120.0

type appliedForce struct {
	force, point mgl64.Vec3
}

// recordingBody never moves; it only records what the vehicle applies.
type recordingBody struct {
	pos     mgl64.Vec3
	rot     mgl64.Quat
	vel     mgl64.Vec3
	angVel  mgl64.Vec3
	mass    float64
	gravity float64
	com     mgl64.Vec3
	maxAng  float64
	forces  []appliedForce
	torques []mgl64.Vec3
}

func newRecordingBody() *recordingBody {
	return &recordingBody{rot: mgl64.QuatIdent(), mass: 1.2, gravity: 9.81}
}

func (b *recordingBody) Pose() (mgl64.Vec3, mgl64.Quat)    { return b.pos, b.rot }
func (b *recordingBody) Velocity() mgl64.Vec3              { return b.vel }
func (b *recordingBody) AngularVelocity() mgl64.Vec3       { return b.angVel }
func (b *recordingBody) Mass() float64                     { return b.mass }
func (b *recordingBody) Gravity() float64                  { return b.gravity }
func (b *recordingBody) SetCenterOfMass(offset mgl64.Vec3) { b.com = offset }
func (b *recordingBody) SetMaxAngularVelocity(max float64) { b.maxAng = max }
func (b *recordingBody) AddTorque(a mgl64.Vec3)            { b.torques = append(b.torques, a) }
func (b *recordingBody) AddForceAtPoint(f, p mgl64.Vec3) {
	b.forces = append(b.forces, appliedForce{force: f, point: p})
}

func (b *recordingBody) clear() {
	b.forces = b.forces[:0]
	b.torques = b.torques[:0]
}

func (b *recordingBody) netForce() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, f := range b.forces {
		sum = sum.Add(f.force)
	}
	return sum
}

func (b *recordingBody) netTorque() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, tq := range b.torques {
		sum = sum.Add(tq)
	}
	return sum
}

func newTestVehicle(t *testing.T, body *recordingBody, mutate func(*Params)) *Vehicle {
	t.Helper()
	p := DefaultParams()
	if mutate != nil {
		mutate(&p)
	}
	v, err := New(body, p, environment.New(environment.Calm(), environment.Constant(0.5)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestNew_PreparesBody(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, nil)

	if body.com != (mgl64.Vec3{0, -0.05, 0}) {
		t.Errorf("centre of mass = %v", body.com)
	}
	if body.maxAng != 12 {
		t.Errorf("max angular velocity = %v", body.maxAng)
	}
	if v.Mode() != dynamo.ModeArmed {
		t.Errorf("initial mode = %v", v.Mode())
	}
	if v.Telemetry().Battery01 != 1 {
		t.Errorf("initial battery = %v", v.Telemetry().Battery01)
	}
}

func TestNew_RejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.BatteryCapacityJ = 0
	_, err := New(newRecordingBody(), p, nil)
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if _, err := New(nil, DefaultParams(), nil); err == nil {
		t.Error("expected error for nil body")
	}
}

func TestStep_InvariantsUnderRandomInput(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, func(p *Params) { p.BatteryCapacityJ = 300 })
	rng := rand.New(rand.NewSource(3))

	prevEnergy := v.State().BatteryEnergyJ
	for i := 0; i < 5000; i++ {
		body.rot = mgl64.QuatRotate(rng.Float64()*2*math.Pi, mgl64.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}.Normalize())
		cmd := dynamo.Command{
			Pitch:         rng.Float64()*4 - 2,
			Roll:          rng.Float64()*4 - 2,
			Yaw:           rng.Float64()*4 - 2,
			ThrottleDelta: rng.Float64()*2 - 0.5,
			KillToggle:    rng.Intn(200) == 0,
		}
		v.Step(cmd, float64(i)*tick, tick)
		s := v.State()

		if s.BatteryEnergyJ < 0 || s.BatteryEnergyJ > s.BatteryEnergyJ0 {
			t.Fatalf("tick %d: energy %v outside [0, %v]", i, s.BatteryEnergyJ, s.BatteryEnergyJ0)
		}
		if s.BatteryEnergyJ > prevEnergy {
			t.Fatalf("tick %d: energy increased %v -> %v", i, prevEnergy, s.BatteryEnergyJ)
		}
		prevEnergy = s.BatteryEnergyJ

		for m, out := range s.MotorOut {
			if out < 0 || out > 1 {
				t.Fatalf("tick %d: motor %d out %v", i, m, out)
			}
			if s.MotorRPM[m] < 0 {
				t.Fatalf("tick %d: motor %d rpm %v", i, m, s.MotorRPM[m])
			}
		}
		if s.YawTargetHeadingDeg < 0 || s.YawTargetHeadingDeg >= 360 {
			t.Fatalf("tick %d: heading %v", i, s.YawTargetHeadingDeg)
		}
		if (s.KillMotors || s.Depleted()) && s.LastTotalThrustN != 0 {
			t.Fatalf("tick %d: thrust %v while grounded", i, s.LastTotalThrustN)
		}
		body.clear()
	}
	if !v.State().Depleted() {
		t.Error("expected the small battery to deplete")
	}
}

func TestStep_KillStopsMotors(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, nil)

	for i := 0; i < 240; i++ {
		v.Step(dynamo.Command{ThrottleDelta: 1}, float64(i)*tick, tick)
	}
	if v.Telemetry().TotalThrustN <= 0 {
		t.Fatal("expected thrust before kill")
	}

	v.Step(dynamo.Command{ThrottleDelta: 1, KillToggle: true}, 2, tick)
	if v.Mode() != dynamo.ModeKilled {
		t.Fatalf("mode = %v, want killed", v.Mode())
	}
	if v.Telemetry().TotalThrustN != 0 {
		t.Errorf("thrust on kill tick = %v", v.Telemetry().TotalThrustN)
	}
	if got, want := v.Telemetry().PowerW, v.Params().BasePowerW; got != want {
		t.Errorf("power on kill tick = %v, want base load %v", got, want)
	}
	if v.State().Throttle == 0 {
		t.Error("throttle should ramp down, not drop to zero")
	}
	if v.Telemetry().MotorOut[0] == 0 {
		t.Error("motors should spool down, not stop instantly")
	}

	// Spool rate 4/s drains full output in 0.25 s; the held command needs
	// 1/(2.5-0.8) s against a full-up throttle stick.
	for i := 0; i < 90; i++ {
		body.clear()
		v.Step(dynamo.Command{ThrottleDelta: 1, Pitch: 1, Yaw: -1}, 2+float64(i)*tick, tick)
	}
	tel := v.Telemetry()
	for m := 0; m < NumMotors; m++ {
		if tel.MotorOut[m] != 0 || tel.MotorRPM[m] != 0 {
			t.Errorf("motor %d out=%v rpm=%v after kill", m, tel.MotorOut[m], tel.MotorRPM[m])
		}
	}
	if tel.TotalThrustN != 0 || body.netForce() != (mgl64.Vec3{}) {
		t.Errorf("thrust %v force %v after kill", tel.TotalThrustN, body.netForce())
	}
	if v.State().ThrottleCommand != 0 {
		t.Errorf("throttle command %v should ramp to zero", v.State().ThrottleCommand)
	}

	v.Step(dynamo.Command{KillToggle: true}, 3, tick)
	if v.Mode() != dynamo.ModeArmed {
		t.Errorf("mode after second toggle = %v", v.Mode())
	}
}

func TestStep_DepletedIsTerminal(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, func(p *Params) { p.BatteryCapacityJ = 1 })

	for i := 0; i < 120 && !v.State().Depleted(); i++ {
		v.Step(dynamo.Command{ThrottleDelta: 1}, float64(i)*tick, tick)
	}
	if v.Mode() != dynamo.ModeDepleted {
		t.Fatalf("mode = %v, want depleted", v.Mode())
	}

	for i := 0; i < 200; i++ {
		body.clear()
		cmd := dynamo.Command{ThrottleDelta: 1, Pitch: -1, Roll: 1, KillToggle: i == 10 || i == 20}
		v.Step(cmd, float64(i)*tick, tick)
		tel := v.Telemetry()
		if tel.TotalThrustN != 0 || tel.PowerW != 0 || tel.BatteryEnergyJ != 0 {
			t.Fatalf("tick %d: thrust=%v power=%v energy=%v while depleted", i, tel.TotalThrustN, tel.PowerW, tel.BatteryEnergyJ)
		}
		if body.netForce() != (mgl64.Vec3{}) {
			t.Fatalf("tick %d: force %v while depleted", i, body.netForce())
		}
		if v.Mode() != dynamo.ModeDepleted {
			t.Fatalf("tick %d: left depleted mode", i)
		}
	}

	v.ResetBattery()
	if v.Mode() != dynamo.ModeArmed || v.Telemetry().Battery01 != 1 {
		t.Errorf("after reset mode=%v battery=%v", v.Mode(), v.Telemetry().Battery01)
	}
}

func TestStep_ThrottleRamp(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, nil)
	p := v.Params()

	// A constant delta that raises the command from 0 to 1 in exactly 2 s.
	delta := 1 / (p.ThrottleChangePerSec * 2)
	steps := int(math.Round(2 / tick))
	for i := 0; i < steps; i++ {
		v.Step(dynamo.Command{ThrottleDelta: delta}, float64(i)*tick, tick)
		s := v.State()
		if s.Throttle > s.ThrottleCommand+1e-12 {
			t.Fatalf("tick %d: throttle %v leads command %v", i, s.Throttle, s.ThrottleCommand)
		}
		if s.TiltCompFactor != 1 || s.EffectiveThrottle != s.Throttle {
			t.Fatalf("tick %d: level flight factor=%v eff=%v throttle=%v", i, s.TiltCompFactor, s.EffectiveThrottle, s.Throttle)
		}
	}
	s := v.State()
	if math.Abs(s.ThrottleCommand-1) > 1e-9 {
		t.Fatalf("command after ramp = %v", s.ThrottleCommand)
	}
	// A ramp of slope r through a first-order lag of rate k trails by r/k.
	lag := s.ThrottleCommand - s.Throttle
	want := 0.5 / p.ThrottleSmoothing
	if math.Abs(lag-want) > 0.01 {
		t.Errorf("lag = %v, want ≈ %v", lag, want)
	}

	for i := 0; i < 600; i++ {
		v.Step(dynamo.Command{}, 2+float64(i)*tick, tick)
	}
	if math.Abs(v.State().Throttle-1) > 1e-6 {
		t.Errorf("throttle did not settle at 1: %v", v.State().Throttle)
	}
}

func TestStep_YawHeading(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, nil)
	for i := 0; i < 120; i++ {
		v.Step(dynamo.Command{Yaw: 1}, float64(i)*tick, tick)
	}
	if got := v.Telemetry().HeadingDeg; math.Abs(got-140) > 1e-9 {
		t.Errorf("heading = %v, want 140", got)
	}
	for i := 0; i < 240; i++ {
		v.Step(dynamo.Command{Yaw: 1}, float64(i)*tick, tick)
	}
	if got := v.Telemetry().HeadingDeg; math.Abs(got-60) > 1e-9 {
		t.Errorf("heading after 3 s = %v, want 60 (420 mod 360)", got)
	}
}

func TestStep_ThrustDistribution(t *testing.T) {
	body := newRecordingBody()
	body.rot = mgl64.QuatRotate(mgl64.DegToRad(20), mgl64.Vec3{1, 0, 0})
	v := newTestVehicle(t, body, nil)

	for i := 0; i < 240; i++ {
		body.clear()
		v.Step(dynamo.Command{ThrottleDelta: 0.3, Pitch: 0.5, Roll: -0.5}, float64(i)*tick, tick)
	}
	tel := v.Telemetry()
	if len(body.forces) != NumMotors {
		t.Fatalf("expected %d thrust forces, got %d", NumMotors, len(body.forces))
	}
	up := body.rot.Rotate(dynamo.WorldUp)
	for i, f := range body.forces {
		if !f.force.ApproxEqualThreshold(up.Mul(tel.TotalThrustN/4), 1e-9) {
			t.Errorf("motor %d force %v not a quarter of thrust along up", i, f.force)
		}
	}
	if math.Abs(body.netForce().Len()-tel.TotalThrustN) > 1e-9 {
		t.Errorf("net %v != total %v", body.netForce().Len(), tel.TotalThrustN)
	}
	if tel.TiltCompFactor <= 1 {
		t.Errorf("tilted body should be compensated, factor %v", tel.TiltCompFactor)
	}
	// Pitch up lifts the front pair, left roll lifts the right pair.
	if !(tel.MotorOut[MotorFR] > tel.MotorOut[MotorFL] && tel.MotorOut[MotorFL] > tel.MotorOut[MotorBL]) {
		t.Errorf("unexpected mix for pitch-up left-roll: %v", tel.MotorOut)
	}
	if math.Abs(tel.MotorOut[MotorFL]-tel.MotorOut[MotorBR]) > 1e-9 {
		t.Errorf("diagonal FL/BR should match: %v", tel.MotorOut)
	}
}

func TestStep_ThrustScalesWithBodyGravity(t *testing.T) {
	tests := []struct {
		name    string
		gravity float64
	}{
		{"earth", 9.81},
		{"mars", 3.71},
		{"moon", 1.62},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := newRecordingBody()
			body.gravity = tt.gravity
			v := newTestVehicle(t, body, nil)
			p := v.Params()

			for i := 0; i < 600; i++ {
				v.Step(dynamo.Command{ThrottleDelta: 1}, float64(i)*tick, tick)
			}
			tel := v.Telemetry()
			if tel.EffectiveThrottle < 0.999 {
				t.Fatalf("effective throttle %v, want full", tel.EffectiveThrottle)
			}
			want := tel.EffectiveThrottle * p.ThrustToWeight * body.mass * tt.gravity *
				ThrustAvailability(tel.Battery01, p.BatteryThrustLimit)
			if math.Abs(tel.TotalThrustN-want) > 1e-9 {
				t.Errorf("thrust = %v, want %v", tel.TotalThrustN, want)
			}
			if ratio := tel.TotalThrustN / (body.mass * tt.gravity); ratio > p.ThrustToWeight+1e-9 {
				t.Errorf("thrust to weight %v exceeds %v", ratio, p.ThrustToWeight)
			}
		})
	}
}

func TestStep_LevelHoldAppliesNoAttitudeTorque(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, nil)
	v.Step(dynamo.Command{}, 0, tick)
	if tq := body.netTorque(); tq != (mgl64.Vec3{}) {
		t.Errorf("level body at rest received torque %v", tq)
	}
}

func TestStep_EnvironmentApplied(t *testing.T) {
	body := newRecordingBody()
	body.vel = mgl64.Vec3{2, 0, 0}
	p := DefaultParams()
	env := environment.New(environment.Params{
		AerodynamicsEnabled: true,
		LinearDrag:          0.5,
		TurbulenceTorque:    1,
		GustAmplitude:       1,
	}, environment.Constant(1))
	v, err := New(body, p, env)
	if err != nil {
		t.Fatal(err)
	}
	v.Step(dynamo.Command{}, 0, tick)
	tel := v.Telemetry()
	if tel.WindVel != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("wind = %v", tel.WindVel)
	}
	if tel.RelAirVel != (mgl64.Vec3{1, -1, -1}) {
		t.Errorf("relative air = %v", tel.RelAirVel)
	}
	if body.netForce() == (mgl64.Vec3{}) {
		t.Error("drag not applied")
	}
	if body.netTorque() != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("turbulence torque = %v", body.netTorque())
	}
}

func TestTelemetryIsACopy(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, nil)
	v.Step(dynamo.Command{ThrottleDelta: 1}, 0, tick)
	tel := v.Telemetry()
	tel.MotorOut[0] = 42
	tel.Battery01 = -1
	if v.Telemetry().MotorOut[0] == 42 || v.Telemetry().Battery01 == -1 {
		t.Error("telemetry aliases vehicle state")
	}
}

func TestStep_IgnoresBadDt(t *testing.T) {
	body := newRecordingBody()
	v := newTestVehicle(t, body, nil)
	before := v.State()
	v.Step(dynamo.Command{ThrottleDelta: 1}, 0, 0)
	v.Step(dynamo.Command{ThrottleDelta: 1}, 0, math.NaN())
	if v.State() != before {
		t.Error("non-positive dt mutated state")
	}
}
