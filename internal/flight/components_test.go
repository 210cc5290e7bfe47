package flight

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
)

func tiltedUp(deg float64) mgl64.Vec3 {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), mgl64.Vec3{1, 0, 0}).Rotate(dynamo.WorldUp)
}

func TestTiltCompensation(t *testing.T) {
	tests := []struct {
		name     string
		tiltDeg  float64
		enabled  bool
		strength float64
		want     float64
	}{
		{"level", 0, true, 1, 1},
		{"disabled level", 0, false, 1, 1},
		{"disabled tilted", 60, false, 1, 1},
		{"30 degrees", 30, true, 1, 1 / math.Cos(mgl64.DegToRad(30))},
		{"60 degrees half strength", 60, true, 0.5, 1.5},
		{"90 degrees clamps to min cosine", 90, true, 1, math.Min(1/0.35, 2.4)},
		{"inverted", 180, true, 1, 2.4},
		{"zero strength", 45, true, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TiltCompensation(tiltedUp(tt.tiltDeg), tt.enabled, tt.strength, 2.4, 0.35)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("factor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTiltCompensation_Bounds(t *testing.T) {
	for deg := 0.0; deg <= 180; deg += 0.5 {
		up := tiltedUp(deg)
		if f := TiltCompensation(up, true, 1, 2.4, 0.35); f < 1 || f > 2.4 {
			t.Fatalf("tilt %v: enabled factor %v outside [1, 2.4]", deg, f)
		}
		if f := TiltCompensation(up, false, 1, 2.4, 0.35); f != 1 {
			t.Fatalf("tilt %v: disabled factor %v", deg, f)
		}
	}
}

func TestSmoothThrottle(t *testing.T) {
	// One time constant closes 1-1/e of the gap.
	got := SmoothThrottle(0, 1, 6, 1.0/6)
	if math.Abs(got-(1-math.Exp(-1))) > 1e-12 {
		t.Errorf("SmoothThrottle = %v", got)
	}
	if got := SmoothThrottle(0.5, 0.5, 6, 0.01); got != 0.5 {
		t.Errorf("at target moved to %v", got)
	}
	if got := SmoothThrottle(0.2, 5, 1000, 1); got != 1 {
		t.Errorf("not clamped: %v", got)
	}
}

func TestThrottleCommand(t *testing.T) {
	if got := UpdateThrottleCommand(0.5, 1, 0.8, 0.5); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("UpdateThrottleCommand = %v", got)
	}
	if got := UpdateThrottleCommand(0.9, 1, 0.8, 1); got != 1 {
		t.Errorf("upper clamp: %v", got)
	}
	if got := UpdateThrottleCommand(0.1, -1, 0.8, 1); got != 0 {
		t.Errorf("lower clamp: %v", got)
	}
	if got := KillRamp(1, 2.5, 0.1); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("KillRamp = %v", got)
	}
	if got := KillRamp(0.1, 2.5, 0.1); got != 0 {
		t.Errorf("KillRamp overshoot = %v", got)
	}
}

func TestPowerAndBattery(t *testing.T) {
	if got := PowerDraw(18, 420, 2.2, 0); got != 18 {
		t.Errorf("idle power = %v", got)
	}
	if got := PowerDraw(18, 420, 2.2, 1); got != 438 {
		t.Errorf("full power = %v", got)
	}
	half := PowerDraw(0, 420, 2.2, 0.5)
	if half >= 210 {
		t.Errorf("power curve not convex: %v at half throttle", half)
	}

	if got := Drain(100, 50, 1); got != 50 {
		t.Errorf("Drain = %v", got)
	}
	if got := Drain(10, 50, 1); got != 0 {
		t.Errorf("Drain below zero = %v", got)
	}
	if got := Drain(10, -50, 1); got != 10 {
		t.Errorf("negative power charged the battery: %v", got)
	}

	tests := []struct {
		battery, limit, want float64
	}{
		{1, 0.35, 1},
		{0.5, 0, 1},
		{0.5, 1, 0.5},
		{0.2, 0.5, 0.6},
	}
	for _, tt := range tests {
		if got := ThrustAvailability(tt.battery, tt.limit); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ThrustAvailability(%v, %v) = %v, want %v", tt.battery, tt.limit, got, tt.want)
		}
	}

	if got := MaxTotalThrust(2, 1.5, 10); got != 30 {
		t.Errorf("MaxTotalThrust = %v", got)
	}
}

func TestMixTargets(t *testing.T) {
	mix := Mix{Pitch: 0.1, Roll: 0.1, Yaw: 0.1}

	tests := []struct {
		name             string
		base             float64
		pitch, roll, yaw float64
		want             [NumMotors]float64
	}{
		{"neutral", 0.5, 0, 0, 0, [NumMotors]float64{0.5, 0.5, 0.5, 0.5}},
		{"pitch up lifts front", 0.5, 1, 0, 0, [NumMotors]float64{0.6, 0.6, 0.4, 0.4}},
		{"right roll lifts left", 0.5, 0, 1, 0, [NumMotors]float64{0.4, 0.6, 0.6, 0.4}},
		{"yaw by spin direction", 0.5, 0, 0, 1, [NumMotors]float64{0.6, 0.4, 0.6, 0.4}},
		{"clamped high", 1, 1, 1, 1, [NumMotors]float64{1, 1, 1, 0.7}},
		{"clamped low", 0, -1, 0, 0, [NumMotors]float64{0, 0, 0.1, 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MixTargets(tt.base, tt.pitch, tt.roll, tt.yaw, mix)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Fatalf("MixTargets = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSpool(t *testing.T) {
	out := Spool([NumMotors]float64{0, 1, 0.5, 0.5}, [NumMotors]float64{1, 0, 0.5, 0.52}, 4, 0.01)
	want := [NumMotors]float64{0.04, 0.96, 0.5, 0.52}
	for i := range out {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("Spool = %v, want %v", out, want)
		}
	}
}

func TestMotorRPM(t *testing.T) {
	eps := DefaultParams().RPMEpsilon
	tests := []struct {
		name    string
		out     float64
		battery float64
		want    float64
	}{
		{"stopped", 0, 1, 0},
		{"below epsilon", eps / 2, 1, 0},
		{"at epsilon", eps, 1, 0},
		{"barely spinning", 2 * eps, 1, 1800 + (12000-1800)*2*eps},
		{"full on full battery", 1, 1, 12000},
		{"full on empty battery", 1, 0, 12000 * 0.65},
		{"half on quarter battery", 0.5, 0.25, dynamo.Lerp(1800, 12000*dynamo.Lerp(0.65, 1, 0.5), 0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MotorRPM(tt.out, tt.battery, 1800, 12000, eps)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MotorRPM = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultParamsValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
}
