package flight

import (
	"github.com/san-kum/quadsim/internal/dynamo"
)

type Params struct {
	// Attitude
	MaxTiltDeg            float64 `yaml:"max_tilt_deg"`
	YawRateDegPerSec      float64 `yaml:"yaw_rate_deg_per_sec"`
	Kp                    float64 `yaml:"kp"`
	Kd                    float64 `yaml:"kd"`
	MaxAngularSpeed       float64 `yaml:"max_angular_speed"`
	UprightRescueStrength float64 `yaml:"upright_rescue_strength"`
	RescueStartDeg        float64 `yaml:"rescue_start_deg"`
	RescueFullDeg         float64 `yaml:"rescue_full_deg"`

	// Throttle
	ThrottleChangePerSec float64 `yaml:"throttle_change_per_sec"`
	ThrottleSmoothing    float64 `yaml:"throttle_smoothing"`
	KillRampPerSec       float64 `yaml:"kill_ramp_per_sec"`
	TiltCompEnabled      bool    `yaml:"tilt_comp_enabled"`
	TiltCompStrength     float64 `yaml:"tilt_comp_strength"`
	TiltCompMax          float64 `yaml:"tilt_comp_max"`
	TiltCompMinCosine    float64 `yaml:"tilt_comp_min_cosine"`

	// Thrust and power
	ThrustToWeight     float64 `yaml:"thrust_to_weight"`
	BasePowerW         float64 `yaml:"base_power_w"`
	MaxExtraPowerW     float64 `yaml:"max_extra_power_w"`
	PowerExponent      float64 `yaml:"power_exponent"`
	BatteryCapacityJ   float64 `yaml:"battery_capacity_j"`
	BatteryThrustLimit float64 `yaml:"battery_thrust_limit"`

	// Motors
	ArmLength       float64 `yaml:"arm_length"`
	MixPitch        float64 `yaml:"mix_pitch"`
	MixRoll         float64 `yaml:"mix_roll"`
	MixYaw          float64 `yaml:"mix_yaw"`
	SpoolRatePerSec float64 `yaml:"spool_rate_per_sec"`
	IdleRPM         float64 `yaml:"idle_rpm"`
	MaxRPM          float64 `yaml:"max_rpm"`
	RPMEpsilon      float64 `yaml:"rpm_epsilon"`

	CenterOfMassDrop float64 `yaml:"center_of_mass_drop"`
}

func DefaultParams() Params {
	return Params{
		MaxTiltDeg:            35,
		YawRateDegPerSec:      140,
		Kp:                    40,
		Kd:                    9,
		MaxAngularSpeed:       12,
		UprightRescueStrength: 30,
		RescueStartDeg:        65,
		RescueFullDeg:         120,

		ThrottleChangePerSec: 0.8,
		ThrottleSmoothing:    6,
		KillRampPerSec:       2.5,
		TiltCompEnabled:      true,
		TiltCompStrength:     1,
		TiltCompMax:          2.4,
		TiltCompMinCosine:    0.35,

		ThrustToWeight:     2.2,
		BasePowerW:         18,
		MaxExtraPowerW:     420,
		PowerExponent:      2.2,
		BatteryCapacityJ:   80000,
		BatteryThrustLimit: 0.35,

		ArmLength:       0.18,
		MixPitch:        0.15,
		MixRoll:         0.15,
		MixYaw:          0.1,
		SpoolRatePerSec: 4,
		IdleRPM:         1800,
		MaxRPM:          12000,
		RPMEpsilon:      1e-3,

		CenterOfMassDrop: 0.05,
	}
}

// Validate rejects parameter sets the tick cannot run with. Step still clamps
// every denominator, so an unvalidated set degrades rather than panics.
func (p Params) Validate() error {
	checks := []error{
		dynamo.InRange("max_tilt_deg", p.MaxTiltDeg, 0, 89),
		dynamo.NonNegative("yaw_rate_deg_per_sec", p.YawRateDegPerSec),
		dynamo.NonNegative("kp", p.Kp),
		dynamo.NonNegative("kd", p.Kd),
		dynamo.Positive("max_angular_speed", p.MaxAngularSpeed),
		dynamo.NonNegative("upright_rescue_strength", p.UprightRescueStrength),
		dynamo.InRange("rescue_start_deg", p.RescueStartDeg, 0, 180),
		dynamo.InRange("rescue_full_deg", p.RescueFullDeg, p.RescueStartDeg, 180),
		dynamo.Positive("throttle_change_per_sec", p.ThrottleChangePerSec),
		dynamo.Positive("throttle_smoothing", p.ThrottleSmoothing),
		dynamo.Positive("kill_ramp_per_sec", p.KillRampPerSec),
		dynamo.InRange("tilt_comp_strength", p.TiltCompStrength, 0, 1),
		dynamo.InRange("tilt_comp_max", p.TiltCompMax, 1, 10),
		dynamo.InRange("tilt_comp_min_cosine", p.TiltCompMinCosine, 0.01, 1),
		dynamo.Positive("thrust_to_weight", p.ThrustToWeight),
		dynamo.NonNegative("base_power_w", p.BasePowerW),
		dynamo.NonNegative("max_extra_power_w", p.MaxExtraPowerW),
		dynamo.Positive("power_exponent", p.PowerExponent),
		dynamo.Positive("battery_capacity_j", p.BatteryCapacityJ),
		dynamo.InRange("battery_thrust_limit", p.BatteryThrustLimit, 0, 1),
		dynamo.Positive("arm_length", p.ArmLength),
		dynamo.NonNegative("mix_pitch", p.MixPitch),
		dynamo.NonNegative("mix_roll", p.MixRoll),
		dynamo.NonNegative("mix_yaw", p.MixYaw),
		dynamo.Positive("spool_rate_per_sec", p.SpoolRatePerSec),
		dynamo.NonNegative("idle_rpm", p.IdleRPM),
		dynamo.InRange("max_rpm", p.MaxRPM, p.IdleRPM, 1e6),
		dynamo.InRange("rpm_epsilon", p.RPMEpsilon, 0, 0.1),
		dynamo.NonNegative("center_of_mass_drop", p.CenterOfMassDrop),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}
