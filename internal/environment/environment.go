package environment

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// relAirEpsilon guards drag against normalizing a zero relative velocity.
const relAirEpsilon = 1e-6

type Params struct {
	AerodynamicsEnabled bool       `yaml:"aerodynamics_enabled"`
	SteadyWind          mgl64.Vec3 `yaml:"steady_wind,flow"`
	GustAmplitude       float64    `yaml:"gust_amplitude"`
	GustFrequency       float64    `yaml:"gust_frequency"`
	GustSpatialScale    float64    `yaml:"gust_spatial_scale"`
	TurbulenceTorque    float64    `yaml:"turbulence_torque"`
	TurbulenceFrequency float64    `yaml:"turbulence_frequency"`
	LinearDrag          float64    `yaml:"linear_drag"`
	QuadraticDrag       float64    `yaml:"quadratic_drag"`
}

func DefaultParams() Params {
	return Params{
		AerodynamicsEnabled: true,
		GustAmplitude:       1.5,
		GustFrequency:       0.35,
		GustSpatialScale:    0.05,
		TurbulenceTorque:    0.6,
		TurbulenceFrequency: 0.9,
		LinearDrag:          0.08,
		QuadraticDrag:       0.03,
	}
}

// Calm disables every disturbance.
func Calm() Params {
	return Params{AerodynamicsEnabled: true}
}

func (p Params) Validate() error {
	checks := []error{
		dynamo.NonNegative("gust_amplitude", p.GustAmplitude),
		dynamo.NonNegative("gust_frequency", p.GustFrequency),
		dynamo.NonNegative("gust_spatial_scale", p.GustSpatialScale),
		dynamo.NonNegative("turbulence_torque", p.TurbulenceTorque),
		dynamo.NonNegative("turbulence_frequency", p.TurbulenceFrequency),
		dynamo.NonNegative("linear_drag", p.LinearDrag),
		dynamo.NonNegative("quadratic_drag", p.QuadraticDrag),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if !dynamo.IsFiniteVec(p.SteadyWind) {
		return &dynamo.ParamError{Name: "steady_wind", Reason: "must be finite"}
	}
	return nil
}

// Per-axis sample offsets keep the three gust axes and the three turbulence
// axes decorrelated while drawing from one noise field.
var (
	gustOffsets = [3][2]float64{
		{13.17, 71.31},
		{47.73, 5.93},
		{91.37, 33.71},
	}
	turbulenceOffsets = [3][2]float64{
		{211.7, 157.3},
		{307.1, 263.9},
		{419.3, 389.5},
	}
)

// Forces is the disturbance computed for one tick.
type Forces struct {
	Wind       mgl64.Vec3
	RelAirVel  mgl64.Vec3
	Drag       mgl64.Vec3
	Turbulence mgl64.Vec3
}

// Model synthesizes wind, drag and turbulence from a noise source.
type Model struct {
	params Params
	noise  Noise
}

func New(params Params, noise Noise) *Model {
	if noise == nil {
		noise = Constant(0.5)
	}
	return &Model{params: params, noise: noise}
}

func (m *Model) Params() Params { return m.params }

// Wind returns steady wind plus a three-axis gust sampled at time t and position pos.
func (m *Model) Wind(pos mgl64.Vec3, t float64) mgl64.Vec3 {
	wind := m.params.SteadyWind
	if m.params.GustAmplitude == 0 {
		return wind
	}
	tc := t * m.params.GustFrequency
	sc := (pos.X() + pos.Y() + pos.Z()) * m.params.GustSpatialScale
	for i, off := range gustOffsets {
		n := m.noise.Sample(tc+off[0], sc+off[1])
		wind[i] += (n*2 - 1) * m.params.GustAmplitude
	}
	return dynamo.SanitizeVec(wind)
}

// Drag is the combined linear and quadratic air resistance for a relative air velocity.
func (m *Model) Drag(relAirVel mgl64.Vec3) mgl64.Vec3 {
	if !m.params.AerodynamicsEnabled {
		return mgl64.Vec3{}
	}
	speed := relAirVel.Len()
	if speed < relAirEpsilon || !dynamo.IsFinite(speed) {
		return mgl64.Vec3{}
	}
	k := m.params.LinearDrag + m.params.QuadraticDrag*speed
	return relAirVel.Mul(-k)
}

// Turbulence returns an angular acceleration disturbance at time t.
func (m *Model) Turbulence(t float64) mgl64.Vec3 {
	var torque mgl64.Vec3
	if m.params.TurbulenceTorque == 0 {
		return torque
	}
	tc := t * m.params.TurbulenceFrequency
	for i, off := range turbulenceOffsets {
		n := m.noise.Sample(tc+off[0], off[1])
		torque[i] = (n*2 - 1) * m.params.TurbulenceTorque
	}
	return dynamo.SanitizeVec(torque)
}

// Step computes every disturbance for a body at pos moving with vel.
func (m *Model) Step(pos, vel mgl64.Vec3, t float64) Forces {
	wind := m.Wind(pos, t)
	rel := vel.Sub(wind)
	return Forces{
		Wind:       wind,
		RelAirVel:  rel,
		Drag:       m.Drag(rel),
		Turbulence: m.Turbulence(t),
	}
}
