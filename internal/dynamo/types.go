package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is the external input held constant across one integration step.
// Rigid bodies use it as a wrench: force (3) followed by angular acceleration (3).
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
}

// Pilot produces the stick command for the next tick.
type Pilot interface {
	Command(obs Observation, tel Telemetry, t float64) Command
}

// PilotFunc adapts a plain function to Pilot.
type PilotFunc func(obs Observation, tel Telemetry, t float64) Command

func (f PilotFunc) Command(obs Observation, tel Telemetry, t float64) Command {
	return f(obs, tel, t)
}

// Idle holds every stick centred.
var Idle Pilot = PilotFunc(func(Observation, Telemetry, float64) Command { return Command{} })

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Config struct {
	Dt            float64
	Duration      float64
	Seed          int64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0 / 120.0,
		Duration:      10.0,
		ValidateState: true,
	}
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Final returns the last recorded sample, or the zero sample for an empty run.
func (r *Result) Final() Sample {
	if r == nil || len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}
