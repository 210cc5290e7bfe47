package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// FlightStats accumulates path length and speed over a run. It is not a
// Metric itself; Distance, MaxSpeed and AvgSpeed expose its views.
type FlightStats struct {
	last     mgl64.Vec3
	primed   bool
	distance float64
	maxSpeed float64
	start    float64
	end      float64
}

func NewFlightStats() *FlightStats { return &FlightStats{} }

func (f *FlightStats) Observe(s dynamo.Sample) {
	pos := s.Observation.Position
	if f.primed {
		f.distance += pos.Sub(f.last).Len()
	} else {
		f.start = s.Time
		f.primed = true
	}
	f.last = pos
	f.end = s.Time
	f.maxSpeed = math.Max(f.maxSpeed, s.Observation.Velocity.Len())
}

func (f *FlightStats) Reset() { *f = FlightStats{} }

func (f *FlightStats) Distance() float64 { return f.distance }
func (f *FlightStats) MaxSpeed() float64 { return f.maxSpeed }

// AvgSpeed is distance over elapsed time.
func (f *FlightStats) AvgSpeed() float64 {
	if elapsed := f.end - f.start; elapsed > 0 {
		return f.distance / elapsed
	}
	return 0
}

// Metrics returns the three views. Only the first observes and resets, so
// all three can be registered on one simulator.
func (f *FlightStats) Metrics() []dynamo.Metric {
	return []dynamo.Metric{
		&statView{name: "distance_m", stats: f, value: f.Distance, owner: true},
		&statView{name: "max_speed", stats: f, value: f.MaxSpeed},
		&statView{name: "avg_speed", stats: f, value: f.AvgSpeed},
	}
}

type statView struct {
	name  string
	stats *FlightStats
	value func() float64
	owner bool
}

func (v *statView) Name() string { return v.name }

func (v *statView) Observe(s dynamo.Sample) {
	if v.owner {
		v.stats.Observe(s)
	}
}

func (v *statView) Value() float64 { return v.value() }

func (v *statView) Reset() {
	if v.owner {
		v.stats.Reset()
	}
}

// AltitudeError is the RMS distance from a target altitude.
type AltitudeError struct {
	target  float64
	sumSq   float64
	samples int
}

func NewAltitudeError(target float64) *AltitudeError {
	return &AltitudeError{target: target}
}

func (a *AltitudeError) Name() string { return "altitude_rms_m" }

func (a *AltitudeError) Observe(s dynamo.Sample) {
	d := s.Observation.Altitude() - a.target
	a.sumSq += d * d
	a.samples++
}

func (a *AltitudeError) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return math.Sqrt(a.sumSq / float64(a.samples))
}

func (a *AltitudeError) Reset() {
	a.sumSq, a.samples = 0, 0
}

// Standard returns the metric set recorded for every headless run.
func Standard(targetAltitude float64) []dynamo.Metric {
	ms := []dynamo.Metric{
		NewEnergyUsed(),
		NewPeakPower(),
		NewStability(15),
		NewControlEffort(),
		NewAltitudeError(targetAltitude),
	}
	return append(ms, NewFlightStats().Metrics()...)
}
