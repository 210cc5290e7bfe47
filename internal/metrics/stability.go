package metrics

import (
	"github.com/san-kum/quadsim/internal/dynamo"
)

// Stability is the fraction of ticks spent with tilt at or below a threshold.
type Stability struct {
	name       string
	thresholdD float64
	violations int
	samples    int
}

func NewStability(thresholdDeg float64) *Stability {
	return &Stability{
		name:       "stability",
		thresholdD: thresholdDeg,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(smp dynamo.Sample) {
	s.samples++
	if smp.Observation.TiltDeg() > s.thresholdD {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
