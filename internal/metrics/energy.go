package metrics

import (
	"github.com/san-kum/quadsim/internal/dynamo"
)

// EnergyUsed is the battery energy drawn over the run in joules. Battery
// resets are not counted as negative use.
type EnergyUsed struct {
	name   string
	last   float64
	used   float64
	primed bool
}

func NewEnergyUsed() *EnergyUsed {
	return &EnergyUsed{name: "energy_used_j"}
}

func (e *EnergyUsed) Name() string { return e.name }

func (e *EnergyUsed) Observe(s dynamo.Sample) {
	cur := s.Telemetry.BatteryEnergyJ
	if e.primed && cur < e.last {
		e.used += e.last - cur
	}
	e.last = cur
	e.primed = true
}

func (e *EnergyUsed) Value() float64 { return e.used }

func (e *EnergyUsed) Reset() {
	e.last, e.used, e.primed = 0, 0, false
}

// PeakPower is the highest electrical draw seen in watts.
type PeakPower struct {
	peak float64
}

func NewPeakPower() *PeakPower { return &PeakPower{} }

func (p *PeakPower) Name() string { return "peak_power_w" }

func (p *PeakPower) Observe(s dynamo.Sample) {
	if s.Telemetry.PowerW > p.peak {
		p.peak = s.Telemetry.PowerW
	}
}

func (p *PeakPower) Value() float64 { return p.peak }
func (p *PeakPower) Reset()         { p.peak = 0 }
