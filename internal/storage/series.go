package storage

import (
	"fmt"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Columns is the fixed telemetry layout shared by every backend.
var Columns = []string{
	"time",
	"x", "y", "z",
	"vx", "vy", "vz",
	"qw", "qx", "qy", "qz",
	"wx", "wy", "wz",
	"tilt_deg",
	"pitch", "roll", "yaw", "throttle_delta", "kill_toggle",
	"mode", "throttle", "effective_throttle", "tilt_comp",
	"thrust_n", "power_w", "battery", "energy_j",
	"rpm_fr", "rpm_fl", "rpm_bl", "rpm_br",
	"heading_deg",
	"wind_x", "wind_y", "wind_z",
}

// Series is a run's telemetry as rows of float columns.
type Series struct {
	Columns []string
	Rows    [][]float64
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func sampleRow(s dynamo.Sample) []float64 {
	o, c, tel := s.Observation, s.Command, s.Telemetry
	return []float64{
		s.Time,
		o.Position[0], o.Position[1], o.Position[2],
		o.Velocity[0], o.Velocity[1], o.Velocity[2],
		o.Rotation.W, o.Rotation.V[0], o.Rotation.V[1], o.Rotation.V[2],
		o.AngularVelocity[0], o.AngularVelocity[1], o.AngularVelocity[2],
		o.TiltDeg(),
		c.Pitch, c.Roll, c.Yaw, c.ThrottleDelta, boolToFloat(c.KillToggle),
		float64(tel.Mode), tel.Throttle, tel.EffectiveThrottle, tel.TiltCompFactor,
		tel.TotalThrustN, tel.PowerW, tel.Battery01, tel.BatteryEnergyJ,
		tel.MotorRPM[0], tel.MotorRPM[1], tel.MotorRPM[2], tel.MotorRPM[3],
		tel.HeadingDeg,
		tel.WindVel[0], tel.WindVel[1], tel.WindVel[2],
	}
}

func SeriesFromSamples(samples []dynamo.Sample) *Series {
	s := &Series{Columns: Columns, Rows: make([][]float64, len(samples))}
	for i, smp := range samples {
		s.Rows[i] = sampleRow(smp)
	}
	return s
}

func (s *Series) Len() int { return len(s.Rows) }

func (s *Series) index(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column extracts one named column.
func (s *Series) Column(name string) ([]float64, error) {
	idx := s.index(name)
	if idx < 0 {
		return nil, fmt.Errorf("storage: column %q: %w", name, dynamo.ErrUnknownName)
	}
	out := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, nil
}

// Dt is the spacing of the first two rows, or zero.
func (s *Series) Dt() float64 {
	if len(s.Rows) < 2 {
		return 0
	}
	return s.Rows[1][0] - s.Rows[0][0]
}
