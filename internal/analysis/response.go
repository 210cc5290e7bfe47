package analysis

import "math"

// SettlingTime is the time after which the series stays within band of
// target. ok is false when the last sample is still outside the band.
func SettlingTime(series []float64, target, band, dt float64) (t float64, ok bool) {
	if len(series) == 0 {
		return 0, false
	}
	last := -1
	for i, v := range series {
		if math.Abs(v-target) > band {
			last = i
		}
	}
	if last == len(series)-1 {
		return 0, false
	}
	return float64(last+1) * dt, true
}

// Overshoot is the peak excursion past target as a percentage of the step
// from the initial sample to target. A series that never crosses gives 0.
func Overshoot(series []float64, target float64) float64 {
	if len(series) == 0 {
		return 0
	}
	step := target - series[0]
	if step == 0 {
		return 0
	}
	peak := 0.0
	for _, v := range series {
		if past := (v - target) / step; past > peak {
			peak = past
		}
	}
	return peak * 100
}

// Stats summarizes one channel.
type Stats struct {
	Min, Max, Mean, RMS float64
}

func Summarize(series []float64) Stats {
	if len(series) == 0 {
		return Stats{}
	}
	s := Stats{Min: series[0], Max: series[0]}
	sumSq := 0.0
	for _, v := range series {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		sumSq += v * v
	}
	s.Mean = Mean(series)
	s.RMS = math.Sqrt(sumSq / float64(len(series)))
	return s
}

func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}
