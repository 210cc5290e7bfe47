package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Fleet steps several simulators in lockstep. Members share nothing, so each
// tick fans out across goroutines.
type Fleet struct {
	members []*Simulator
}

func NewFleet(members ...*Simulator) *Fleet {
	return &Fleet{members: members}
}

func (f *Fleet) Add(s *Simulator) { f.members = append(f.members, s) }

func (f *Fleet) Len() int { return len(f.members) }

func (f *Fleet) Member(i int) *Simulator { return f.members[i] }

// Tick advances every member by dt. samples[i] is only meaningful when
// errs[i] is nil.
func (f *Fleet) Tick(dt float64) ([]dynamo.Sample, []error) {
	return f.tick(dt, nil)
}

// tick skips members marked stopped.
func (f *Fleet) tick(dt float64, stopped []bool) ([]dynamo.Sample, []error) {
	samples := make([]dynamo.Sample, len(f.members))
	errs := make([]error, len(f.members))
	dynamo.ParallelFor(len(f.members), 1, func(start, end int) {
		for i := start; i < end; i++ {
			if stopped != nil && stopped[i] {
				continue
			}
			samples[i], errs[i] = f.members[i].Tick(dt)
		}
	})
	return samples, errs
}

// Run records every member for cfg.Duration. A member whose body fails stops
// recording; the rest carry on.
func (f *Fleet) Run(ctx context.Context, cfg dynamo.Config) ([]*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(f.members) == 0 {
		return nil, fmt.Errorf("sim: empty fleet")
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	results := make([]*dynamo.Result, len(f.members))
	for i, m := range f.members {
		for _, metric := range m.metrics {
			metric.Reset()
		}
		results[i] = &dynamo.Result{
			Samples: append(make([]dynamo.Sample, 0, steps+1), m.Snapshot()),
			Metrics: make(map[string]float64),
		}
	}

	stopped := make([]bool, len(f.members))
	for step := 0; step < steps; step++ {
		select {
		case <-ctx.Done():
			f.collect(results)
			return results, ctx.Err()
		default:
		}

		samples, errs := f.tick(cfg.Dt, stopped)
		for i, s := range f.members {
			if stopped[i] {
				continue
			}
			if errs[i] != nil {
				results[i].Errors = append(results[i].Errors, errs[i])
				s.log.Warn().Err(errs[i]).Int("step", step).Msg("fleet member stopped")
				stopped[i] = true
				continue
			}
			results[i].StepsTaken++
			results[i].Samples = append(results[i].Samples, samples[i])
		}
	}
	f.collect(results)
	return results, nil
}

func (f *Fleet) collect(results []*dynamo.Result) {
	for i, m := range f.members {
		m.collect(results[i])
	}
}
