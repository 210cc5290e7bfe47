package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/flight"
)

// Body is a rigid body the simulator can advance after the vehicle has
// accumulated its forces for the tick.
type Body interface {
	dynamo.RigidBody
	Integrate(t, dt float64) error
}

// Servicer is implemented by pilots that can ask for the battery to be
// refilled between ticks.
type Servicer interface {
	ServiceBattery(t float64) bool
}

// Simulator drives one vehicle: pilot, flight tick, integration, record.
type Simulator struct {
	vehicle   *flight.Vehicle
	body      Body
	pilot     dynamo.Pilot
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	log       zerolog.Logger
	t         float64
	steps     int
}

type Option func(*Simulator)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

func WithMetrics(ms ...dynamo.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, ms...) }
}

// New wires a vehicle to the body it was built on. A nil pilot idles.
func New(vehicle *flight.Vehicle, body Body, pilot dynamo.Pilot, opts ...Option) (*Simulator, error) {
	if vehicle == nil || body == nil {
		return nil, fmt.Errorf("sim: vehicle and body are required")
	}
	if vehicle.Body() != dynamo.RigidBody(body) {
		return nil, fmt.Errorf("sim: vehicle %q is bound to a different body", vehicle.Name())
	}
	if pilot == nil {
		pilot = dynamo.Idle
	}
	s := &Simulator{
		vehicle: vehicle,
		body:    body,
		pilot:   pilot,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Vehicle() *flight.Vehicle { return s.vehicle }
func (s *Simulator) Body() Body               { return s.body }
func (s *Simulator) Pilot() dynamo.Pilot      { return s.pilot }

// Time is the simulated time after the last tick.
func (s *Simulator) Time() float64 { return s.t }

// Snapshot samples the current state without advancing.
func (s *Simulator) Snapshot() dynamo.Sample {
	return dynamo.Sample{
		Time:        s.t,
		Observation: dynamo.Observe(s.body),
		Telemetry:   s.vehicle.Telemetry(),
	}
}

// Tick advances one fixed step and returns the sample recorded after it.
func (s *Simulator) Tick(dt float64) (dynamo.Sample, error) {
	if sv, ok := s.pilot.(Servicer); ok && sv.ServiceBattery(s.t) {
		s.vehicle.ResetBattery()
	}

	obs := dynamo.Observe(s.body)
	cmd := s.pilot.Command(obs, s.vehicle.Telemetry(), s.t)
	s.vehicle.Step(cmd, s.t, dt)

	if err := s.body.Integrate(s.t, dt); err != nil {
		var simErr *dynamo.SimulationError
		if errors.As(err, &simErr) {
			simErr.Step = s.steps
		}
		return dynamo.Sample{}, err
	}
	s.t += dt
	s.steps++

	sample := dynamo.Sample{
		Time:        s.t,
		Observation: dynamo.Observe(s.body),
		Command:     cmd,
		Telemetry:   s.vehicle.Telemetry(),
	}
	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, o := range s.observers {
		o.OnStep(sample)
	}
	return sample, nil
}

// Run ticks for cfg.Duration and records every sample, starting with the
// initial one. Metrics are reset first. A body that fails to integrate ends
// the run early with the error in Result.Errors; it is also returned unless
// cfg.ValidateState is set.
func (s *Simulator) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &dynamo.Result{
		Samples: make([]dynamo.Sample, 0, steps+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.log.Debug().
		Str("vehicle", s.vehicle.Name()).
		Float64("dt", cfg.Dt).
		Int("steps", steps).
		Msg("run start")

	result.Samples = append(result.Samples, s.Snapshot())
	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		sample, err := s.Tick(cfg.Dt)
		if err != nil {
			result.Errors = append(result.Errors, err)
			s.log.Warn().Err(err).Int("step", i).Msg("run aborted")
			if !cfg.ValidateState {
				runErr = err
			}
			break
		}
		result.StepsTaken++
		result.Samples = append(result.Samples, sample)
	}

	s.collect(result)
	final := result.Final()
	s.log.Debug().
		Int("steps", result.StepsTaken).
		Stringer("mode", final.Telemetry.Mode).
		Float64("altitude", final.Observation.Altitude()).
		Msg("run done")
	return result, runErr
}

func (s *Simulator) collect(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// RunWithCallback ticks until the duration elapses or callback returns false.
// Nothing is recorded; the callback sees every sample.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg dynamo.Config, callback func(dynamo.Sample) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	end := s.t + cfg.Duration
	for s.t < end-cfg.Dt/2 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sample, err := s.Tick(cfg.Dt)
		if err != nil {
			return err
		}
		if !callback(sample) {
			return nil
		}
	}
	return nil
}

func validateConfig(cfg dynamo.Config) error {
	if !(cfg.Dt > 0) || !dynamo.IsFinite(cfg.Dt) {
		return fmt.Errorf("sim: dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if !(cfg.Duration > 0) || !dynamo.IsFinite(cfg.Duration) {
		return fmt.Errorf("sim: duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrParameterBounds)
	}
	return nil
}
