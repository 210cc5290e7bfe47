package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/quadsim/internal/config"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/environment"
	"github.com/san-kum/quadsim/internal/flight"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/sim"
)

// Experiment is one configured flight: body, environment, vehicle and pilot
// assembled from a config.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	log       zerolog.Logger
	simulator *sim.Simulator
}

type Option func(*Experiment)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Experiment) { e.log = l }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Setup builds the simulator, with the registry's default metrics attached.
func (e *Experiment) Setup() error {
	s, err := e.build(e.cfg)
	if err != nil {
		return err
	}
	for _, m := range e.registry.DefaultMetrics(e.cfg) {
		s.AddMetric(m)
	}
	e.simulator = s
	return nil
}

func (e *Experiment) build(cfg *config.Config) (*sim.Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}
	pilot, err := e.registry.GetPilot(cfg.Pilot, cfg)
	if err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}

	body, err := physics.NewBody(cfg.Body, integ)
	if err != nil {
		return nil, err
	}
	body.SetPose(cfg.Initial.Position, cfg.Initial.Rotation())
	body.SetVelocity(cfg.Initial.Velocity)

	env := environment.New(cfg.Environment, environment.NewPerlin(cfg.Seed))
	name := cfg.Name
	if name == "" {
		name = "quad"
	}
	vlog := e.log.With().Int64("seed", cfg.Seed).Logger()
	v, err := flight.New(body, cfg.Vehicle, env, flight.WithName(name), flight.WithLogger(vlog))
	if err != nil {
		return nil, err
	}
	return sim.New(v, body, pilot, sim.WithLogger(vlog))
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.simConfig(e.cfg.Seed))
}

func (e *Experiment) simConfig(seed int64) dynamo.Config {
	return dynamo.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Seed:          seed,
		ValidateState: true,
	}
}

// Simulator returns the underlying simulator for adding observers
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

// Factory builds independent simulators that differ only in seed.
func (e *Experiment) Factory() sim.Factory {
	return func(seed int64) (*sim.Simulator, error) {
		cfg := e.cfg.Clone()
		cfg.Seed = seed
		s, err := e.build(cfg)
		if err != nil {
			return nil, err
		}
		for _, m := range e.registry.DefaultMetrics(cfg) {
			s.AddMetric(m)
		}
		return s, nil
	}
}

// RunEnsemble flies n copies over consecutive seeds starting at the
// configured one.
func (e *Experiment) RunEnsemble(ctx context.Context, n int) ([]*dynamo.Result, error) {
	return sim.NewEnsemble(e.Factory(), n, e.cfg.Seed).Run(ctx, e.simConfig(e.cfg.Seed))
}

// Build is the one-shot form of New and Setup.
func Build(cfg *config.Config, opts ...Option) (*sim.Simulator, error) {
	e := New(cfg, opts...)
	if err := e.Setup(); err != nil {
		return nil, err
	}
	return e.simulator, nil
}
