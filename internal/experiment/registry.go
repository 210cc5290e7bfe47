package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/quadsim/internal/automation"
	"github.com/san-kum/quadsim/internal/config"
	"github.com/san-kum/quadsim/internal/control"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/input"
	"github.com/san-kum/quadsim/internal/integrators"
	"github.com/san-kum/quadsim/internal/metrics"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	pilots      map[string]func(*config.Config) (dynamo.Pilot, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		pilots:      make(map[string]func(*config.Config) (dynamo.Pilot, error)),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.pilots[config.PilotIdle] = func(*config.Config) (dynamo.Pilot, error) {
		return dynamo.Idle, nil
	}
	r.pilots[config.PilotHover] = func(cfg *config.Config) (dynamo.Pilot, error) {
		return control.NewAutopilot(cfg.Autopilot), nil
	}
	r.pilots[config.PilotScript] = func(cfg *config.Config) (dynamo.Pilot, error) {
		sc, err := automation.Resolve(cfg.Scenario)
		if err != nil {
			return nil, err
		}
		return automation.NewScript(sc, control.NewAutopilot(cfg.Autopilot)), nil
	}
	// Without a terminal attached nothing writes to the latch, so the
	// vehicle idles. The live view registers its own latch instead.
	r.pilots[config.PilotKeyboard] = func(*config.Config) (dynamo.Pilot, error) {
		return input.NewLatch(), nil
	}

	return r
}

// RegisterPilot adds or replaces a named pilot.
func (r *Registry) RegisterPilot(name string, fn func(*config.Config) (dynamo.Pilot, error)) {
	r.pilots[name] = fn
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("integrator %q: %w", name, dynamo.ErrUnknownName)
	}
	return fn(), nil
}

func (r *Registry) GetPilot(name string, cfg *config.Config) (dynamo.Pilot, error) {
	fn, ok := r.pilots[name]
	if !ok {
		return nil, fmt.Errorf("pilot %q: %w", name, dynamo.ErrUnknownName)
	}
	return fn(cfg)
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListPilots() []string      { return sortedKeys(r.pilots) }

func (r *Registry) DefaultMetrics(cfg *config.Config) []dynamo.Metric {
	return metrics.Standard(cfg.Autopilot.TargetAltitude)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
