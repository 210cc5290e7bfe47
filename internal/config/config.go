package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/quadsim/internal/control"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/environment"
	"github.com/san-kum/quadsim/internal/flight"
	"github.com/san-kum/quadsim/internal/physics"
)

const (
	DefaultDt       = 1.0 / 120.0
	DefaultDuration = 20.0
)

// Pilot names understood by the experiment registry.
const (
	PilotIdle     = "idle"
	PilotHover    = "hover"
	PilotScript   = "script"
	PilotKeyboard = "keyboard" // live terminal controls
)

type Config struct {
	Name        string                  `yaml:"name,omitempty"`
	Integrator  string                  `yaml:"integrator"`
	Pilot       string                  `yaml:"pilot"`
	Scenario    string                  `yaml:"scenario,omitempty"`
	Dt          float64                 `yaml:"dt"`
	Duration    float64                 `yaml:"duration"`
	Seed        int64                   `yaml:"seed"`
	Initial     InitialState            `yaml:"initial"`
	Vehicle     flight.Params           `yaml:"vehicle"`
	Body        physics.BodyParams      `yaml:"body"`
	Environment environment.Params      `yaml:"environment"`
	Autopilot   control.AutopilotParams `yaml:"autopilot"`
}

// InitialState places the body before the first tick. Tilt is a roll about
// the forward axis.
type InitialState struct {
	Position   mgl64.Vec3 `yaml:"position,flow"`
	Velocity   mgl64.Vec3 `yaml:"velocity,flow"`
	HeadingDeg float64    `yaml:"heading_deg"`
	TiltDeg    float64    `yaml:"tilt_deg"`
}

// Rotation composes heading about world up with the initial tilt.
func (s InitialState) Rotation() mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(s.HeadingDeg), dynamo.WorldUp)
	tilt := mgl64.QuatRotate(mgl64.DegToRad(s.TiltDeg), mgl64.Vec3{0, 0, 1})
	return yaw.Mul(tilt).Normalize()
}

func DefaultConfig() *Config {
	return &Config{
		Integrator:  "rk4",
		Pilot:       PilotHover,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Seed:        1,
		Vehicle:     flight.DefaultParams(),
		Body:        physics.DefaultBodyParams(),
		Environment: environment.Calm(),
		Autopilot:   control.DefaultAutopilotParams(),
	}
}

// Load reads a YAML file over the defaults, so a file only needs the fields it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := dynamo.Positive("dt", c.Dt); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := dynamo.Positive("duration", c.Duration); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Pilot {
	case PilotIdle, PilotHover, PilotKeyboard:
	case PilotScript:
		if c.Scenario == "" {
			return fmt.Errorf("config: pilot %q needs a scenario", c.Pilot)
		}
	default:
		return fmt.Errorf("config: pilot %q: %w", c.Pilot, dynamo.ErrUnknownName)
	}
	if !dynamo.IsFiniteVec(c.Initial.Position) || !dynamo.IsFiniteVec(c.Initial.Velocity) {
		return fmt.Errorf("config: initial state must be finite: %w", dynamo.ErrParameterBounds)
	}

	parts := []struct {
		name string
		err  error
	}{
		{"vehicle", c.Vehicle.Validate()},
		{"body", c.Body.Validate()},
		{"environment", c.Environment.Validate()},
	}
	for _, p := range parts {
		if p.err != nil {
			return fmt.Errorf("config: %s: %w", p.name, p.err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
