package automation

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/quadsim/internal/control"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/sim"
)

// Scenario is a scripted flight: stick segments played back in order.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Segments    []Segment `yaml:"segments"`
}

// Segment holds the sticks for Duration seconds. Kill and ResetBattery fire
// once when the segment starts. When Altitude is set the autopilot flies
// throttle and heading for the segment and the stick axes are added on top.
type Segment struct {
	Duration      float64  `yaml:"duration"`
	Pitch         float64  `yaml:"pitch"`
	Roll          float64  `yaml:"roll"`
	Yaw           float64  `yaml:"yaw"`
	ThrottleDelta float64  `yaml:"throttle_delta"`
	Kill          bool     `yaml:"kill"`
	ResetBattery  bool     `yaml:"reset_battery"`
	Altitude      *float64 `yaml:"altitude,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parse scenario: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if len(s.Segments) == 0 {
		return fmt.Errorf("automation: scenario %q has no segments", s.Name)
	}
	for i, seg := range s.Segments {
		checks := []error{
			dynamo.Positive("duration", seg.Duration),
			dynamo.InRange("pitch", seg.Pitch, -1, 1),
			dynamo.InRange("roll", seg.Roll, -1, 1),
			dynamo.InRange("yaw", seg.Yaw, -1, 1),
			dynamo.InRange("throttle_delta", seg.ThrottleDelta, -1, 1),
		}
		for _, err := range checks {
			if err != nil {
				return fmt.Errorf("automation: segment %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Duration is the total scripted time.
func (s *Scenario) Duration() float64 {
	total := 0.0
	for _, seg := range s.Segments {
		total += seg.Duration
	}
	return total
}

// Script plays a scenario back as a pilot. After the last segment every stick
// is centred.
type Script struct {
	scenario  *Scenario
	starts    []float64
	autopilot *control.Autopilot
	killed    []bool
	serviced  []bool
}

// NewScript builds a script pilot. ap flies the altitude segments; nil uses
// the default autopilot.
func NewScript(scenario *Scenario, ap *control.Autopilot) *Script {
	if ap == nil {
		ap = control.NewAutopilot(control.DefaultAutopilotParams())
	}
	starts := make([]float64, len(scenario.Segments))
	t := 0.0
	for i, seg := range scenario.Segments {
		starts[i] = t
		t += seg.Duration
	}
	return &Script{
		scenario:  scenario,
		starts:    starts,
		autopilot: ap,
		killed:    make([]bool, len(scenario.Segments)),
		serviced:  make([]bool, len(scenario.Segments)),
	}
}

func (s *Script) Scenario() *Scenario { return s.scenario }

// segment returns the index of the segment active at t, or -1 past the end.
func (s *Script) segment(t float64) int {
	i := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > t+1e-9 }) - 1
	if i < 0 || t >= s.starts[i]+s.scenario.Segments[i].Duration-1e-9 {
		return -1
	}
	return i
}

func (s *Script) Command(obs dynamo.Observation, tel dynamo.Telemetry, t float64) dynamo.Command {
	i := s.segment(t)
	if i < 0 {
		return dynamo.Command{}
	}
	seg := s.scenario.Segments[i]

	var cmd dynamo.Command
	if seg.Altitude != nil {
		s.autopilot.SetTargetAltitude(*seg.Altitude)
		cmd = s.autopilot.Command(obs, tel, t)
	}
	cmd.Pitch += seg.Pitch
	cmd.Roll += seg.Roll
	cmd.Yaw += seg.Yaw
	cmd.ThrottleDelta += seg.ThrottleDelta
	if seg.Kill && !s.killed[i] {
		s.killed[i] = true
		cmd.KillToggle = true
	}
	return cmd.Clamped()
}

func (s *Script) ServiceBattery(t float64) bool {
	i := s.segment(t)
	if i < 0 || !s.scenario.Segments[i].ResetBattery || s.serviced[i] {
		return false
	}
	s.serviced[i] = true
	return true
}

// RunScenario flies the scenario once on a simulator built around its script.
// cfg.Duration defaults to the scenario length when zero.
func RunScenario(ctx context.Context, scenario *Scenario, build func(dynamo.Pilot) (*sim.Simulator, error), cfg dynamo.Config) (*dynamo.Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	s, err := build(NewScript(scenario, nil))
	if err != nil {
		return nil, fmt.Errorf("automation: build %q: %w", scenario.Name, err)
	}
	if cfg.Duration == 0 {
		cfg.Duration = scenario.Duration()
	}
	if cfg.Dt > 0 {
		cfg.Duration = math.Ceil(cfg.Duration/cfg.Dt-1e-9) * cfg.Dt
	}
	return s.Run(ctx, cfg)
}
