package config

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/environment"
)

// Presets build a fresh config on every call so callers may mutate the result.
var Presets = map[string]func() *Config{
	"hover": func() *Config {
		c := DefaultConfig()
		c.Name = "hover"
		return c
	},
	"gusty": func() *Config {
		c := DefaultConfig()
		c.Name = "gusty"
		c.Duration = 30
		c.Environment = environment.DefaultParams()
		c.Autopilot.HoldVelocity = true
		return c
	},
	"tumble": func() *Config {
		c := DefaultConfig()
		c.Name = "tumble"
		c.Pilot = PilotIdle
		c.Duration = 4
		c.Initial.Position = mgl64.Vec3{0, 40, 0}
		c.Initial.TiltDeg = 150
		return c
	},
	"drain": func() *Config {
		c := DefaultConfig()
		c.Name = "drain"
		c.Duration = 30
		c.Vehicle.BatteryCapacityJ = 1500
		return c
	},
	"kill": func() *Config {
		c := DefaultConfig()
		c.Name = "kill"
		c.Pilot = PilotScript
		c.Scenario = "kill-rearm"
		return c
	},
}

// GetPreset returns nil for an unknown name.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
