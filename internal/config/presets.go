package config

import (
	"math"
	"sort"
)

func preset(name string, edit func(c *Config)) *Config {
	c := DefaultConfig()
	c.Name = name
	edit(c)
	return c
}

var Presets = map[string]*Config{
	"instant": preset("instant", func(c *Config) {
		c.Commands = []Command{{Time: 0.5, Zoom: 4}}
	}),
	"slow-motor": preset("slow-motor", func(c *Config) {
		c.Duration = 15
		c.Plugin.SlewRate = 0.005
		c.Commands = []Command{{Time: 0.5, Zoom: 4}}
	}),
	"clamped": preset("clamped", func(c *Config) {
		c.Commands = []Command{{Time: 0.5, Zoom: 20}, {Time: 2.5, Zoom: 0.5}}
	}),
	"zoom-out": preset("zoom-out", func(c *Config) {
		c.Plugin.SlewRate = 0.02
		c.Commands = []Command{{Time: 0.5, Zoom: 10}, {Time: 3, Zoom: 1}}
	}),
	"jittery": preset("jittery", func(c *Config) {
		c.Plugin.SlewRate = 0.01
		c.Commands = []Command{
			{Time: 0.5, Zoom: 2}, {Time: 0.52, Zoom: 8}, {Time: 0.54, Zoom: 3},
			{Time: 0.56, Zoom: 6}, {Time: 1.5, Zoom: 1.5},
		}
	}),
	"teardown": preset("teardown", func(c *Config) {
		c.Plugin.SlewRate = 0.01
		c.Commands = []Command{{Time: 0.5, Zoom: 8}}
		c.TeardownAt = 1.5
	}),
	"narrow-lens": preset("narrow-lens", func(c *Config) {
		c.Camera.Hfov = 0.8
		c.Camera.SensorWidth = 0.0236
		c.Plugin.MaxZoom = 30
		c.Plugin.SlewRate = math.Inf(1)
		c.Commands = []Command{{Time: 0.5, Zoom: 30}}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
