package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/zoomsim/internal/optics"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 5.0
	DefaultHfov        = 2.0
	DefaultFocalLength = 0.01
	DefaultMaxZoom     = 10.0
	DefaultRenderDelay = 3
	DefaultTolerance   = 1e-6
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Name        string       `yaml:"name"`
	Dt          float64      `yaml:"dt"`
	Duration    float64      `yaml:"duration"`
	Camera      CameraConfig `yaml:"camera"`
	Plugin      PluginConfig `yaml:"plugin"`
	RenderDelay int          `yaml:"render_delay"`
	Commands    []Command    `yaml:"commands"`
	TeardownAt  float64      `yaml:"teardown_at"`
	Tolerance   float64      `yaml:"tolerance"`
}

type CameraConfig struct {
	World       string  `yaml:"world"`
	Model       string  `yaml:"model"`
	Link        string  `yaml:"link"`
	Sensor      string  `yaml:"sensor"`
	Hfov        float64 `yaml:"hfov"`
	FocalLength float64 `yaml:"focal_length"`
	SensorWidth float64 `yaml:"sensor_width"`
	ImageWidth  int     `yaml:"image_width"`
	ImageHeight int     `yaml:"image_height"`
}

type PluginConfig struct {
	MaxZoom      float64 `yaml:"max_zoom"`
	SlewRate     float64 `yaml:"slew_rate"`
	Topic        string  `yaml:"topic,omitempty"`
	ReferenceFov float64 `yaml:"reference_fov,omitempty"`
}

// Command publishes Zoom on the plugin topic at Time seconds.
type Command struct {
	Time float64 `yaml:"time"`
	Zoom float64 `yaml:"zoom"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "default",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Camera: CameraConfig{
			World:       "default",
			Model:       "gimbal",
			Link:        "base_link",
			Sensor:      "zoom_cam",
			Hfov:        DefaultHfov,
			FocalLength: DefaultFocalLength,
			ImageWidth:  640,
			ImageHeight: 480,
		},
		Plugin: PluginConfig{
			MaxZoom:  DefaultMaxZoom,
			SlewRate: math.Inf(1),
		},
		RenderDelay: DefaultRenderDelay,
		Tolerance:   DefaultTolerance,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
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

// InitialFocalLength is the lens focal length at start-up. A positive sensor width
// takes precedence and derives it from the fov.
func (c CameraConfig) InitialFocalLength() float64 {
	if c.SensorWidth > 0 {
		return optics.FocalLengthFromFov(c.SensorWidth, c.Hfov)
	}
	return c.FocalLength
}

func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if math.IsNaN(c.Dt) || c.Dt <= 0 {
		return invalid("dt must be positive, got %g", c.Dt)
	}
	if math.IsNaN(c.Duration) || c.Duration < c.Dt {
		return invalid("duration %g must be at least dt", c.Duration)
	}
	if c.Camera.Model == "" || c.Camera.Link == "" || c.Camera.Sensor == "" {
		return invalid("camera model, link and sensor names are required")
	}
	if !optics.ValidFov(c.Camera.Hfov) {
		return invalid("camera hfov %g outside (0, pi)", c.Camera.Hfov)
	}
	if f := c.Camera.InitialFocalLength(); math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return invalid("camera focal length %g must be positive", f)
	}
	if math.IsNaN(c.Plugin.MaxZoom) || math.IsInf(c.Plugin.MaxZoom, 0) || c.Plugin.MaxZoom < 1 {
		return invalid("max_zoom %g must be finite and >= 1", c.Plugin.MaxZoom)
	}
	if math.IsNaN(c.Plugin.SlewRate) || c.Plugin.SlewRate <= 0 {
		return invalid("slew_rate %g must be positive (.inf for instant)", c.Plugin.SlewRate)
	}
	if c.Plugin.ReferenceFov != 0 && !optics.ValidFov(c.Plugin.ReferenceFov) {
		return invalid("reference_fov %g outside (0, pi)", c.Plugin.ReferenceFov)
	}
	if c.RenderDelay < 0 {
		return invalid("render_delay must not be negative, got %d", c.RenderDelay)
	}
	if math.IsNaN(c.TeardownAt) || c.TeardownAt < 0 {
		return invalid("teardown_at must not be negative, got %g", c.TeardownAt)
	}
	if math.IsNaN(c.Tolerance) || c.Tolerance <= 0 {
		return invalid("tolerance must be positive, got %g", c.Tolerance)
	}
	for i, cmd := range c.Commands {
		if math.IsNaN(cmd.Time) || cmd.Time < 0 {
			return invalid("command %d: time %g must not be negative", i, cmd.Time)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Commands = append([]Command(nil), c.Commands...)
	return &out
}
