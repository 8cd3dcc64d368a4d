package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDim         = 2
	DefaultPrecision   = 64
	DefaultDuration    = 5.0
	DefaultSampleEvery = 1
	DefaultScene       = "drop"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Dim         int          `yaml:"dim"`
	Precision   int          `yaml:"precision"`
	Integrator  string       `yaml:"integrator"`
	Duration    float64      `yaml:"duration"`
	SampleEvery int          `yaml:"sample_every"`
	Params      ParamsConfig `yaml:"params"`
	Scene       SceneConfig  `yaml:"scene"`
}

// ParamsConfig mirrors the world tuning parameters in float64. Zero
// values are replaced by the world defaults when the world is built.
type ParamsConfig struct {
	Dt                   float64   `yaml:"dt"`
	Iterations           int       `yaml:"iterations"`
	Gravity              []float64 `yaml:"gravity,omitempty"`
	Baumgarte            float64   `yaml:"baumgarte,omitempty"`
	Slop                 float64   `yaml:"slop,omitempty"`
	RestitutionThreshold float64   `yaml:"restitution_threshold,omitempty"`
	Restitution          *float64  `yaml:"restitution,omitempty"`
	Friction             *float64  `yaml:"friction,omitempty"`
	SleepLinear          float64   `yaml:"sleep_linear,omitempty"`
	SleepAngular         float64   `yaml:"sleep_angular,omitempty"`
	SleepTime            float64   `yaml:"sleep_time,omitempty"`
	DisableSleep         bool      `yaml:"disable_sleep,omitempty"`
	DisableCCD           bool      `yaml:"disable_ccd,omitempty"`
	MotionFraction       float64   `yaml:"motion_fraction,omitempty"`
	Skin                 float64   `yaml:"skin,omitempty"`
	MaxSpeed             float64   `yaml:"max_speed,omitempty"`
}

// SceneConfig names a built-in scene or lists bodies and joints
// explicitly. Explicit bodies take precedence over the name.
type SceneConfig struct {
	Name   string        `yaml:"name"`
	Count  int           `yaml:"count,omitempty"`
	Bodies []BodyConfig  `yaml:"bodies,omitempty"`
	Joints []JointConfig `yaml:"joints,omitempty"`
}

type BodyConfig struct {
	Label  string    `yaml:"label"`
	Shape  string    `yaml:"shape"`
	Radius float64   `yaml:"radius,omitempty"`
	Half   []float64 `yaml:"half,omitempty"`
	Normal []float64 `yaml:"normal,omitempty"`
	Static bool      `yaml:"static,omitempty"`

	Position        []float64 `yaml:"position,omitempty"`
	Rotation        []float64 `yaml:"rotation,omitempty"`
	Velocity        []float64 `yaml:"velocity,omitempty"`
	AngularVelocity []float64 `yaml:"angular_velocity,omitempty"`

	Mass           float64  `yaml:"mass,omitempty"`
	Density        float64  `yaml:"density,omitempty"`
	Restitution    *float64 `yaml:"restitution,omitempty"`
	Friction       *float64 `yaml:"friction,omitempty"`
	LinearDamping  float64  `yaml:"linear_damping,omitempty"`
	AngularDamping float64  `yaml:"angular_damping,omitempty"`
	DisableSleep   bool     `yaml:"disable_sleep,omitempty"`
	DisableCCD     bool     `yaml:"disable_ccd,omitempty"`
}

// JointConfig links two bodies by label. An empty label anchors the joint
// to the world.
type JointConfig struct {
	Kind   string    `yaml:"kind"`
	A      string    `yaml:"a"`
	B      string    `yaml:"b"`
	Anchor []float64 `yaml:"anchor"`
}

func DefaultConfig() *Config {
	return &Config{
		Dim:         DefaultDim,
		Precision:   DefaultPrecision,
		Integrator:  "symplectic",
		Duration:    DefaultDuration,
		SampleEvery: DefaultSampleEvery,
		Scene:       SceneConfig{Name: DefaultScene},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, DefaultConfig())
}

// Parse decodes a YAML document over base, so keys missing from data keep
// the values of base.
func Parse(data []byte, base *Config) (*Config, error) {
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings that select a world instantiation. World
// parameters are validated by the world itself.
func (c *Config) Validate() error {
	if c.Dim != 2 && c.Dim != 3 {
		return fmt.Errorf("%w: dim must be 2 or 3, got %d", ErrInvalidConfig, c.Dim)
	}
	if c.Precision != 32 && c.Precision != 64 {
		return fmt.Errorf("%w: precision must be 32 or 64, got %d", ErrInvalidConfig, c.Precision)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidConfig, c.Duration)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("%w: sample_every must not be negative", ErrInvalidConfig)
	}
	if len(c.Params.Gravity) > 0 && len(c.Params.Gravity) != c.Dim {
		return fmt.Errorf("%w: gravity has %d components for dim %d", ErrInvalidConfig, len(c.Params.Gravity), c.Dim)
	}
	if len(c.Scene.Bodies) == 0 && c.Scene.Name == "" {
		return fmt.Errorf("%w: scene needs a name or bodies", ErrInvalidConfig)
	}
	for i, b := range c.Scene.Bodies {
		switch b.Shape {
		case "ball", "box", "plane":
		default:
			return fmt.Errorf("%w: body %d (%q): unknown shape %q", ErrInvalidConfig, i, b.Label, b.Shape)
		}
	}
	for i, j := range c.Scene.Joints {
		if j.Kind != "ball" && j.Kind != "fixed" {
			return fmt.Errorf("%w: joint %d: unknown kind %q", ErrInvalidConfig, i, j.Kind)
		}
	}
	return nil
}

// Name returns the scene name used to label runs.
func (c *Config) Name() string {
	if c.Scene.Name != "" {
		return c.Scene.Name
	}
	return "custom"
}

// Resolve layers the configuration sources in increasing precedence:
// defaults, the preset of scene (if preset is set), the file at path (if
// set) and the environment. Flags are applied by the caller afterwards.
func Resolve(scene, preset, path string, o Overrides) (*Config, error) {
	cfg := DefaultConfig()
	if scene != "" {
		cfg.Scene = SceneConfig{Name: scene}
	}
	if preset != "" {
		p := GetPreset(cfg.Scene.Name, preset)
		if p == nil {
			return nil, fmt.Errorf("%w: no preset %q for scene %q", ErrInvalidConfig, preset, cfg.Scene.Name)
		}
		cfg = p
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if cfg, err = Parse(data, cfg); err != nil {
			return nil, err
		}
	}
	o.Apply(cfg)
	return cfg, nil
}
