package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Overrides are the RIGIDSIM_* environment variables. Unset variables leave
// the configuration untouched.
type Overrides struct {
	Scene       *string   `env:"RIGIDSIM_SCENE"`
	Dim         *int      `env:"RIGIDSIM_DIM"`
	Precision   *int      `env:"RIGIDSIM_PRECISION"`
	Integrator  *string   `env:"RIGIDSIM_INTEGRATOR"`
	Duration    *float64  `env:"RIGIDSIM_DURATION"`
	SampleEvery *int      `env:"RIGIDSIM_SAMPLE_EVERY"`
	Dt          *float64  `env:"RIGIDSIM_DT"`
	Iterations  *int      `env:"RIGIDSIM_ITERATIONS"`
	Gravity     []float64 `env:"RIGIDSIM_GRAVITY" envSeparator:","`
	DisableCCD  *bool     `env:"RIGIDSIM_DISABLE_CCD"`
	DataDir     string    `env:"RIGIDSIM_DATA" envDefault:"data"`
}

// ParseEnv reads the RIGIDSIM_* variables.
func ParseEnv() (Overrides, error) {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// Apply copies every set override onto cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.Scene != nil {
		cfg.Scene = SceneConfig{Name: *o.Scene}
	}
	if o.Dim != nil {
		cfg.Dim = *o.Dim
	}
	if o.Precision != nil {
		cfg.Precision = *o.Precision
	}
	if o.Integrator != nil {
		cfg.Integrator = *o.Integrator
	}
	if o.Duration != nil {
		cfg.Duration = *o.Duration
	}
	if o.SampleEvery != nil {
		cfg.SampleEvery = *o.SampleEvery
	}
	if o.Dt != nil {
		cfg.Params.Dt = *o.Dt
	}
	if o.Iterations != nil {
		cfg.Params.Iterations = *o.Iterations
	}
	if len(o.Gravity) > 0 {
		cfg.Params.Gravity = append([]float64(nil), o.Gravity...)
	}
	if o.DisableCCD != nil {
		cfg.Params.DisableCCD = *o.DisableCCD
	}
}
