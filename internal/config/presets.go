package config

import (
	"maps"
	"slices"

	"github.com/jinzhu/copier"
)

func ptr(v float64) *float64 { return &v }

// Presets holds named variants of the built-in scenes, keyed by scene and
// then by preset name.
var Presets = map[string]map[string]*Config{
	"drop": {
		"default": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 3, SampleEvery: 1,
			Scene: SceneConfig{Name: "drop"},
		},
		"bouncy": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 5, SampleEvery: 1,
			Params: ParamsConfig{Restitution: ptr(0.8)},
			Scene:  SceneConfig{Name: "drop"},
		},
		"single": {
			Dim: 2, Precision: 32, Integrator: "symplectic", Duration: 3, SampleEvery: 1,
			Scene: SceneConfig{Name: "drop"},
		},
		"3d": {
			Dim: 3, Precision: 64, Integrator: "symplectic", Duration: 3, SampleEvery: 1,
			Scene: SceneConfig{Name: "drop"},
		},
	},
	"stack": {
		"short": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 5, SampleEvery: 2,
			Scene: SceneConfig{Name: "stack", Count: 3},
		},
		"tall": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 10, SampleEvery: 4,
			Params: ParamsConfig{Iterations: 20},
			Scene:  SceneConfig{Name: "stack", Count: 8},
		},
		"3d": {
			Dim: 3, Precision: 64, Integrator: "symplectic", Duration: 5, SampleEvery: 2,
			Scene: SceneConfig{Name: "stack", Count: 4},
		},
	},
	"newton": {
		"elastic": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 2, SampleEvery: 1,
			Params: ParamsConfig{Gravity: []float64{0, 0}, Restitution: ptr(1)},
			Scene:  SceneConfig{Name: "newton"},
		},
		"inelastic": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 2, SampleEvery: 1,
			Params: ParamsConfig{Gravity: []float64{0, 0}, Restitution: ptr(0)},
			Scene:  SceneConfig{Name: "newton"},
		},
	},
	"bullet": {
		"guarded": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 1, SampleEvery: 1,
			Params: ParamsConfig{Gravity: []float64{0, 0}},
			Scene:  SceneConfig{Name: "bullet"},
		},
		"tunnel": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 1, SampleEvery: 1,
			Params: ParamsConfig{Gravity: []float64{0, 0}, DisableCCD: true},
			Scene:  SceneConfig{Name: "bullet"},
		},
	},
	"chain": {
		"short": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 10, SampleEvery: 2,
			Scene: SceneConfig{Name: "chain", Count: 3},
		},
		"long": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 10, SampleEvery: 2,
			Params: ParamsConfig{Iterations: 30},
			Scene:  SceneConfig{Name: "chain", Count: 10},
		},
		"3d": {
			Dim: 3, Precision: 64, Integrator: "symplectic", Duration: 10, SampleEvery: 2,
			Scene: SceneConfig{Name: "chain", Count: 4},
		},
	},
	"weld": {
		"default": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 5, SampleEvery: 1,
			Scene: SceneConfig{Name: "weld"},
		},
		"3d": {
			Dim: 3, Precision: 64, Integrator: "symplectic", Duration: 5, SampleEvery: 1,
			Scene: SceneConfig{Name: "weld"},
		},
	},
	"pile": {
		"small": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 8, SampleEvery: 4,
			Scene: SceneConfig{Name: "pile", Count: 12},
		},
		"large": {
			Dim: 2, Precision: 64, Integrator: "symplectic", Duration: 8, SampleEvery: 8,
			Scene: SceneConfig{Name: "pile", Count: 60},
		},
		"3d": {
			Dim: 3, Precision: 64, Integrator: "symplectic", Duration: 8, SampleEvery: 4,
			Scene: SceneConfig{Name: "pile", Count: 20},
		},
	},
}

// GetPreset returns a deep copy of a preset, or nil when scene or preset is
// unknown. The copy may be modified freely.
func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	return Clone(cfg)
}

// ListPresets returns the preset names of a scene in sorted order.
func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(scenePresets))
}

// Scenes returns the scenes that have presets, sorted.
func Scenes() []string {
	return slices.Sorted(maps.Keys(Presets))
}

// Clone deep-copies cfg, including its slices and pointers.
func Clone(cfg *Config) *Config {
	out := &Config{}
	if err := copier.CopyWithOption(out, cfg, copier.Option{DeepCopy: true}); err != nil {
		panic(err)
	}
	return out
}
