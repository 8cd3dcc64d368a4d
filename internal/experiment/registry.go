package experiment

import (
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/integrators"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
)

// SceneFunc describes a built-in scene for a dimension. Count scales the
// scene where that makes sense; zero selects the scene's default.
type SceneFunc func(dim, count int) config.SceneConfig

type sceneEntry struct {
	build SceneFunc
	about string
}

type Registry struct {
	scenes map[string]sceneEntry
}

func NewRegistry() *Registry {
	r := &Registry{scenes: make(map[string]sceneEntry)}

	r.Register("drop", "a ball dropped onto the ground", dropScene)
	r.Register("stack", "a column of balls resting on the ground", stackScene)
	r.Register("newton", "head-on collision of two equal balls", newtonScene)
	r.Register("bullet", "a fast ball fired at a thin wall", bulletScene)
	r.Register("chain", "a pendulum chain of ball-in-socket joints", chainScene)
	r.Register("weld", "a box and a ball welded by a fixed joint", weldScene)
	r.Register("pile", "boxes and balls dropped into a walled pit", pileScene)

	return r
}

func (r *Registry) Register(name, about string, fn SceneFunc) {
	r.scenes[name] = sceneEntry{build: fn, about: about}
}

func (r *Registry) Scene(name string, dim, count int) (config.SceneConfig, error) {
	e, ok := r.scenes[name]
	if !ok {
		return config.SceneConfig{}, fmt.Errorf("unknown scene: %s", name)
	}
	return e.build(dim, count), nil
}

func (r *Registry) Describe(name string) string {
	return r.scenes[name].about
}

func (r *Registry) ListScenes() []string {
	return slices.Sorted(maps.Keys(r.scenes))
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

// DefaultMetrics returns the standard metric set for a configuration.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	return metrics.Standard(Gravity(cfg))
}

// Gravity returns the gravity vector of cfg in float64, falling back to
// the world default.
func Gravity(cfg *config.Config) []float64 {
	if len(cfg.Params.Gravity) > 0 {
		return cfg.Params.Gravity
	}
	g := make([]float64, cfg.Dim)
	if len(g) > 1 {
		g[1] = -9.81
	}
	return g
}
