package experiment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/space"
	"github.com/san-kum/rigidsim/internal/world"
)

// TraceEvery is the step interval of span events on traced runs.
const TraceEvery = 60

type Experiment struct {
	cfg    *config.Config
	world  sim.World
	runner *sim.Runner
}

// New builds the world described by cfg and a runner carrying the default
// metrics.
func New(r *Registry, cfg *config.Config, opts ...world.Option) (*Experiment, error) {
	w, err := r.Build(cfg, opts...)
	if err != nil {
		return nil, err
	}
	runner := sim.New(w)
	for _, m := range r.DefaultMetrics(cfg) {
		runner.AddMetric(m)
	}
	return &Experiment{cfg: cfg, world: w, runner: runner}, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.runner.Run(ctx, e.SimConfig())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Duration:    e.cfg.Duration,
		SampleEvery: e.cfg.SampleEvery,
		TraceEvery:  TraceEvery,
		Label:       e.cfg.Name(),
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) World() sim.World       { return e.world }

// Runner returns the underlying runner for adding observers.
func (e *Experiment) Runner() *sim.Runner { return e.runner }

// Build instantiates the world for cfg's dimension and precision. Explicit
// scene bodies are used as given; otherwise the named built-in scene is
// generated.
func (r *Registry) Build(cfg *config.Config, opts ...world.Option) (sim.World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sc := cfg.Scene
	if len(sc.Bodies) == 0 {
		var err error
		if sc, err = r.Scene(cfg.Scene.Name, cfg.Dim, cfg.Scene.Count); err != nil {
			return nil, err
		}
	}
	opts = append(opts, world.WithIntegrator(cfg.Integrator))

	switch Instantiation(cfg.Dim, cfg.Precision) {
	case "2d/64":
		return build[float64, mgl64.Vec2, float64, mgl64.Vec2, float64](space.Plane64{}, sc, cfg.Params, opts)
	case "2d/32":
		return build[float32, mgl32.Vec2, float32, mgl32.Vec2, float32](space.Plane32{}, sc, cfg.Params, opts)
	case "3d/64":
		return build[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3](space.Euclid64{}, sc, cfg.Params, opts)
	case "3d/32":
		return build[float32, mgl32.Vec3, mgl32.Vec3, mgl32.Quat, mgl32.Mat3](space.Euclid32{}, sc, cfg.Params, opts)
	}
	return nil, fmt.Errorf("%w: no world for dim %d precision %d", config.ErrInvalidConfig, cfg.Dim, cfg.Precision)
}

// Instantiation names a dimension and precision pair, as stored with runs.
func Instantiation(dim, precision int) string {
	return strconv.Itoa(dim) + "d/" + strconv.Itoa(precision)
}

func build[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], sc config.SceneConfig, pc config.ParamsConfig, opts []world.Option) (sim.World, error) {
	w, err := scene.Build(sp, sc, scene.Params[S, V](sp, pc), opts...)
	if err != nil {
		return nil, err
	}
	return w, nil
}
