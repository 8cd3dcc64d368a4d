// Package automation runs batches of worlds: scripted scenarios, parameter
// sweeps and Monte Carlo trials over perturbed initial velocities.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
	"gopkg.in/yaml.v3"
)

var ErrUnknownParam = errors.New("automation: unknown parameter")

// Scenario is a scripted sequence of runs. Each step is a full config
// document decoded over the base config.
type Scenario struct {
	Name        string
	Description string
	Steps       []Step
}

type Step struct {
	SaveAs string
	Config *config.Config
}

type scenarioFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []yaml.Node `yaml:"steps"`
}

func LoadScenario(path string, base *config.Config) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data, base)
}

// ParseScenario decodes a scenario document. Keys missing from a step keep
// the values of base.
func ParseScenario(data []byte, base *config.Config) (*Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", f.Name)
	}

	sc := &Scenario{Name: f.Name, Description: f.Description}
	for i := range f.Steps {
		var meta struct {
			SaveAs string `yaml:"save_as"`
		}
		if err := f.Steps[i].Decode(&meta); err != nil {
			return nil, fmt.Errorf("scenario step %d: %w", i+1, err)
		}
		cfg := config.Clone(base)
		if err := f.Steps[i].Decode(cfg); err != nil {
			return nil, fmt.Errorf("scenario step %d: %w", i+1, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("scenario step %d: %w", i+1, err)
		}
		sc.Steps = append(sc.Steps, Step{SaveAs: meta.SaveAs, Config: cfg})
	}
	return sc, nil
}

// RunScenario runs the steps in order. done is called after every step;
// a done error stops the scenario.
func RunScenario(ctx context.Context, reg *experiment.Registry, sc *Scenario, done func(Step, *sim.Result) error) ([]*sim.Result, error) {
	results := make([]*sim.Result, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		log.Printf("scenario %s: step %d/%d: %s %s", sc.Name, i+1, len(sc.Steps), step.Config.Name(),
			experiment.Instantiation(step.Config.Dim, step.Config.Precision))

		exp, err := experiment.New(reg, step.Config)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, res)
		if done != nil {
			if err := done(step, res); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return results, nil
}

// Params lists the names accepted by SetParam.
func Params() []string {
	return []string{"baumgarte", "count", "dt", "friction", "gravity", "iterations", "max_speed", "restitution", "skin", "sleep_time", "slop"}
}

// SetParam assigns one numeric setting of cfg by name. gravity sets the
// magnitude of a field pointing down the y axis.
func SetParam(cfg *config.Config, name string, v float64) error {
	p := &cfg.Params
	switch name {
	case "dt":
		p.Dt = v
	case "iterations":
		if v < 1 {
			return fmt.Errorf("iterations must be at least 1, got %v", v)
		}
		p.Iterations = int(math.Round(v))
	case "restitution":
		p.Restitution = &v
	case "friction":
		p.Friction = &v
	case "baumgarte":
		p.Baumgarte = v
	case "slop":
		p.Slop = v
	case "skin":
		p.Skin = v
	case "max_speed":
		p.MaxSpeed = v
	case "sleep_time":
		p.SleepTime = v
	case "gravity":
		g := make([]float64, cfg.Dim)
		if len(g) > 1 {
			g[1] = -v
		}
		p.Gravity = g
	case "count":
		if v < 1 {
			return fmt.Errorf("count must be at least 1, got %v", v)
		}
		cfg.Scene.Count = int(math.Round(v))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// Sweep varies one parameter linearly from Min to Max over Steps runs.
type Sweep struct {
	Param    string
	Min      float64
	Max      float64
	Steps    int
	Parallel int
}

func (s Sweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	out := make([]float64, s.Steps)
	step := (s.Max - s.Min) / float64(s.Steps-1)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

type SweepResult struct {
	Value     float64
	Metrics   map[string]float64
	Final     world.Stats
	MinEnergy float64
	MaxEnergy float64
}

// RunSweep runs one world per sweep value concurrently.
func RunSweep(ctx context.Context, reg *experiment.Registry, base *config.Config, sw Sweep) ([]SweepResult, error) {
	if sw.Max < sw.Min {
		return nil, fmt.Errorf("sweep %s: max %v is below min %v", sw.Param, sw.Max, sw.Min)
	}
	values := sw.Values()
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		cfgs[i] = config.Clone(base)
		if err := SetParam(cfgs[i], sw.Param, v); err != nil {
			return nil, err
		}
	}

	log.Printf("sweep %s: %d runs of %s", sw.Param, len(values), base.Name())
	results, err := runAll(ctx, reg, cfgs, sw.Parallel)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(results))
	for i, res := range results {
		g := experiment.Gravity(cfgs[i])
		energy := res.Series(func(s world.Snapshot, _ world.Stats) float64 {
			return metrics.Mechanical(s, g)
		})
		out[i] = SweepResult{Value: values[i], Metrics: res.Metrics}
		if len(energy) > 0 {
			out[i].MinEnergy = slices.Min(energy)
			out[i].MaxEnergy = slices.Max(energy)
		}
		if n := len(res.Stats); n > 0 {
			out[i].Final = res.Stats[n-1]
		}
	}
	return out, nil
}

// MonteCarlo perturbs every dynamic body's initial velocity by a uniform
// offset in [-Perturbation, Perturbation] per axis.
type MonteCarlo struct {
	Trials       int
	Perturbation float64
	// Seed fixes the trial sequence; zero seeds from the clock.
	Seed     uint64
	Parallel int
}

type TrialResult struct {
	Trial    int
	Velocity map[string][]float64
	Metrics  map[string]float64
	Final    world.Stats
	Stable   bool
}

func RunMonteCarlo(ctx context.Context, reg *experiment.Registry, base *config.Config, mc MonteCarlo) ([]TrialResult, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("monte carlo: need at least one trial, got %d", mc.Trials)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	sc := base.Scene
	if len(sc.Bodies) == 0 {
		var err error
		if sc, err = reg.Scene(base.Scene.Name, base.Dim, base.Scene.Count); err != nil {
			return nil, err
		}
		sc.Name = base.Scene.Name
	}

	seed := mc.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	cfgs := make([]*config.Config, mc.Trials)
	initial := make([]map[string][]float64, mc.Trials)
	for t := range cfgs {
		cfg := config.Clone(base)
		cfg.Scene = sc
		cfg = config.Clone(cfg)
		initial[t] = make(map[string][]float64)
		for i := range cfg.Scene.Bodies {
			b := &cfg.Scene.Bodies[i]
			if b.Static || b.Shape == "plane" {
				continue
			}
			v := make([]float64, cfg.Dim)
			copy(v, b.Velocity)
			for k := range v {
				v[k] += (rng.Float64()*2 - 1) * mc.Perturbation
			}
			b.Velocity = v
			initial[t][b.Label] = v
		}
		cfgs[t] = cfg
	}

	log.Printf("monte carlo: %d trials of %s (seed %d)", mc.Trials, base.Name(), seed)
	results, err := runAll(ctx, reg, cfgs, mc.Parallel)
	if err != nil {
		return nil, err
	}

	out := make([]TrialResult, len(results))
	for t, res := range results {
		out[t] = TrialResult{
			Trial:    t,
			Velocity: initial[t],
			Metrics:  res.Metrics,
			Stable:   bounded(res),
		}
		if n := len(res.Stats); n > 0 {
			out[t].Final = res.Stats[n-1]
		}
	}
	return out, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []TrialResult) (stable, unstable int) {
	for _, r := range results {
		if r.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}

// bounded reports whether the run kept every sample below the stability
// bound and ended with finite positions.
func bounded(res *sim.Result) bool {
	if res.Metrics["stability"] < 1 {
		return false
	}
	final, ok := res.Final()
	if !ok {
		return false
	}
	for _, b := range final.Bodies {
		for _, x := range b.Position {
			if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > 1e6 {
				return false
			}
		}
	}
	return true
}

// runAll runs one world per config on an ensemble. Every config shares the
// duration and sampling of the first.
func runAll(ctx context.Context, reg *experiment.Registry, cfgs []*config.Config, limit int) ([]*sim.Result, error) {
	worlds := make([]sim.World, len(cfgs))
	for i, cfg := range cfgs {
		w, err := reg.Build(cfg)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		worlds[i] = w
	}
	ens := sim.NewEnsemble(worlds, limit)
	for i, cfg := range cfgs {
		for _, m := range reg.DefaultMetrics(cfg) {
			ens.Runner(i).AddMetric(m)
		}
	}
	return ens.Run(ctx, sim.Config{
		Duration:    cfgs[0].Duration,
		SampleEvery: cfgs[0].SampleEvery,
		Label:       cfgs[0].Name(),
	})
}
