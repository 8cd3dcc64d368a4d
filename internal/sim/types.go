package sim

import "github.com/san-kum/rigidsim/internal/world"

// World is the dimension- and precision-independent view of a world that
// the runner drives. Every instantiation of world.World satisfies it.
type World interface {
	Step()
	Time() float64
	Dt() float64
	Snapshot() world.Snapshot
	Stats() world.Stats
}

type Metric interface {
	Name() string
	Observe(s world.Snapshot, st world.Stats)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s world.Snapshot, st world.Stats)
}

type Config struct {
	Duration float64
	// SampleEvery records a snapshot every n steps; zero means every step.
	SampleEvery int
	// TraceEvery adds a span event with the step statistics every n steps;
	// zero disables step events.
	TraceEvery int
	// Label names the run in traces.
	Label string
}

// Result holds the sampled trajectory of a run. Snapshots[i] and Stats[i]
// describe the same step.
type Result struct {
	Snapshots  []world.Snapshot
	Stats      []world.Stats
	Metrics    map[string]float64
	StepsTaken int
	Elapsed    float64
}

// Times returns the simulated time of every sample.
func (r *Result) Times() []float64 {
	out := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		out[i] = s.Time
	}
	return out
}

// Final returns the last recorded snapshot.
func (r *Result) Final() (world.Snapshot, bool) {
	if len(r.Snapshots) == 0 {
		return world.Snapshot{}, false
	}
	return r.Snapshots[len(r.Snapshots)-1], true
}

// Series extracts one float per sample, for plotting.
func (r *Result) Series(fn func(world.Snapshot, world.Stats) float64) []float64 {
	out := make([]float64, len(r.Snapshots))
	for i := range r.Snapshots {
		out[i] = fn(r.Snapshots[i], r.Stats[i])
	}
	return out
}
