// Package metrics summarises a run from its sampled snapshots.
package metrics

import "github.com/san-kum/rigidsim/internal/sim"

var (
	_ sim.Metric = (*KineticEnergy)(nil)
	_ sim.Metric = (*EnergyDrift)(nil)
	_ sim.Metric = (*Momentum)(nil)
	_ sim.Metric = (*Stability)(nil)
	_ sim.Metric = (*SleepRatio)(nil)
	_ sim.Metric = (*MaxPenetration)(nil)
)

// DefaultStabilityBound is the speed above which a sample counts as
// unstable.
const DefaultStabilityBound = 100.0

// Standard returns the metric set recorded for every stored run.
func Standard(gravity []float64) []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(gravity),
		NewMomentum(),
		NewSleepRatio(),
		NewMaxPenetration(),
		NewStability(DefaultStabilityBound),
	}
}
