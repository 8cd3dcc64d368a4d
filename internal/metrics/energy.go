package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/world"
)

// KineticEnergy is the mean total kinetic energy over the observed samples.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(s world.Snapshot, _ world.Stats) {
	e.total += s.KineticEnergy()
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change of mechanical energy (kinetic
// plus gravitational potential) from the first sample.
type EnergyDrift struct {
	name          string
	gravity       []float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(gravity []float64) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: gravity,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s world.Snapshot, _ world.Stats) {
	energy := Mechanical(s, e.gravity)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// Mechanical returns the kinetic energy of s plus the potential energy of
// its dynamic bodies in the uniform field gravity.
func Mechanical(s world.Snapshot, gravity []float64) float64 {
	energy := s.KineticEnergy()
	for _, b := range s.Bodies {
		if b.Status == body.Static {
			continue
		}
		for i, g := range gravity {
			if i < len(b.Position) {
				energy -= b.Mass * g * b.Position[i]
			}
		}
	}
	return energy
}
