package world

import (
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/shape"
)

// Sample is the state of one body in float64, independent of the world's
// dimension and precision.
type Sample struct {
	Handle          body.Handle
	Label           string
	Status          body.Status
	Shape           shape.Kind
	Position        []float64
	Rotation        []float64
	LinearVelocity  []float64
	AngularVelocity []float64
	Mass            float64
	KineticEnergy   float64

	// Extent is the radius of a ball, the half extents of a box or the
	// normal of a plane.
	Extent []float64
}

// Snapshot is the state of every body after a step, in slot order.
type Snapshot struct {
	Step   uint64
	Time   float64
	Dim    int
	Bodies []Sample
}

// Speed returns |v| of a sample.
func (s Sample) Speed() float64 {
	var sum float64
	for _, v := range s.LinearVelocity {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// KineticEnergy returns the total kinetic energy of the snapshot.
func (s Snapshot) KineticEnergy() float64 {
	var e float64
	for _, b := range s.Bodies {
		e += b.KineticEnergy
	}
	return e
}

// Momentum returns the total linear momentum.
func (s Snapshot) Momentum() []float64 {
	p := make([]float64, s.Dim)
	for _, b := range s.Bodies {
		if b.Status == body.Static {
			continue
		}
		for i := range p {
			if i < len(b.LinearVelocity) {
				p[i] += b.Mass * b.LinearVelocity[i]
			}
		}
	}
	return p
}

// Count returns the number of bodies with the given status.
func (s Snapshot) Count(status body.Status) int {
	n := 0
	for _, b := range s.Bodies {
		if b.Status == status {
			n++
		}
	}
	return n
}

// Find returns the first sample with label.
func (s Snapshot) Find(label string) (Sample, bool) {
	for _, b := range s.Bodies {
		if b.Label == label {
			return b, true
		}
	}
	return Sample{}, false
}
