package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/world"
)

// Momentum reports |p| of the last observed sample.
type Momentum struct {
	name string
	last float64
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(s world.Snapshot, _ world.Stats) {
	var sum float64
	for _, p := range s.Momentum() {
		sum += p * p
	}
	m.last = math.Sqrt(sum)
}

func (m *Momentum) Value() float64 { return m.last }
func (m *Momentum) Reset()         { m.last = 0 }
