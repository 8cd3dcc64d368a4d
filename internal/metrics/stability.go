package metrics

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/world"
)

// Stability is the fraction of samples in which every body moved slower
// than threshold and no velocity had to be clamped.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(snap world.Snapshot, st world.Stats) {
	s.samples++
	if st.Clamped > 0 {
		s.violations++
		return
	}
	for _, b := range snap.Bodies {
		if b.Speed() > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// SleepRatio is the fraction of dynamic bodies asleep in the last sample.
type SleepRatio struct {
	name  string
	ratio float64
}

func NewSleepRatio() *SleepRatio {
	return &SleepRatio{name: "sleep_ratio"}
}

func (r *SleepRatio) Name() string { return r.name }

func (r *SleepRatio) Observe(snap world.Snapshot, _ world.Stats) {
	dynamic := len(snap.Bodies) - snap.Count(body.Static)
	if dynamic == 0 {
		r.ratio = 0
		return
	}
	r.ratio = float64(snap.Count(body.Sleeping)) / float64(dynamic)
}

func (r *SleepRatio) Value() float64 { return r.ratio }
func (r *SleepRatio) Reset()         { r.ratio = 0 }

// MaxPenetration is the deepest contact overlap seen over the run.
type MaxPenetration struct {
	name  string
	depth float64
}

func NewMaxPenetration() *MaxPenetration {
	return &MaxPenetration{name: "max_penetration"}
}

func (m *MaxPenetration) Name() string { return m.name }

func (m *MaxPenetration) Observe(_ world.Snapshot, st world.Stats) {
	if st.MaxPenetration > m.depth {
		m.depth = st.MaxPenetration
	}
}

func (m *MaxPenetration) Value() float64 { return m.depth }
func (m *MaxPenetration) Reset()         { m.depth = 0 }
