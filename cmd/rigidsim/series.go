package main

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/world"
)

type seriesFn = func(world.Snapshot, world.Stats) float64

// worldSeries are plotted from whole snapshots; bodySeries need --body.
var (
	worldSeries = map[string]func(gravity []float64) seriesFn{
		"energy": func(g []float64) seriesFn {
			return func(s world.Snapshot, _ world.Stats) float64 { return metrics.Mechanical(s, g) }
		},
		"kinetic": func([]float64) seriesFn {
			return func(s world.Snapshot, _ world.Stats) float64 { return s.KineticEnergy() }
		},
		"momentum": func([]float64) seriesFn {
			return func(s world.Snapshot, _ world.Stats) float64 { return norm(s.Momentum()) }
		},
		"contacts": func([]float64) seriesFn {
			return func(_ world.Snapshot, st world.Stats) float64 { return float64(st.Contacts) }
		},
		"sleeping": func([]float64) seriesFn {
			return func(_ world.Snapshot, st world.Stats) float64 { return float64(st.Sleeping) }
		},
		"islands": func([]float64) seriesFn {
			return func(_ world.Snapshot, st world.Stats) float64 { return float64(st.ActiveIslands) }
		},
		"penetration": func([]float64) seriesFn {
			return func(_ world.Snapshot, st world.Stats) float64 { return st.MaxPenetration }
		},
	}

	bodySeries = map[string]func(world.Sample) float64{
		"x":     func(b world.Sample) float64 { return at(b.Position, 0) },
		"y":     func(b world.Sample) float64 { return at(b.Position, 1) },
		"z":     func(b world.Sample) float64 { return at(b.Position, 2) },
		"speed": func(b world.Sample) float64 { return b.Speed() },
		"spin":  func(b world.Sample) float64 { return norm(b.AngularVelocity) },
		"angle": func(b world.Sample) float64 { return norm(b.Rotation) },
	}
)

func seriesNames() []string {
	var names []string
	for name := range worldSeries {
		names = append(names, name)
	}
	for name := range bodySeries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// seriesFunc resolves a series name. Body series read the body called
// label and yield NaN for samples where it is missing.
func seriesFunc(name, label string, gravity []float64) (seriesFn, string, error) {
	if mk, ok := worldSeries[name]; ok {
		return mk(gravity), name, nil
	}
	get, ok := bodySeries[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown series %q (available: %s)", name, strings.Join(seriesNames(), ", "))
	}
	if label == "" {
		return nil, "", fmt.Errorf("series %q needs --body", name)
	}
	fn := func(s world.Snapshot, _ world.Stats) float64 {
		b, ok := s.Find(label)
		if !ok {
			return math.NaN()
		}
		return get(b)
	}
	return fn, label + " " + name, nil
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
