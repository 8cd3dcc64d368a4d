// Package optim tunes world parameters against a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/automation"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
)

var ErrEmptyGrid = errors.New("optim: empty grid")

// GridSearch evaluates every combination of the listed parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d params, %d ranges", ErrEmptyGrid, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", ErrEmptyGrid, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of runs a search performs.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
}

// Search runs base with every grid point applied and returns the point
// that minimises metric, along with every trial in grid order. Worlds that
// fail to build are skipped; a search where none builds returns the last
// build error.
func (g *GridSearch) Search(ctx context.Context, reg *experiment.Registry, base *config.Config, metric string) (Trial, []Trial, error) {
	best := Trial{Value: math.Inf(1)}
	var trials []Trial
	var lastErr error

	err := g.searchRecursive(0, map[string]float64{}, func(point map[string]float64) error {
		cfg := config.Clone(base)
		for name, v := range point {
			if err := automation.SetParam(cfg, name, v); err != nil {
				return err
			}
		}
		exp, err := experiment.New(reg, cfg)
		if err != nil {
			lastErr = err
			return nil
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return err
		}
		val, ok := result.Metrics[metric]
		if !ok {
			return fmt.Errorf("optim: unknown metric %q", metric)
		}

		t := Trial{Params: point, Value: val}
		trials = append(trials, t)
		if val < best.Value {
			best = t
		}
		return nil
	})
	if err != nil {
		return Trial{}, trials, err
	}
	if len(trials) == 0 {
		return Trial{}, nil, lastErr
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, eval func(map[string]float64) error) error {
	if depth == len(g.paramNames) {
		return eval(current)
	}
	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}
