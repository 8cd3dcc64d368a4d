package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent worlds concurrently. Worlds are never shared:
// each member is stepped by exactly one goroutine.
type Ensemble struct {
	runners []*Runner
	limit   int
}

// NewEnsemble builds one runner per world. A limit of zero runs every
// world at once.
func NewEnsemble(worlds []World, limit int) *Ensemble {
	e := &Ensemble{limit: limit}
	for _, w := range worlds {
		e.runners = append(e.runners, New(w))
	}
	return e
}

// Runner returns the runner of member i, to attach metrics and observers.
func (e *Ensemble) Runner(i int) *Runner { return e.runners[i] }

func (e *Ensemble) Len() int { return len(e.runners) }

// Run runs every member with cfg and returns the results in member order.
// The first failure cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.runners))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, r := range e.runners {
		g.Go(func() error {
			res, err := r.Run(ctx, cfg)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
