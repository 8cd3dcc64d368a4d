// Package world orchestrates the simulation step: it owns the bodies,
// joints and contact cache and runs the pipeline stages in a fixed order.
package world

import (
	"fmt"
	"io"
	"log"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/ccd"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/integrators"
	"github.com/san-kum/rigidsim/internal/island"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/solver"
	"github.com/san-kum/rigidsim/internal/space"
)

type options struct {
	logger     *log.Logger
	integrator string
}

type Option func(*options)

// WithLogger sets the logger used for recoverable conditions such as
// dropped joints and clamped velocities.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIntegrator selects an integrator by name; see [integrators.Names].
func WithIntegrator(name string) Option {
	return func(o *options) { o.integrator = name }
}

// World is a rigid-body simulation. It is not safe for concurrent use;
// separate worlds may be stepped from separate goroutines.
type World[S scalar.Float, V, A, R, I any] struct {
	sp         space.Space[S, V, A, R, I]
	params     Params[S, V]
	logger     *log.Logger
	bodies     *body.Store[S, V, A, R, I]
	joints     *constraint.JointSet[S, V, A, R]
	cache      *constraint.Cache[S, V]
	detector   collision.Detector[S, V, A, R, I]
	integrator integrators.Integrator[S, V, A, R, I]
	solver     *solver.Solver[S, V, A, R, I]
	guard      *ccd.Guard[S, V, A, R, I]

	contacts  []constraint.Contact[S, V]
	swept     []constraint.Contact[S, V]
	jointList []*constraint.Joint[S, V, A, R]
	islands   []*island.Island[S, V, A, R, I]
	active    []*body.Body[S, V, A, R, I]
	poses     []integrators.Pose[V, R]

	steps uint64
	stats Stats
}

// New creates an empty world.
func New[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], detector collision.Detector[S, V, A, R, I], params Params[S, V], opts ...Option) (*World[S, V, A, R, I], error) {
	if err := params.Validate(sp); err != nil {
		return nil, err
	}
	if detector == nil {
		return nil, fmt.Errorf("world: nil detector")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	integ, err := integrators.ByName[S, V, A, R, I](o.integrator)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}

	return &World[S, V, A, R, I]{
		sp:         sp,
		params:     params,
		logger:     o.logger,
		bodies:     body.NewStore(sp),
		joints:     constraint.NewJointSet[S, V, A, R](),
		cache:      constraint.NewCache[S, V](),
		detector:   detector,
		integrator: integ,
		solver:     solver.New(sp, params.solver()),
		guard:      ccd.New(sp, detector, params.ccd()),
	}, nil
}

func (w *World[S, V, A, R, I]) Space() space.Space[S, V, A, R, I] { return w.sp }
func (w *World[S, V, A, R, I]) Params() Params[S, V]              { return w.params }
func (w *World[S, V, A, R, I]) Integrator() string                { return w.integrator.Name() }
func (w *World[S, V, A, R, I]) StepCount() uint64                 { return w.steps }
func (w *World[S, V, A, R, I]) Stats() Stats                      { return w.stats }
func (w *World[S, V, A, R, I]) Dt() float64                       { return float64(w.params.Dt) }

// Time is the simulated time, steps × dt.
func (w *World[S, V, A, R, I]) Time() float64 {
	return float64(w.steps) * float64(w.params.Dt)
}

// SetParams replaces the world parameters between steps.
func (w *World[S, V, A, R, I]) SetParams(p Params[S, V]) error {
	if err := p.Validate(w.sp); err != nil {
		return err
	}
	w.params = p
	w.solver.SetParams(p.solver())
	w.guard.SetParams(p.ccd())
	return nil
}

// AddBody inserts a body described by desc.
func (w *World[S, V, A, R, I]) AddBody(desc body.Desc[S, V, A, R, I]) (body.Handle, error) {
	if desc.Shape != nil && desc.Shape.Kind() == shape.KindPlane && !desc.Static {
		return body.Handle{}, fmt.Errorf("world: add body %q: %w: planes must be static", desc.Label, ErrInvalidMassProperties)
	}
	h, err := w.bodies.Insert(desc)
	if err != nil {
		return body.Handle{}, fmt.Errorf("world: add body %q: %w", desc.Label, err)
	}
	return h, nil
}

// RemoveBody deletes a body. Bodies touching it are woken; joints attached
// to it are dropped at the start of the next step.
func (w *World[S, V, A, R, I]) RemoveBody(h body.Handle) error {
	if !w.bodies.Contains(h) {
		return &BodyError{Op: "remove", Handle: h, Wrapped: ErrMissingBody}
	}
	for i := range w.contacts {
		c := &w.contacts[i]
		if !c.Involves(h) {
			continue
		}
		other := c.A
		if other == h {
			other = c.B
		}
		if b, ok := w.bodies.Get(other); ok {
			b.Wake()
		}
	}
	if err := w.bodies.Remove(h); err != nil {
		return &BodyError{Op: "remove", Handle: h, Wrapped: err}
	}
	w.cache.Forget(h)
	kept := w.swept[:0]
	for _, c := range w.swept {
		if !c.Involves(h) {
			kept = append(kept, c)
		}
	}
	w.swept = kept
	return nil
}

// Body resolves a handle.
func (w *World[S, V, A, R, I]) Body(h body.Handle) (*body.Body[S, V, A, R, I], bool) {
	return w.bodies.Get(h)
}

// Bodies returns the live bodies in slot order.
func (w *World[S, V, A, R, I]) Bodies() []*body.Body[S, V, A, R, I] {
	return w.bodies.All()
}

// Find returns the first body with the given label.
func (w *World[S, V, A, R, I]) Find(label string) (*body.Body[S, V, A, R, I], bool) {
	return w.bodies.Find(label)
}

// Wake wakes a sleeping body; its island wakes with it on the next step.
func (w *World[S, V, A, R, I]) Wake(h body.Handle) error {
	b, ok := w.bodies.Get(h)
	if !ok {
		return &BodyError{Op: "wake", Handle: h, Wrapped: ErrMissingBody}
	}
	b.Wake()
	return nil
}

// Contacts returns a copy of the contacts solved in the last step.
func (w *World[S, V, A, R, I]) Contacts() []constraint.Contact[S, V] {
	out := make([]constraint.Contact[S, V], len(w.contacts))
	copy(out, w.contacts)
	return out
}

// Islands returns the members of each island of the last step.
func (w *World[S, V, A, R, I]) Islands() [][]body.Handle {
	out := make([][]body.Handle, len(w.islands))
	for i, is := range w.islands {
		out[i] = is.Handles()
	}
	return out
}

// RayCast returns the first body hit along origin + t·dir, t ≤ maxLen.
// It reports false when the detector does not support rays.
func (w *World[S, V, A, R, I]) RayCast(origin, dir V, maxLen S) (collision.Hit[S, V], bool) {
	rc, ok := w.detector.(collision.RayCaster[S, V, A, R, I])
	if !ok {
		return collision.Hit[S, V]{}, false
	}
	return rc.RayCast(w.bodies.All(), origin, dir, maxLen)
}

// Snapshot captures every body in float64.
func (w *World[S, V, A, R, I]) Snapshot() Snapshot {
	sp := w.sp
	snap := Snapshot{Step: w.steps, Time: w.Time(), Dim: sp.Dim()}
	w.bodies.Each(func(b *body.Body[S, V, A, R, I]) {
		snap.Bodies = append(snap.Bodies, Sample{
			Handle:          b.Handle(),
			Label:           b.Label(),
			Status:          b.Status(),
			Shape:           b.Shape().Kind(),
			Position:        sp.Floats(b.Position),
			Rotation:        sp.RotationFloats(b.Rotation),
			LinearVelocity:  sp.Floats(b.LinearVelocity),
			AngularVelocity: sp.AngFloats(b.AngularVelocity),
			Mass:            float64(b.Mass()),
			KineticEnergy:   float64(b.KineticEnergy(sp)),
			Extent:          w.extent(b.Shape()),
		})
	})
	return snap
}

func (w *World[S, V, A, R, I]) extent(s shape.Shape[S, V]) []float64 {
	switch sh := s.(type) {
	case *shape.Ball[S, V]:
		return []float64{float64(sh.Radius)}
	case *shape.Box[S, V]:
		return w.sp.Floats(sh.Half)
	case *shape.Plane[S, V]:
		return w.sp.Floats(sh.Normal)
	}
	return nil
}
