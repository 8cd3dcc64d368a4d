// Package ccd keeps fast bodies from tunnelling through thin obstacles by
// sweeping their inner sphere along the candidate motion of a step.
package ccd

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/integrators"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

type Params[S scalar.Float] struct {
	// MotionFraction of a body's bounding radius above which its motion is
	// swept.
	MotionFraction S
	// Skin is the distance kept between a clamped body and its obstacle.
	Skin S
}

// Guard clamps candidate poses at the first time of impact.
type Guard[S scalar.Float, V, A, R, I any] struct {
	sp       space.Space[S, V, A, R, I]
	detector collision.Detector[S, V, A, R, I]
	params   Params[S]
}

func New[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], detector collision.Detector[S, V, A, R, I], params Params[S]) *Guard[S, V, A, R, I] {
	return &Guard[S, V, A, R, I]{sp: sp, detector: detector, params: params}
}

func (g *Guard[S, V, A, R, I]) SetParams(p Params[S]) { g.params = p }

// Apply sweeps moving[i] from its current position to poses[i] against
// every body in all at its current pose. Clamped poses are rewritten in
// place and a speculative contact is returned for each clamp, for use in
// the next step. Velocities are never changed.
func (g *Guard[S, V, A, R, I]) Apply(moving, all []*body.Body[S, V, A, R, I], poses []integrators.Pose[V, R]) []constraint.Contact[S, V] {
	sp := g.sp
	var out []constraint.Contact[S, V]
	for i, b := range moving {
		if !b.IsActive() || !b.CCD {
			continue
		}
		from, to := b.Position, poses[i].Position
		d := sp.Sub(to, from)
		dist := space.Length[S, V](sp, d)
		if dist <= g.params.MotionFraction*b.Shape().BoundingRadius() {
			continue
		}

		radius := b.Shape().InnerRadius()
		hit, ok := g.detector.Sweep(all, b.Handle(), from, to, radius)
		if !ok || hit.TOI >= 1 {
			continue
		}

		t := scalar.Max(hit.TOI-g.params.Skin/dist, 0)
		centre := space.Lerp[S, V](sp, from, to, t)
		poses[i].Position = centre

		gap := scalar.Max(-(hit.TOI-t)*sp.Dot(d, hit.Normal), 0)
		out = append(out, constraint.Contact[S, V]{
			A:       hit.Body,
			B:       b.Handle(),
			Point:   sp.Sub(centre, sp.Scale(hit.Normal, radius)),
			Normal:  hit.Normal,
			Depth:   -gap,
			Feature: constraint.FeatureSwept,
		})
	}
	return out
}
