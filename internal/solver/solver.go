// Package solver resolves contacts and joints with sequential impulses
// (projected Gauss-Seidel), one island at a time.
package solver

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/island"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

// Params tunes the solver. All fields must be set; see the world's
// defaults.
type Params[S scalar.Float] struct {
	Iterations int
	// Baumgarte is the fraction of positional error fed back per step.
	Baumgarte S
	// Slop is the penetration tolerated without correction.
	Slop S
	// RestitutionThreshold is the approach speed below which contacts with
	// restitution under one do not bounce.
	RestitutionThreshold S
	Restitution          S
	Friction             S
}

// Stats counts what one Solve call did.
type Stats struct {
	Contacts   int
	Joints     int
	Degenerate int
}

func (s *Stats) Add(o Stats) {
	s.Contacts += o.Contacts
	s.Joints += o.Joints
	s.Degenerate += o.Degenerate
}

// Bodies resolves handles; [body.Store] implements it.
type Bodies[S scalar.Float, V, A, R, I any] interface {
	Get(h body.Handle) (*body.Body[S, V, A, R, I], bool)
}

// Solver keeps scratch buffers between islands. It holds no state that
// outlives a Solve call.
type Solver[S scalar.Float, V, A, R, I any] struct {
	sp       space.Space[S, V, A, R, I]
	params   Params[S]
	contacts []contactRow[S, V, A, R, I]
	joints   []jointRow[S, V, A, R, I]
}

func New[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], params Params[S]) *Solver[S, V, A, R, I] {
	return &Solver[S, V, A, R, I]{sp: sp, params: params}
}

func (s *Solver[S, V, A, R, I]) SetParams(p Params[S]) { s.params = p }

// Solve corrects the velocities of an active island's bodies. contacts and
// joints are the step-wide lists the island's edge indices refer to.
// Accumulated impulses are written back for warm starting.
func (s *Solver[S, V, A, R, I]) Solve(is *island.Island[S, V, A, R, I], contacts []constraint.Contact[S, V], joints []*constraint.Joint[S, V, A, R], bodies Bodies[S, V, A, R, I], dt S) Stats {
	var st Stats
	if !is.Active || dt <= 0 {
		return st
	}

	s.contacts = s.contacts[:0]
	for _, i := range is.Contacts {
		row, ok := s.prepareContact(&contacts[i], bodies, dt)
		if !ok {
			st.Degenerate++
			continue
		}
		s.contacts = append(s.contacts, row)
	}
	s.joints = s.joints[:0]
	for _, i := range is.Joints {
		row, ok := s.prepareJoint(joints[i], bodies, dt)
		if !ok {
			st.Degenerate++
			continue
		}
		s.joints = append(s.joints, row)
	}
	st.Contacts = len(s.contacts)
	st.Joints = len(s.joints)

	for i := range s.joints {
		s.warmJoint(&s.joints[i])
	}
	for i := range s.contacts {
		s.warmContact(&s.contacts[i])
	}

	for it := 0; it < s.params.Iterations; it++ {
		for i := range s.joints {
			s.solveJoint(&s.joints[i])
		}
		for i := range s.contacts {
			s.solveFriction(&s.contacts[i])
			s.solveNormal(&s.contacts[i])
		}
	}

	for i := range s.contacts {
		r := &s.contacts[i]
		r.c.NormalImpulse = r.normalImpulse
		r.c.TangentImpulse = r.tangentImpulse
	}
	for i := range s.joints {
		r := &s.joints[i]
		r.j.LinearImpulse = r.linear
		r.j.AngularImpulse = r.angular
	}
	return st
}

// resolve returns nil for the world anchor and for static bodies, which
// both act as immovable.
func resolve[S scalar.Float, V, A, R, I any](bodies Bodies[S, V, A, R, I], h body.Handle) (*body.Body[S, V, A, R, I], bool) {
	if h.IsZero() {
		return nil, true
	}
	b, ok := bodies.Get(h)
	if !ok {
		return nil, false
	}
	if b.IsStatic() {
		return nil, true
	}
	return b, true
}

func (s *Solver[S, V, A, R, I]) velocity(b *body.Body[S, V, A, R, I], r V) V {
	if b == nil {
		var zero V
		return zero
	}
	return s.sp.Add(b.LinearVelocity, s.sp.Perp(b.AngularVelocity, r))
}

// applyImpulse adds p at lever arm r to b.
func (s *Solver[S, V, A, R, I]) applyImpulse(b *body.Body[S, V, A, R, I], r, p V) {
	if b == nil {
		return
	}
	sp := s.sp
	b.LinearVelocity = sp.Add(b.LinearVelocity, sp.Scale(p, b.InvMass()))
	b.AngularVelocity = sp.AngAdd(b.AngularVelocity, sp.MulInertia(b.InvInertia(), sp.Cross(r, p)))
}

func (s *Solver[S, V, A, R, I]) applyAngular(b *body.Body[S, V, A, R, I], l A) {
	if b == nil {
		return
	}
	b.AngularVelocity = s.sp.AngAdd(b.AngularVelocity, s.sp.MulInertia(b.InvInertia(), l))
}

// inverseMass returns the inverse effective mass along unit direction d
// with lever arm r.
func (s *Solver[S, V, A, R, I]) inverseMass(b *body.Body[S, V, A, R, I], r, d V) S {
	if b == nil {
		return 0
	}
	sp := s.sp
	rd := sp.Cross(r, d)
	return b.InvMass() + sp.AngDot(rd, sp.MulInertia(b.InvInertia(), rd))
}

func (s *Solver[S, V, A, R, I]) inverseAngularMass(b *body.Body[S, V, A, R, I], e A) S {
	if b == nil {
		return 0
	}
	return s.sp.AngDot(e, s.sp.MulInertia(b.InvInertia(), e))
}

func effective[S scalar.Float](k S) (S, bool) {
	if !(k > scalar.Epsilon[S]()) || !scalar.IsFinite(k) {
		return 0, false
	}
	return 1 / k, true
}
