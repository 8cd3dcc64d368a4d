package solver

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/scalar"
)

type jointRow[S scalar.Float, V, A, R, I any] struct {
	j      *constraint.Joint[S, V, A, R]
	a, b   *body.Body[S, V, A, R, I]
	ra, rb V

	// Per-axis rows: linear axes first, then angular axes for fixed joints.
	linMass  [3]S
	linBias  [3]S
	linOK    [3]bool
	angMass  [3]S
	angBias  [3]S
	angOK    [3]bool
	angular  A
	linear   V
	rotation bool
}

// anchor returns the world anchor of one side of a joint and its lever arm
// (zero for immovable sides). It reports false when h no longer resolves.
func (s *Solver[S, V, A, R, I]) anchor(h body.Handle, b *body.Body[S, V, A, R, I], local V, bodies Bodies[S, V, A, R, I]) (world, arm V, rot R, ok bool) {
	sp := s.sp
	if h.IsZero() {
		return local, arm, sp.Identity(), true
	}
	src := b
	if src == nil {
		if src, ok = bodies.Get(h); !ok || src == nil {
			return local, arm, sp.Identity(), false
		}
	}
	world = src.WorldPoint(sp, local)
	if b != nil {
		arm = sp.Sub(world, b.Position)
	}
	return world, arm, src.Rotation, true
}

func (s *Solver[S, V, A, R, I]) prepareJoint(j *constraint.Joint[S, V, A, R], bodies Bodies[S, V, A, R, I], dt S) (jointRow[S, V, A, R, I], bool) {
	sp := s.sp
	row := jointRow[S, V, A, R, I]{j: j, rotation: j.Kind == constraint.Fixed}

	a, okA := resolve(bodies, j.A)
	b, okB := resolve(bodies, j.B)
	if !okA || !okB || (a == nil && b == nil) {
		return row, false
	}
	row.a, row.b = a, b

	pa, ra, qa, okA := s.anchor(j.A, a, j.LocalA, bodies)
	pb, rb, qb, okB := s.anchor(j.B, b, j.LocalB, bodies)
	if !okA || !okB {
		return row, false
	}
	row.ra, row.rb = ra, rb
	drift := sp.Sub(pb, pa)

	beta := s.params.Baumgarte / dt
	usable := false
	for k := 0; k < sp.Dim(); k++ {
		e := sp.Axis(k)
		row.linMass[k], row.linOK[k] = effective(s.inverseMass(a, ra, e) + s.inverseMass(b, rb, e))
		row.linBias[k] = beta * sp.Dot(drift, e)
		usable = usable || row.linOK[k]
	}

	if row.rotation {
		// Rotation error of B relative to where the joint holds it.
		target := sp.Compose(qa, j.RelRotation)
		errVec := sp.Log(sp.Compose(qb, sp.Inverse(target)))
		for k := 0; k < sp.AngDim(); k++ {
			e := sp.AngAxis(k)
			row.angMass[k], row.angOK[k] = effective(s.inverseAngularMass(a, e) + s.inverseAngularMass(b, e))
			row.angBias[k] = beta * sp.AngDot(errVec, e)
			usable = usable || row.angOK[k]
		}
	}
	if !usable {
		return row, false
	}

	row.linear = j.LinearImpulse
	if row.rotation {
		row.angular = j.AngularImpulse
	} else {
		var zero A
		row.angular = zero
	}
	return row, true
}

func (s *Solver[S, V, A, R, I]) warmJoint(r *jointRow[S, V, A, R, I]) {
	sp := s.sp
	s.applyImpulse(r.a, r.ra, sp.Scale(r.linear, -1))
	s.applyImpulse(r.b, r.rb, r.linear)
	if r.rotation {
		s.applyAngular(r.a, sp.AngScale(r.angular, -1))
		s.applyAngular(r.b, r.angular)
	}
}

func (s *Solver[S, V, A, R, I]) solveJoint(r *jointRow[S, V, A, R, I]) {
	sp := s.sp
	for k := 0; k < sp.Dim(); k++ {
		if !r.linOK[k] {
			continue
		}
		e := sp.Axis(k)
		dv := sp.Sub(s.velocity(r.b, r.rb), s.velocity(r.a, r.ra))
		lambda := -r.linMass[k] * (sp.Dot(dv, e) + r.linBias[k])
		p := sp.Scale(e, lambda)
		r.linear = sp.Add(r.linear, p)
		s.applyImpulse(r.a, r.ra, sp.Scale(p, -1))
		s.applyImpulse(r.b, r.rb, p)
	}
	if !r.rotation {
		return
	}
	for k := 0; k < sp.AngDim(); k++ {
		if !r.angOK[k] {
			continue
		}
		e := sp.AngAxis(k)
		var wa, wb A
		if r.a != nil {
			wa = r.a.AngularVelocity
		}
		if r.b != nil {
			wb = r.b.AngularVelocity
		}
		rel := sp.AngAdd(wb, sp.AngScale(wa, -1))
		lambda := -r.angMass[k] * (sp.AngDot(rel, e) + r.angBias[k])
		l := sp.AngScale(e, lambda)
		r.angular = sp.AngAdd(r.angular, l)
		s.applyAngular(r.a, sp.AngScale(l, -1))
		s.applyAngular(r.b, l)
	}
}
