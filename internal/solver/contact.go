package solver

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

type contactRow[S scalar.Float, V, A, R, I any] struct {
	c      *constraint.Contact[S, V]
	a, b   *body.Body[S, V, A, R, I]
	ra, rb V
	n      V

	tangents [2]V
	nt       int

	normalMass  S
	tangentMass [2]S
	target      S
	friction    S

	normalImpulse  S
	tangentImpulse [2]S
}

// Restitution and friction of a pair: the larger restitution wins and
// friction is the geometric mean.
func (s *Solver[S, V, A, R, I]) material(a, b *body.Body[S, V, A, R, I]) (e, mu S) {
	ea, fa := s.params.Restitution, s.params.Friction
	eb, fb := ea, fa
	if a != nil && a.Material != nil {
		ea, fa = a.Material.Restitution, a.Material.Friction
	}
	if b != nil && b.Material != nil {
		eb, fb = b.Material.Restitution, b.Material.Friction
	}
	return scalar.Max(ea, eb), scalar.Sqrt(scalar.Max(fa*fb, 0))
}

func (s *Solver[S, V, A, R, I]) prepareContact(c *constraint.Contact[S, V], bodies Bodies[S, V, A, R, I], dt S) (contactRow[S, V, A, R, I], bool) {
	sp := s.sp
	row := contactRow[S, V, A, R, I]{c: c}

	a, okA := resolve(bodies, c.A)
	b, okB := resolve(bodies, c.B)
	if !okA || !okB || (a == nil && b == nil) {
		return row, false
	}
	n, l := space.Normalize[S, V](sp, c.Normal)
	if l*l < scalar.Epsilon[S]() {
		return row, false
	}
	row.a, row.b, row.n = a, b, n

	if a != nil {
		row.ra = sp.Sub(c.Point, a.Position)
	}
	if b != nil {
		row.rb = sp.Sub(c.Point, b.Position)
	}

	mass, ok := effective(s.inverseMass(a, row.ra, n) + s.inverseMass(b, row.rb, n))
	if !ok {
		return row, false
	}
	row.normalMass = mass

	row.tangents, row.nt = sp.Tangents(n)
	for i := 0; i < row.nt; i++ {
		t := row.tangents[i]
		row.tangentMass[i], _ = effective(s.inverseMass(a, row.ra, t) + s.inverseMass(b, row.rb, t))
	}

	e, mu := s.material(a, b)
	row.friction = mu

	vn0 := sp.Dot(s.relative(&row), n)
	if c.Depth < 0 {
		row.target = c.Depth / dt
	} else {
		row.target = s.params.Baumgarte * scalar.Max(c.Depth-s.params.Slop, 0) / dt
	}
	// Elastic pairs bounce at any approach speed.
	if e > 0 && (vn0 < -s.params.RestitutionThreshold || (e >= 1 && vn0 < 0)) {
		row.target = scalar.Max(row.target, -e*vn0)
	}

	row.normalImpulse = c.NormalImpulse
	row.tangentImpulse = c.TangentImpulse
	for i := row.nt; i < 2; i++ {
		row.tangentImpulse[i] = 0
	}
	return row, true
}

// relative returns the velocity of B's contact point relative to A's.
func (s *Solver[S, V, A, R, I]) relative(r *contactRow[S, V, A, R, I]) V {
	return s.sp.Sub(s.velocity(r.b, r.rb), s.velocity(r.a, r.ra))
}

func (s *Solver[S, V, A, R, I]) push(r *contactRow[S, V, A, R, I], p V) {
	s.applyImpulse(r.a, r.ra, s.sp.Scale(p, -1))
	s.applyImpulse(r.b, r.rb, p)
}

func (s *Solver[S, V, A, R, I]) warmContact(r *contactRow[S, V, A, R, I]) {
	sp := s.sp
	p := sp.Scale(r.n, r.normalImpulse)
	for i := 0; i < r.nt; i++ {
		p = sp.Add(p, sp.Scale(r.tangents[i], r.tangentImpulse[i]))
	}
	s.push(r, p)
}

func (s *Solver[S, V, A, R, I]) solveNormal(r *contactRow[S, V, A, R, I]) {
	sp := s.sp
	vn := sp.Dot(s.relative(r), r.n)
	lambda := r.normalMass * (r.target - vn)
	old := r.normalImpulse
	r.normalImpulse = scalar.Max(old+lambda, 0)
	s.push(r, sp.Scale(r.n, r.normalImpulse-old))
}

// solveFriction updates all tangent rows together and clamps the
// accumulated tangent impulse to the friction disk of radius μ·λn.
func (s *Solver[S, V, A, R, I]) solveFriction(r *contactRow[S, V, A, R, I]) {
	if r.nt == 0 {
		return
	}
	sp := s.sp
	dv := s.relative(r)
	var next [2]S
	for i := 0; i < r.nt; i++ {
		vt := sp.Dot(dv, r.tangents[i])
		next[i] = r.tangentImpulse[i] - r.tangentMass[i]*vt
	}

	limit := r.friction * r.normalImpulse
	mag := scalar.Sqrt(next[0]*next[0] + next[1]*next[1])
	if mag > limit {
		f := limit / mag
		next[0] *= f
		next[1] *= f
	}

	var p V
	for i := 0; i < r.nt; i++ {
		p = sp.Add(p, sp.Scale(r.tangents[i], next[i]-r.tangentImpulse[i]))
	}
	r.tangentImpulse = next
	s.push(r, p)
}
