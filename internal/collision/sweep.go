package collision

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
)

func (d *Reference[S, V, A, R, I]) Sweep(bodies []*body.Body[S, V, A, R, I], mover body.Handle, from, to V, radius S) (Hit[S, V], bool) {
	return d.cast(bodies, mover, from, d.sp.Sub(to, from), radius)
}

// RayCast returns the first body hit by the ray origin + t·dir for t in
// [0, maxLen], with dir normalised. Bodies containing the origin are
// ignored. The hit's TOI is the distance along the ray.
func (d *Reference[S, V, A, R, I]) RayCast(bodies []*body.Body[S, V, A, R, I], origin, dir V, maxLen S) (Hit[S, V], bool) {
	sp := d.sp
	u, n := space.Normalize[S, V](sp, dir)
	if n == 0 || !(maxLen > 0) {
		return Hit[S, V]{}, false
	}
	hit, ok := d.cast(bodies, body.Handle{}, origin, sp.Scale(u, maxLen), 0)
	if ok {
		hit.TOI *= maxLen
	}
	return hit, ok
}

func (d *Reference[S, V, A, R, I]) cast(bodies []*body.Body[S, V, A, R, I], skip body.Handle, from, delta V, radius S) (Hit[S, V], bool) {
	sp := d.sp
	best := Hit[S, V]{TOI: 2}
	found := false
	for _, b := range bodies {
		if !skip.IsZero() && b.Handle() == skip {
			continue
		}
		var (
			t  S
			n  V
			ok bool
		)
		switch s := b.Shape().(type) {
		case *shape.Ball[S, V]:
			t, n, ok = d.castBall(b.Position, s.Radius+radius, from, delta)
		case *shape.Plane[S, V]:
			t, n, ok = d.castPlane(b, s, radius, from, delta)
		case *shape.Box[S, V]:
			t, n, ok = d.castBox(b, s, radius, from, delta)
		}
		if ok && t < best.TOI {
			centre := sp.Add(from, sp.Scale(delta, t))
			best = Hit[S, V]{
				Body:   b.Handle(),
				TOI:    t,
				Normal: n,
				Point:  sp.Sub(centre, sp.Scale(n, radius)),
			}
			found = true
		}
	}
	return best, found
}

func (d *Reference[S, V, A, R, I]) castBall(c V, r S, from, delta V) (S, V, bool) {
	sp := d.sp
	var zero V
	m := sp.Sub(from, c)
	cc := sp.Dot(m, m) - r*r
	if cc <= 0 {
		return 0, zero, false
	}
	a := sp.Dot(delta, delta)
	b := sp.Dot(m, delta)
	if a == 0 || b >= 0 {
		return 0, zero, false
	}
	disc := b*b - a*cc
	if disc < 0 {
		return 0, zero, false
	}
	t := (-b - scalar.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return 0, zero, false
	}
	n, _ := space.Normalize[S, V](sp, sp.Add(m, sp.Scale(delta, t)))
	return t, n, true
}

func (d *Reference[S, V, A, R, I]) castPlane(p *body.Body[S, V, A, R, I], pl *shape.Plane[S, V], r S, from, delta V) (S, V, bool) {
	sp := d.sp
	var zero V
	n := sp.Rotate(p.Rotation, pl.Normal)
	s0 := sp.Dot(n, sp.Sub(from, p.Position)) - r
	if s0 < 0 {
		return 0, zero, false
	}
	s1 := s0 + sp.Dot(n, delta)
	if s1 >= 0 {
		return 0, zero, false
	}
	return s0 / (s0 - s1), n, true
}

// castBox is a slab test against the box inflated by r. Corners are
// treated as square, so the sweep may report contact slightly early
// near edges.
func (d *Reference[S, V, A, R, I]) castBox(b *body.Body[S, V, A, R, I], bx *shape.Box[S, V], r S, from, delta V) (S, V, bool) {
	sp := d.sp
	var zero V
	f := b.LocalPoint(sp, from)
	dl := sp.Unrotate(b.Rotation, delta)

	inside := true
	for i := 0; i < sp.Dim(); i++ {
		if scalar.Abs(sp.Elem(f, i)) > scalar.Abs(sp.Elem(bx.Half, i))+r {
			inside = false
			break
		}
	}
	if inside {
		return 0, zero, false
	}

	tmin, tmax := S(0), S(1)
	axis, sign := -1, S(0)
	for i := 0; i < sp.Dim(); i++ {
		h := scalar.Abs(sp.Elem(bx.Half, i)) + r
		fi, di := sp.Elem(f, i), sp.Elem(dl, i)
		if scalar.Abs(di) <= scalar.Epsilon[S]() {
			if fi < -h || fi > h {
				return 0, zero, false
			}
			continue
		}
		t1, t2 := (-h-fi)/di, (h-fi)/di
		s := S(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tmin || axis < 0 && t1 >= tmin {
			tmin, axis, sign = t1, i, s
		}
		tmax = scalar.Min(tmax, t2)
		if tmin > tmax {
			return 0, zero, false
		}
	}
	if axis < 0 {
		return 0, zero, false
	}
	n := sp.Rotate(b.Rotation, sp.Scale(sp.Axis(axis), sign))
	return tmin, n, true
}
