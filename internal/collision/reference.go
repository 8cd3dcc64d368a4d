package collision

import (
	"slices"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
)

// Reference is a small exact detector for balls, boxes and planes.
//
// The broad phase is sort-and-sweep on bounding spheres along axis 0;
// planes are tested against every bounded body. The narrow phase handles
// every pair of balls, boxes and planes except plane-plane.
type Reference[S scalar.Float, V, A, R, I any] struct {
	sp space.Space[S, V, A, R, I]
	// Margin reports pairs up to this separation as speculative contacts.
	Margin S
}

func NewReference[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I]) *Reference[S, V, A, R, I] {
	return &Reference[S, V, A, R, I]{sp: sp}
}

type interval[S scalar.Float, V, A, R, I any] struct {
	lo, hi S
	b      *body.Body[S, V, A, R, I]
}

func (d *Reference[S, V, A, R, I]) Manifolds(bodies []*body.Body[S, V, A, R, I]) []Manifold[S, V] {
	sp := d.sp
	var (
		spans  []interval[S, V, A, R, I]
		planes []*body.Body[S, V, A, R, I]
		out    []Manifold[S, V]
	)
	for _, b := range bodies {
		if b.Shape().Kind() == shape.KindPlane {
			planes = append(planes, b)
			continue
		}
		r := b.Shape().BoundingRadius() + d.Margin
		x := sp.Elem(b.Position, 0)
		spans = append(spans, interval[S, V, A, R, I]{lo: x - r, hi: x + r, b: b})
	}
	slices.SortStableFunc(spans, func(x, y interval[S, V, A, R, I]) int {
		switch {
		case x.lo < y.lo:
			return -1
		case x.lo > y.lo:
			return 1
		}
		return int(x.b.Handle().Index) - int(y.b.Handle().Index)
	})

	for i := range spans {
		a := spans[i]
		for j := i + 1; j < len(spans) && spans[j].lo <= a.hi; j++ {
			b := spans[j]
			if a.b.IsStatic() && b.b.IsStatic() {
				continue
			}
			reach := a.b.Shape().BoundingRadius() + b.b.Shape().BoundingRadius() + d.Margin
			if space.LengthSqr[S, V](sp, sp.Sub(a.b.Position, b.b.Position)) > reach*reach {
				continue
			}
			if m, ok := d.collide(a.b, b.b); ok {
				out = append(out, m)
			}
		}
	}
	for _, p := range planes {
		for _, b := range spans {
			if p.IsStatic() && b.b.IsStatic() {
				continue
			}
			if m, ok := d.collide(p, b.b); ok {
				out = append(out, m)
			}
		}
	}
	sortManifolds(out)
	return out
}

// collide runs the narrow phase and orders the result by slot index.
func (d *Reference[S, V, A, R, I]) collide(x, y *body.Body[S, V, A, R, I]) (Manifold[S, V], bool) {
	pts := d.narrow(x, y)
	if len(pts) == 0 {
		return Manifold[S, V]{}, false
	}
	m := Manifold[S, V]{A: x.Handle(), B: y.Handle(), Points: pts}
	if y.Handle().Less(x.Handle()) {
		m.A, m.B = m.B, m.A
		for i := range m.Points {
			m.Points[i].Normal = d.sp.Scale(m.Points[i].Normal, -1)
		}
	}
	return m, true
}

// narrow returns contact points with normals from x towards y.
func (d *Reference[S, V, A, R, I]) narrow(x, y *body.Body[S, V, A, R, I]) []Point[S, V] {
	switch xs := x.Shape().(type) {
	case *shape.Ball[S, V]:
		switch ys := y.Shape().(type) {
		case *shape.Ball[S, V]:
			return d.ballBall(x.Position, xs.Radius, y.Position, ys.Radius)
		case *shape.Box[S, V]:
			return d.flip(d.boxBall(y, ys, x.Position, xs.Radius))
		case *shape.Plane[S, V]:
			return d.flip(d.planeBall(y, ys, x.Position, xs.Radius))
		}
	case *shape.Box[S, V]:
		switch ys := y.Shape().(type) {
		case *shape.Ball[S, V]:
			return d.boxBall(x, xs, y.Position, ys.Radius)
		case *shape.Box[S, V]:
			return d.boxBox(x, xs, y, ys)
		case *shape.Plane[S, V]:
			return d.flip(d.planeBox(y, ys, x, xs))
		}
	case *shape.Plane[S, V]:
		switch ys := y.Shape().(type) {
		case *shape.Ball[S, V]:
			return d.planeBall(x, xs, y.Position, ys.Radius)
		case *shape.Box[S, V]:
			return d.planeBox(x, xs, y, ys)
		}
	}
	return nil
}

func (d *Reference[S, V, A, R, I]) flip(pts []Point[S, V]) []Point[S, V] {
	for i := range pts {
		pts[i].Normal = d.sp.Scale(pts[i].Normal, -1)
	}
	return pts
}

func (d *Reference[S, V, A, R, I]) ballBall(pa V, ra S, pb V, rb S) []Point[S, V] {
	sp := d.sp
	n, dist := space.Normalize[S, V](sp, sp.Sub(pb, pa))
	depth := ra + rb - dist
	if depth < -d.Margin {
		return nil
	}
	if dist == 0 {
		n = sp.Axis(sp.Dim() - 1)
	}
	p := sp.Add(pa, sp.Scale(n, ra-depth/2))
	return []Point[S, V]{{Point: p, Normal: n, Depth: depth}}
}

func (d *Reference[S, V, A, R, I]) planeBall(p *body.Body[S, V, A, R, I], pl *shape.Plane[S, V], c V, r S) []Point[S, V] {
	sp := d.sp
	n := sp.Rotate(p.Rotation, pl.Normal)
	s := sp.Dot(n, sp.Sub(c, p.Position))
	depth := r - s
	if depth < -d.Margin {
		return nil
	}
	pt := sp.Sub(c, sp.Scale(n, r-depth/2))
	return []Point[S, V]{{Point: pt, Normal: n, Depth: depth}}
}

func (d *Reference[S, V, A, R, I]) planeBox(p *body.Body[S, V, A, R, I], pl *shape.Plane[S, V], b *body.Body[S, V, A, R, I], bx *shape.Box[S, V]) []Point[S, V] {
	sp := d.sp
	n := sp.Rotate(p.Rotation, pl.Normal)
	var pts []Point[S, V]
	for k, corner := range bx.Corners(sp) {
		w := b.WorldPoint(sp, corner)
		depth := -sp.Dot(n, sp.Sub(w, p.Position))
		if depth < -d.Margin {
			continue
		}
		pts = append(pts, Point[S, V]{
			Point:   sp.Add(w, sp.Scale(n, depth/2)),
			Normal:  n,
			Depth:   depth,
			Feature: k,
		})
	}
	return pts
}

func (d *Reference[S, V, A, R, I]) boxBall(b *body.Body[S, V, A, R, I], bx *shape.Box[S, V], c V, r S) []Point[S, V] {
	sp := d.sp
	local := b.LocalPoint(sp, c)

	var closest V
	inside := true
	for i := 0; i < sp.Dim(); i++ {
		h := scalar.Abs(sp.Elem(bx.Half, i))
		ci := sp.Elem(local, i)
		if ci < -h || ci > h {
			inside = false
		}
		closest = sp.Add(closest, sp.Scale(sp.Axis(i), scalar.Clamp(ci, -h, h)))
	}

	if inside {
		// Push out through the nearest face.
		best, axis := scalar.Inf[S](), 0
		for i := 0; i < sp.Dim(); i++ {
			gap := scalar.Abs(sp.Elem(bx.Half, i)) - scalar.Abs(sp.Elem(local, i))
			if gap < best {
				best, axis = gap, i
			}
		}
		sign := S(1)
		if sp.Elem(local, axis) < 0 {
			sign = -1
		}
		n := sp.Rotate(b.Rotation, sp.Scale(sp.Axis(axis), sign))
		return []Point[S, V]{{Point: c, Normal: n, Depth: r + best}}
	}

	delta := sp.Sub(local, closest)
	nl, dist := space.Normalize[S, V](sp, delta)
	depth := r - dist
	if depth < -d.Margin {
		return nil
	}
	n := sp.Rotate(b.Rotation, nl)
	return []Point[S, V]{{Point: b.WorldPoint(sp, closest), Normal: n, Depth: depth}}
}
