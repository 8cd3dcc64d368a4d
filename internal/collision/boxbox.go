package collision

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
)

const (
	// cornerTolerance widens the clipping boxes so edges lying on a
	// shared face still count.
	cornerTolerance = 1e-4
	// edgeBias is added to edge-axis overlaps so face axes win ties.
	edgeBias = 1e-3
	// parallelCross is the shortest edge cross product used as an axis.
	parallelCross = 1e-3
	tieTolerance  = 1e-6
)

// boxFrame holds the world axes and absolute half extents of a box body.
type boxFrame[S scalar.Float, V any] struct {
	centre V
	axes   []V
	half   []S
}

func (d *Reference[S, V, A, R, I]) frame(b *body.Body[S, V, A, R, I], bx *shape.Box[S, V]) boxFrame[S, V] {
	sp := d.sp
	f := boxFrame[S, V]{centre: b.Position}
	for i := 0; i < sp.Dim(); i++ {
		f.axes = append(f.axes, sp.Rotate(b.Rotation, sp.Axis(i)))
		f.half = append(f.half, scalar.Abs(sp.Elem(bx.Half, i)))
	}
	return f
}

// extent is the half width of f projected on the unit axis l.
func (d *Reference[S, V, A, R, I]) extent(f boxFrame[S, V], l V) S {
	var r S
	for i, a := range f.axes {
		r += f.half[i] * scalar.Abs(d.sp.Dot(a, l))
	}
	return r
}

// support returns the point of f furthest along dir. Axes orthogonal to
// dir contribute the face centre rather than a corner.
func (d *Reference[S, V, A, R, I]) support(f boxFrame[S, V], dir V) V {
	sp := d.sp
	p := f.centre
	for i, a := range f.axes {
		switch s := sp.Dot(a, dir); {
		case s > tieTolerance:
			p = sp.Add(p, sp.Scale(a, f.half[i]))
		case s < -tieTolerance:
			p = sp.Sub(p, sp.Scale(a, f.half[i]))
		}
	}
	return p
}

// clip returns the part of the segment p-q inside the box f of body b,
// widened by tol.
func (d *Reference[S, V, A, R, I]) clip(b *body.Body[S, V, A, R, I], f boxFrame[S, V], p, q V, tol S) (V, V, bool) {
	sp := d.sp
	lp, lq := b.LocalPoint(sp, p), b.LocalPoint(sp, q)
	t0, t1 := S(0), S(1)
	for i, h := range f.half {
		a := sp.Elem(lp, i)
		dir := sp.Elem(lq, i) - a
		lo, hi := -h-tol, h+tol
		if scalar.Abs(dir) <= tieTolerance {
			if a < lo || a > hi {
				return p, q, false
			}
			continue
		}
		ta, tb := (lo-a)/dir, (hi-a)/dir
		if ta > tb {
			ta, tb = tb, ta
		}
		t0, t1 = scalar.Max(t0, ta), scalar.Min(t1, tb)
		if t0 > t1 {
			return p, q, false
		}
	}
	return space.Lerp[S, V](sp, p, q, t0), space.Lerp[S, V](sp, p, q, t1), true
}

// edges lists corner index pairs that differ in exactly one axis.
func edges(dim int) [][2]int {
	var out [][2]int
	for i := 0; i < 1<<dim; i++ {
		for k := 0; k < dim; k++ {
			if i&(1<<k) == 0 {
				out = append(out, [2]int{i, i | 1<<k})
			}
		}
	}
	return out
}

// boxBox tests two boxes on their face normals and, in 3D, the cross
// products of their edges. The manifold holds the pieces of each box's
// edges that lie inside the other, which covers contained corners and
// edge crossings. Overlaps with neither yield the midpoint of the two
// support points.
func (d *Reference[S, V, A, R, I]) boxBox(x *body.Body[S, V, A, R, I], xb *shape.Box[S, V], y *body.Body[S, V, A, R, I], yb *shape.Box[S, V]) []Point[S, V] {
	sp := d.sp
	fx, fy := d.frame(x, xb), d.frame(y, yb)
	delta := sp.Sub(y.Position, x.Position)

	axes := append(append([]V(nil), fx.axes...), fy.axes...)
	faces := len(axes)
	if sp.Dim() == 3 {
		for _, a := range fx.axes {
			for _, b := range fy.axes {
				c := sp.Vector(sp.AngFloats(sp.Cross(a, b))...)
				if n, l := space.Normalize[S, V](sp, c); l > parallelCross {
					axes = append(axes, n)
				}
			}
		}
	}

	var n V
	depth, best := scalar.Inf[S](), scalar.Inf[S]()
	for k, l := range axes {
		dist := sp.Dot(delta, l)
		overlap := d.extent(fx, l) + d.extent(fy, l) - scalar.Abs(dist)
		if overlap < -d.Margin {
			return nil
		}
		score := overlap
		if k >= faces {
			score += edgeBias
		}
		if score < best {
			best, depth, n = score, overlap, l
			if dist < 0 {
				n = sp.Scale(l, -1)
			}
		}
	}

	tol := d.Margin + cornerTolerance
	topX := sp.Dot(n, x.Position) + d.extent(fx, n)
	bottomY := sp.Dot(n, y.Position) - d.extent(fy, n)
	es := edges(sp.Dim())

	var pts []Point[S, V]
	add := func(w V, dep S, sign S, feature int) {
		if dep < -d.Margin {
			return
		}
		p := sp.Add(w, sp.Scale(n, sign*dep/2))
		if d.duplicate(pts, p, 4*tol) {
			return
		}
		pts = append(pts, Point[S, V]{Point: p, Normal: n, Depth: dep, Feature: feature})
	}
	cy := yb.Corners(sp)
	for k, e := range es {
		p, q, ok := d.clip(x, fx, y.WorldPoint(sp, cy[e[0]]), y.WorldPoint(sp, cy[e[1]]), tol)
		if !ok {
			continue
		}
		add(p, topX-sp.Dot(n, p), 1, 2*k)
		add(q, topX-sp.Dot(n, q), 1, 2*k+1)
	}
	cx := xb.Corners(sp)
	for k, e := range es {
		p, q, ok := d.clip(y, fy, x.WorldPoint(sp, cx[e[0]]), x.WorldPoint(sp, cx[e[1]]), tol)
		if !ok {
			continue
		}
		add(p, sp.Dot(n, p)-bottomY, -1, 2*len(es)+2*k)
		add(q, sp.Dot(n, q)-bottomY, -1, 2*len(es)+2*k+1)
	}
	if len(pts) == 0 {
		mid := space.Lerp[S, V](sp, d.support(fx, n), d.support(fy, sp.Scale(n, -1)), 0.5)
		pts = append(pts, Point[S, V]{Point: mid, Normal: n, Depth: depth, Feature: 4 * len(es)})
	}
	return pts
}

func (d *Reference[S, V, A, R, I]) duplicate(pts []Point[S, V], p V, tol S) bool {
	for _, q := range pts {
		if space.LengthSqr[S, V](d.sp, d.sp.Sub(q.Point, p)) <= tol*tol {
			return true
		}
	}
	return false
}
