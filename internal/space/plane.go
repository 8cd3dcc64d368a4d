package space

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane64 is the 2D space in double precision. Orientations are unit
// complex numbers stored as (cos θ, sin θ).
type Plane64 struct{}

var _ Space[float64, mgl64.Vec2, float64, mgl64.Vec2, float64] = Plane64{}

func (Plane64) Dim() int    { return 2 }
func (Plane64) AngDim() int { return 1 }

func (Plane64) Axis(i int) mgl64.Vec2 {
	var v mgl64.Vec2
	v[i] = 1
	return v
}

func (Plane64) Add(a, b mgl64.Vec2) mgl64.Vec2               { return a.Add(b) }
func (Plane64) Sub(a, b mgl64.Vec2) mgl64.Vec2               { return a.Sub(b) }
func (Plane64) Scale(v mgl64.Vec2, s float64) mgl64.Vec2     { return v.Mul(s) }
func (Plane64) Dot(a, b mgl64.Vec2) float64                  { return a.Dot(b) }
func (Plane64) Elem(v mgl64.Vec2, i int) float64             { return v[i] }
func (Plane64) Floats(v mgl64.Vec2) []float64                { return []float64{v[0], v[1]} }
func (Plane64) AngAxis(int) float64                          { return 1 }
func (Plane64) AngAdd(a, b float64) float64                  { return a + b }
func (Plane64) AngScale(a, s float64) float64                { return a * s }
func (Plane64) AngDot(a, b float64) float64                  { return a * b }
func (Plane64) AngFloats(a float64) []float64                { return []float64{a} }
func (Plane64) Cross(r, v mgl64.Vec2) float64                { return r[0]*v[1] - r[1]*v[0] }
func (Plane64) Perp(w float64, r mgl64.Vec2) mgl64.Vec2      { return mgl64.Vec2{-w * r[1], w * r[0]} }
func (Plane64) Identity() mgl64.Vec2                         { return mgl64.Vec2{1, 0} }
func (Plane64) Inverse(q mgl64.Vec2) mgl64.Vec2              { return mgl64.Vec2{q[0], -q[1]} }
func (Plane64) Log(q mgl64.Vec2) float64                     { return math.Atan2(q[1], q[0]) }
func (Plane64) RotationFloats(q mgl64.Vec2) []float64        { return []float64{math.Atan2(q[1], q[0])} }
func (Plane64) ZeroInertia() float64                         { return 0 }
func (Plane64) WorldInertia(_ mgl64.Vec2, i float64) float64 { return i }
func (Plane64) MulInertia(i, a float64) float64              { return i * a }

func (Plane64) Vector(xs ...float64) mgl64.Vec2 {
	var v mgl64.Vec2
	for i := 0; i < len(xs) && i < 2; i++ {
		v[i] = xs[i]
	}
	return v
}

func (Plane64) AngVector(xs ...float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[0]
}

func (Plane64) Rotate(q, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{q[0]*v[0] - q[1]*v[1], q[1]*v[0] + q[0]*v[1]}
}

func (Plane64) Unrotate(q, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{q[0]*v[0] + q[1]*v[1], -q[1]*v[0] + q[0]*v[1]}
}

func (Plane64) Compose(a, b mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{a[0]*b[0] - a[1]*b[1], a[1]*b[0] + a[0]*b[1]}
}

func (p Plane64) Integrate(q mgl64.Vec2, w, dt float64) mgl64.Vec2 {
	s, c := math.Sincos(w * dt)
	r := p.Compose(mgl64.Vec2{c, s}, q)
	if n := r.Len(); n > 0 {
		r = r.Mul(1 / n)
	}
	return r
}

func (Plane64) Rotation(xs ...float64) mgl64.Vec2 {
	if len(xs) == 0 {
		return mgl64.Vec2{1, 0}
	}
	s, c := math.Sincos(xs[0])
	return mgl64.Vec2{c, s}
}

func (Plane64) InvertInertia(i float64) float64 {
	if i == 0 {
		return 0
	}
	return 1 / i
}

// BallInertia is the moment of a solid disk.
func (Plane64) BallInertia(mass, radius float64) float64 {
	return 0.5 * mass * radius * radius
}

// BoxInertia is the moment of a solid rectangle with half extents half.
func (Plane64) BoxInertia(mass float64, half mgl64.Vec2) float64 {
	return mass * (half[0]*half[0] + half[1]*half[1]) / 3
}

func (Plane64) Tangents(n mgl64.Vec2) ([2]mgl64.Vec2, int) {
	return [2]mgl64.Vec2{{-n[1], n[0]}}, 1
}
