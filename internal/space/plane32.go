package space

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane32 is the 2D space in single precision.
type Plane32 struct{}

var _ Space[float32, mgl32.Vec2, float32, mgl32.Vec2, float32] = Plane32{}

func (Plane32) Dim() int    { return 2 }
func (Plane32) AngDim() int { return 1 }

func (Plane32) Axis(i int) mgl32.Vec2 {
	var v mgl32.Vec2
	v[i] = 1
	return v
}

func (Plane32) Add(a, b mgl32.Vec2) mgl32.Vec2               { return a.Add(b) }
func (Plane32) Sub(a, b mgl32.Vec2) mgl32.Vec2               { return a.Sub(b) }
func (Plane32) Scale(v mgl32.Vec2, s float32) mgl32.Vec2     { return v.Mul(s) }
func (Plane32) Dot(a, b mgl32.Vec2) float32                  { return a.Dot(b) }
func (Plane32) Elem(v mgl32.Vec2, i int) float32             { return v[i] }
func (Plane32) Floats(v mgl32.Vec2) []float64                { return []float64{float64(v[0]), float64(v[1])} }
func (Plane32) AngAxis(int) float32                          { return 1 }
func (Plane32) AngAdd(a, b float32) float32                  { return a + b }
func (Plane32) AngScale(a, s float32) float32                { return a * s }
func (Plane32) AngDot(a, b float32) float32                  { return a * b }
func (Plane32) AngFloats(a float32) []float64                { return []float64{float64(a)} }
func (Plane32) Cross(r, v mgl32.Vec2) float32                { return r[0]*v[1] - r[1]*v[0] }
func (Plane32) Perp(w float32, r mgl32.Vec2) mgl32.Vec2      { return mgl32.Vec2{-w * r[1], w * r[0]} }
func (Plane32) Identity() mgl32.Vec2                         { return mgl32.Vec2{1, 0} }
func (Plane32) Inverse(q mgl32.Vec2) mgl32.Vec2              { return mgl32.Vec2{q[0], -q[1]} }
func (Plane32) Log(q mgl32.Vec2) float32                     { return math32.Atan2(q[1], q[0]) }
func (Plane32) ZeroInertia() float32                         { return 0 }
func (Plane32) WorldInertia(_ mgl32.Vec2, i float32) float32 { return i }
func (Plane32) MulInertia(i, a float32) float32              { return i * a }

func (Plane32) RotationFloats(q mgl32.Vec2) []float64 {
	return []float64{float64(math32.Atan2(q[1], q[0]))}
}

func (Plane32) Vector(xs ...float64) mgl32.Vec2 {
	var v mgl32.Vec2
	for i := 0; i < len(xs) && i < 2; i++ {
		v[i] = float32(xs[i])
	}
	return v
}

func (Plane32) AngVector(xs ...float64) float32 {
	if len(xs) == 0 {
		return 0
	}
	return float32(xs[0])
}

func (Plane32) Rotate(q, v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{q[0]*v[0] - q[1]*v[1], q[1]*v[0] + q[0]*v[1]}
}

func (Plane32) Unrotate(q, v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{q[0]*v[0] + q[1]*v[1], -q[1]*v[0] + q[0]*v[1]}
}

func (Plane32) Compose(a, b mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{a[0]*b[0] - a[1]*b[1], a[1]*b[0] + a[0]*b[1]}
}

func (p Plane32) Integrate(q mgl32.Vec2, w, dt float32) mgl32.Vec2 {
	s, c := math32.Sincos(w * dt)
	r := p.Compose(mgl32.Vec2{c, s}, q)
	if n := r.Len(); n > 0 {
		r = r.Mul(1 / n)
	}
	return r
}

func (Plane32) Rotation(xs ...float64) mgl32.Vec2 {
	if len(xs) == 0 {
		return mgl32.Vec2{1, 0}
	}
	s, c := math32.Sincos(float32(xs[0]))
	return mgl32.Vec2{c, s}
}

func (Plane32) InvertInertia(i float32) float32 {
	if i == 0 {
		return 0
	}
	return 1 / i
}

func (Plane32) BallInertia(mass, radius float32) float32 {
	return 0.5 * mass * radius * radius
}

func (Plane32) BoxInertia(mass float32, half mgl32.Vec2) float32 {
	return mass * (half[0]*half[0] + half[1]*half[1]) / 3
}

func (Plane32) Tangents(n mgl32.Vec2) ([2]mgl32.Vec2, int) {
	return [2]mgl32.Vec2{{-n[1], n[0]}}, 1
}
