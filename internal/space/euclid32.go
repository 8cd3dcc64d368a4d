package space

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Euclid32 is the 3D space in single precision.
type Euclid32 struct{}

var _ Space[float32, mgl32.Vec3, mgl32.Vec3, mgl32.Quat, mgl32.Mat3] = Euclid32{}

func (Euclid32) Dim() int    { return 3 }
func (Euclid32) AngDim() int { return 3 }

func (Euclid32) Axis(i int) mgl32.Vec3 {
	var v mgl32.Vec3
	v[i] = 1
	return v
}

func (e Euclid32) AngAxis(i int) mgl32.Vec3 { return e.Axis(i) }

func (Euclid32) Add(a, b mgl32.Vec3) mgl32.Vec3                   { return a.Add(b) }
func (Euclid32) Sub(a, b mgl32.Vec3) mgl32.Vec3                   { return a.Sub(b) }
func (Euclid32) Scale(v mgl32.Vec3, s float32) mgl32.Vec3         { return v.Mul(s) }
func (Euclid32) Dot(a, b mgl32.Vec3) float32                      { return a.Dot(b) }
func (Euclid32) Elem(v mgl32.Vec3, i int) float32                 { return v[i] }
func (Euclid32) AngAdd(a, b mgl32.Vec3) mgl32.Vec3                { return a.Add(b) }
func (Euclid32) AngScale(a mgl32.Vec3, s float32) mgl32.Vec3      { return a.Mul(s) }
func (Euclid32) AngDot(a, b mgl32.Vec3) float32                   { return a.Dot(b) }
func (Euclid32) Cross(r, v mgl32.Vec3) mgl32.Vec3                 { return r.Cross(v) }
func (Euclid32) Perp(w, r mgl32.Vec3) mgl32.Vec3                  { return w.Cross(r) }
func (Euclid32) Identity() mgl32.Quat                             { return mgl32.QuatIdent() }
func (Euclid32) Rotate(q mgl32.Quat, v mgl32.Vec3) mgl32.Vec3     { return q.Rotate(v) }
func (Euclid32) Unrotate(q mgl32.Quat, v mgl32.Vec3) mgl32.Vec3   { return q.Conjugate().Rotate(v) }
func (Euclid32) Compose(a, b mgl32.Quat) mgl32.Quat               { return a.Mul(b) }
func (Euclid32) Inverse(q mgl32.Quat) mgl32.Quat                  { return q.Conjugate() }
func (Euclid32) ZeroInertia() mgl32.Mat3                          { return mgl32.Mat3{} }
func (Euclid32) MulInertia(i mgl32.Mat3, a mgl32.Vec3) mgl32.Vec3 { return i.Mul3x1(a) }

func (Euclid32) Floats(v mgl32.Vec3) []float64 {
	return []float64{float64(v[0]), float64(v[1]), float64(v[2])}
}

func (e Euclid32) AngFloats(a mgl32.Vec3) []float64 { return e.Floats(a) }

func (Euclid32) Vector(xs ...float64) mgl32.Vec3 {
	var v mgl32.Vec3
	for i := 0; i < len(xs) && i < 3; i++ {
		v[i] = float32(xs[i])
	}
	return v
}

func (e Euclid32) AngVector(xs ...float64) mgl32.Vec3 { return e.Vector(xs...) }

func (Euclid32) Integrate(q mgl32.Quat, w mgl32.Vec3, dt float32) mgl32.Quat {
	angle := w.Len() * dt
	var dq mgl32.Quat
	if angle < 1e-6 {
		dq = mgl32.Quat{W: 1, V: w.Mul(0.5 * dt)}
	} else {
		dq = mgl32.QuatRotate(angle, w.Normalize())
	}
	return dq.Mul(q).Normalize()
}

func (Euclid32) Log(q mgl32.Quat) mgl32.Vec3 {
	if q.W < 0 {
		q = mgl32.Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	s := q.V.Len()
	if s < 1e-7 {
		return q.V.Mul(2)
	}
	angle := 2 * math32.Atan2(s, q.W)
	return q.V.Mul(angle / s)
}

func (e Euclid32) Rotation(xs ...float64) mgl32.Quat {
	v := e.Vector(xs...)
	angle := v.Len()
	if angle < 1e-7 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(angle, v.Mul(1/angle))
}

func (e Euclid32) RotationFloats(q mgl32.Quat) []float64 {
	return e.Floats(e.Log(q))
}

func (Euclid32) InvertInertia(i mgl32.Mat3) mgl32.Mat3 {
	if i == (mgl32.Mat3{}) {
		return i
	}
	return i.Inv()
}

func (Euclid32) WorldInertia(q mgl32.Quat, local mgl32.Mat3) mgl32.Mat3 {
	r := q.Mat4().Mat3()
	return r.Mul3(local).Mul3(r.Transpose())
}

func (Euclid32) BallInertia(mass, radius float32) mgl32.Mat3 {
	k := 0.4 * mass * radius * radius
	return mgl32.Diag3(mgl32.Vec3{k, k, k})
}

func (Euclid32) BoxInertia(mass float32, half mgl32.Vec3) mgl32.Mat3 {
	x2, y2, z2 := half[0]*half[0], half[1]*half[1], half[2]*half[2]
	k := mass / 3
	return mgl32.Diag3(mgl32.Vec3{k * (y2 + z2), k * (x2 + z2), k * (x2 + y2)})
}

func (Euclid32) Tangents(n mgl32.Vec3) ([2]mgl32.Vec3, int) {
	var t1 mgl32.Vec3
	if math32.Abs(n[0]) >= 0.57735 {
		t1 = mgl32.Vec3{n[1], -n[0], 0}
	} else {
		t1 = mgl32.Vec3{0, n[2], -n[1]}
	}
	t1 = t1.Normalize()
	return [2]mgl32.Vec3{t1, n.Cross(t1)}, 2
}
