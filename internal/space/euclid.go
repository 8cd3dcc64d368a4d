package space

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Euclid64 is the 3D space in double precision. Angular velocities live in
// world space; orientations are unit quaternions.
type Euclid64 struct{}

var _ Space[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3] = Euclid64{}

func (Euclid64) Dim() int    { return 3 }
func (Euclid64) AngDim() int { return 3 }

func (Euclid64) Axis(i int) mgl64.Vec3 {
	var v mgl64.Vec3
	v[i] = 1
	return v
}

func (e Euclid64) AngAxis(i int) mgl64.Vec3 { return e.Axis(i) }

func (Euclid64) Add(a, b mgl64.Vec3) mgl64.Vec3                   { return a.Add(b) }
func (Euclid64) Sub(a, b mgl64.Vec3) mgl64.Vec3                   { return a.Sub(b) }
func (Euclid64) Scale(v mgl64.Vec3, s float64) mgl64.Vec3         { return v.Mul(s) }
func (Euclid64) Dot(a, b mgl64.Vec3) float64                      { return a.Dot(b) }
func (Euclid64) Elem(v mgl64.Vec3, i int) float64                 { return v[i] }
func (Euclid64) Floats(v mgl64.Vec3) []float64                    { return []float64{v[0], v[1], v[2]} }
func (Euclid64) AngAdd(a, b mgl64.Vec3) mgl64.Vec3                { return a.Add(b) }
func (Euclid64) AngScale(a mgl64.Vec3, s float64) mgl64.Vec3      { return a.Mul(s) }
func (Euclid64) AngDot(a, b mgl64.Vec3) float64                   { return a.Dot(b) }
func (Euclid64) AngFloats(a mgl64.Vec3) []float64                 { return []float64{a[0], a[1], a[2]} }
func (Euclid64) Cross(r, v mgl64.Vec3) mgl64.Vec3                 { return r.Cross(v) }
func (Euclid64) Perp(w, r mgl64.Vec3) mgl64.Vec3                  { return w.Cross(r) }
func (Euclid64) Identity() mgl64.Quat                             { return mgl64.QuatIdent() }
func (Euclid64) Rotate(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3     { return q.Rotate(v) }
func (Euclid64) Unrotate(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3   { return q.Conjugate().Rotate(v) }
func (Euclid64) Compose(a, b mgl64.Quat) mgl64.Quat               { return a.Mul(b) }
func (Euclid64) Inverse(q mgl64.Quat) mgl64.Quat                  { return q.Conjugate() }
func (Euclid64) ZeroInertia() mgl64.Mat3                          { return mgl64.Mat3{} }
func (Euclid64) MulInertia(i mgl64.Mat3, a mgl64.Vec3) mgl64.Vec3 { return i.Mul3x1(a) }

func (Euclid64) Vector(xs ...float64) mgl64.Vec3 {
	var v mgl64.Vec3
	for i := 0; i < len(xs) && i < 3; i++ {
		v[i] = xs[i]
	}
	return v
}

func (e Euclid64) AngVector(xs ...float64) mgl64.Vec3 { return e.Vector(xs...) }

func (Euclid64) Integrate(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	angle := w.Len() * dt
	var dq mgl64.Quat
	if angle < 1e-9 {
		// first order: q' = q + ½·(w,0)·q·dt
		dq = mgl64.Quat{W: 1, V: w.Mul(0.5 * dt)}
	} else {
		dq = mgl64.QuatRotate(angle, w.Normalize())
	}
	return dq.Mul(q).Normalize()
}

func (Euclid64) Log(q mgl64.Quat) mgl64.Vec3 {
	if q.W < 0 {
		q = mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	s := q.V.Len()
	if s < 1e-12 {
		return q.V.Mul(2)
	}
	angle := 2 * math.Atan2(s, q.W)
	return q.V.Mul(angle / s)
}

func (Euclid64) Rotation(xs ...float64) mgl64.Quat {
	var v mgl64.Vec3
	for i := 0; i < len(xs) && i < 3; i++ {
		v[i] = xs[i]
	}
	angle := v.Len()
	if angle < 1e-12 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, v.Mul(1/angle))
}

func (e Euclid64) RotationFloats(q mgl64.Quat) []float64 {
	return e.Floats(e.Log(q))
}

func (Euclid64) InvertInertia(i mgl64.Mat3) mgl64.Mat3 {
	if i == (mgl64.Mat3{}) {
		return i
	}
	return i.Inv()
}

// WorldInertia returns R·I·Rᵀ.
func (Euclid64) WorldInertia(q mgl64.Quat, local mgl64.Mat3) mgl64.Mat3 {
	r := q.Mat4().Mat3()
	return r.Mul3(local).Mul3(r.Transpose())
}

// BallInertia is the inertia tensor of a solid sphere.
func (Euclid64) BallInertia(mass, radius float64) mgl64.Mat3 {
	k := 0.4 * mass * radius * radius
	return mgl64.Diag3(mgl64.Vec3{k, k, k})
}

// BoxInertia is the inertia tensor of a solid cuboid with half extents half.
func (Euclid64) BoxInertia(mass float64, half mgl64.Vec3) mgl64.Mat3 {
	x2, y2, z2 := half[0]*half[0], half[1]*half[1], half[2]*half[2]
	k := mass / 3
	return mgl64.Diag3(mgl64.Vec3{k * (y2 + z2), k * (x2 + z2), k * (x2 + y2)})
}

func (Euclid64) Tangents(n mgl64.Vec3) ([2]mgl64.Vec3, int) {
	var t1 mgl64.Vec3
	if math.Abs(n[0]) >= 0.57735 {
		t1 = mgl64.Vec3{n[1], -n[0], 0}
	} else {
		t1 = mgl64.Vec3{0, n[2], -n[1]}
	}
	t1 = t1.Normalize()
	return [2]mgl64.Vec3{t1, n.Cross(t1)}, 2
}
