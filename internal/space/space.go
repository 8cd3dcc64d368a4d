// Package space is the boundary between the simulation pipeline and the
// linear algebra of a particular dimension.
//
// The pipeline never touches vector components directly. It is written
// against [Space], a narrow set of operations over five value types:
//
//   - S: the scalar (float32 or float64)
//   - V: a linear vector (points, velocities, normals)
//   - A: an angular vector (a scalar in 2D, a vector in 3D)
//   - R: an orientation (unit complex number in 2D, unit quaternion in 3D)
//   - I: an inertia tensor (a scalar in 2D, a 3x3 matrix in 3D)
//
// The zero values of V and A are the zero vectors.
//
// Implementations are stateless values backed by go-gl/mathgl:
//
//	Plane64, Plane32   // 2D
//	Euclid64, Euclid32 // 3D
package space

import "github.com/san-kum/rigidsim/internal/scalar"

// Linear is the subset of [Space] needed by code that only handles points
// and directions, such as shape construction.
type Linear[S scalar.Float, V any] interface {
	Dim() int
	Axis(i int) V
	Add(a, b V) V
	Sub(a, b V) V
	Scale(v V, s S) V
	Dot(a, b V) S
	Elem(v V, i int) S

	// Vector builds a vector from float64 components; missing components
	// are zero and extra ones are ignored.
	Vector(xs ...float64) V
	Floats(v V) []float64
}

// Space is the full arithmetic surface used by the pipeline.
type Space[S scalar.Float, V, A, R, I any] interface {
	Linear[S, V]

	AngDim() int
	AngAxis(i int) A
	AngAdd(a, b A) A
	AngScale(a A, s S) A
	AngDot(a, b A) S
	AngVector(xs ...float64) A
	AngFloats(a A) []float64

	// Cross returns r × v.
	Cross(r, v V) A
	// Perp returns w × r, the velocity of a point at offset r on a body
	// spinning at w.
	Perp(w A, r V) V

	Identity() R
	Rotate(q R, v V) V
	Unrotate(q R, v V) V
	// Compose returns the rotation a applied after b.
	Compose(a, b R) R
	Inverse(q R) R
	// Integrate rotates q by the world-space angular velocity w over dt
	// and renormalises the result.
	Integrate(q R, w A, dt S) R
	// Log returns the rotation vector (axis times angle) of q.
	Log(q R) A
	// Rotation builds an orientation from a rotation vector: one angle in
	// 2D, axis times angle in 3D.
	Rotation(xs ...float64) R
	RotationFloats(q R) []float64

	ZeroInertia() I
	InvertInertia(i I) I
	WorldInertia(q R, local I) I
	MulInertia(i I, a A) A
	BallInertia(mass, radius S) I
	BoxInertia(mass S, half V) I

	// Tangents returns an orthonormal basis of the plane orthogonal to the
	// unit vector n. Only the first count entries are meaningful.
	Tangents(n V) (t [2]V, count int)
}

// Length returns |v|.
func Length[S scalar.Float, V any](l Linear[S, V], v V) S {
	return scalar.Sqrt(l.Dot(v, v))
}

// LengthSqr returns |v|².
func LengthSqr[S scalar.Float, V any](l Linear[S, V], v V) S {
	return l.Dot(v, v)
}

// Normalize returns v/|v| and |v|. A vector shorter than the scalar epsilon
// is returned unchanged with length zero.
func Normalize[S scalar.Float, V any](l Linear[S, V], v V) (V, S) {
	n := Length(l, v)
	if n <= scalar.Epsilon[S]() {
		var zero S
		return v, zero
	}
	return l.Scale(v, 1/n), n
}

// Distance returns |a-b|.
func Distance[S scalar.Float, V any](l Linear[S, V], a, b V) S {
	return Length(l, l.Sub(a, b))
}

// Lerp returns a + (b-a)·t.
func Lerp[S scalar.Float, V any](l Linear[S, V], a, b V, t S) V {
	return l.Add(a, l.Scale(l.Sub(b, a), t))
}

// AngLength returns |a| for an angular vector.
func AngLength[S scalar.Float, V, A, R, I any](sp Space[S, V, A, R, I], a A) S {
	return scalar.Sqrt(sp.AngDot(a, a))
}

// IsFinite reports whether every component of v is finite.
func IsFinite[S scalar.Float, V any](l Linear[S, V], v V) bool {
	for i := 0; i < l.Dim(); i++ {
		if !scalar.IsFinite(l.Elem(v, i)) {
			return false
		}
	}
	return true
}
