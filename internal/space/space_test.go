package space

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/scalar"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func nearFloats(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !near(a[i], b[i], tol) {
			return false
		}
	}
	return true
}

// conformance checks the algebraic identities every space must satisfy.
func conformance[S scalar.Float, V, A, R, I any](t *testing.T, sp Space[S, V, A, R, I], tol float64) {
	t.Helper()
	dim := sp.Dim()
	v := sp.Vector(0.3, -1.2, 2.5)
	r := sp.Vector(-0.7, 0.4, 1.1)
	w := sp.AngVector(0.9, -0.2, 0.5)

	var angle []float64
	if sp.AngDim() == 1 {
		angle = []float64{0.8}
	} else {
		angle = []float64{0.2, -0.5, 0.6}
	}
	q := sp.Rotation(angle...)

	t.Run("vector round trip", func(t *testing.T) {
		if got := sp.Floats(v); len(got) != dim || !near(got[0], 0.3, tol) {
			t.Fatalf("Floats = %v", got)
		}
	})

	t.Run("rotate then unrotate", func(t *testing.T) {
		got := sp.Floats(sp.Unrotate(q, sp.Rotate(q, v)))
		if !nearFloats(got, sp.Floats(v), tol) {
			t.Fatalf("got %v, want %v", got, sp.Floats(v))
		}
	})

	t.Run("rotation preserves length", func(t *testing.T) {
		if !near(float64(Length[S, V](sp, sp.Rotate(q, v))), float64(Length[S, V](sp, v)), tol) {
			t.Fatal("length changed")
		}
	})

	t.Run("compose with inverse is identity", func(t *testing.T) {
		got := sp.AngFloats(sp.Log(sp.Compose(q, sp.Inverse(q))))
		for _, x := range got {
			if !near(x, 0, tol) {
				t.Fatalf("log = %v", got)
			}
		}
	})

	t.Run("rotation vector round trip", func(t *testing.T) {
		if got := sp.RotationFloats(q); !nearFloats(got, angle, tol) {
			t.Fatalf("got %v, want %v", got, angle)
		}
	})

	t.Run("integrate matches rotation of w dt", func(t *testing.T) {
		dt := S(0.1)
		got := sp.Integrate(sp.Identity(), w, dt)
		want := sp.Rotation(sp.AngFloats(sp.AngScale(w, dt))...)
		if !nearFloats(sp.RotationFloats(got), sp.RotationFloats(want), 10*tol) {
			t.Fatalf("got %v, want %v", sp.RotationFloats(got), sp.RotationFloats(want))
		}
	})

	t.Run("triple product", func(t *testing.T) {
		// (w × r) · v == w · (r × v)
		lhs := float64(sp.Dot(sp.Perp(w, r), v))
		rhs := float64(sp.AngDot(w, sp.Cross(r, v)))
		if !near(lhs, rhs, 10*tol) {
			t.Fatalf("%v != %v", lhs, rhs)
		}
	})

	t.Run("tangents are orthonormal", func(t *testing.T) {
		n, _ := Normalize[S, V](sp, v)
		ts, count := sp.Tangents(n)
		if count != dim-1 {
			t.Fatalf("count = %d, want %d", count, dim-1)
		}
		for i := 0; i < count; i++ {
			if !near(float64(sp.Dot(ts[i], n)), 0, tol) || !near(float64(Length[S, V](sp, ts[i])), 1, tol) {
				t.Fatalf("tangent %d = %v", i, sp.Floats(ts[i]))
			}
		}
		if count == 2 && !near(float64(sp.Dot(ts[0], ts[1])), 0, tol) {
			t.Fatal("tangents not orthogonal")
		}
	})

	t.Run("inertia inverse", func(t *testing.T) {
		in := sp.BoxInertia(2, sp.Vector(0.5, 1, 1.5))
		inv := sp.InvertInertia(in)
		got := sp.AngFloats(sp.MulInertia(inv, sp.MulInertia(in, w)))
		if !nearFloats(got, sp.AngFloats(w), 10*tol) {
			t.Fatalf("got %v, want %v", got, sp.AngFloats(w))
		}
		zero := sp.AngFloats(sp.MulInertia(sp.InvertInertia(sp.ZeroInertia()), w))
		for _, x := range zero {
			if x != 0 {
				t.Fatalf("inverse of zero inertia acts: %v", zero)
			}
		}
	})

	t.Run("world inertia of identity rotation", func(t *testing.T) {
		in := sp.BallInertia(1, 2)
		a := sp.AngFloats(sp.MulInertia(sp.WorldInertia(sp.Identity(), in), w))
		b := sp.AngFloats(sp.MulInertia(in, w))
		if !nearFloats(a, b, tol) {
			t.Fatalf("%v != %v", a, b)
		}
	})
}

func TestPlane64(t *testing.T) {
	conformance[float64, mgl64.Vec2, float64, mgl64.Vec2, float64](t, Plane64{}, 1e-12)
}

func TestPlane32(t *testing.T) {
	conformance[float32, mgl32.Vec2, float32, mgl32.Vec2, float32](t, Plane32{}, 1e-5)
}

func TestEuclid64(t *testing.T) {
	conformance[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3](t, Euclid64{}, 1e-12)
}

func TestEuclid32(t *testing.T) {
	conformance[float32, mgl32.Vec3, mgl32.Vec3, mgl32.Quat, mgl32.Mat3](t, Euclid32{}, 1e-5)
}

func TestNormalizeShortVector(t *testing.T) {
	v, n := Normalize[float64, mgl64.Vec2](Plane64{}, mgl64.Vec2{1e-20, 0})
	if n != 0 || v != (mgl64.Vec2{1e-20, 0}) {
		t.Fatalf("Normalize = %v, %v", v, n)
	}
}
