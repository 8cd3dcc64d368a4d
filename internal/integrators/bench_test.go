package integrators

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
)

func benchBodies(b *testing.B, n int) []*body3 {
	b.Helper()
	out := make([]*body3, n)
	for i := range out {
		out[i] = newBody(b, desc3{
			Shape:           shape.NewBox[float64, mgl64.Vec3](euclid, mgl64.Vec3{0.5, 0.5, 0.5}),
			Position:        mgl64.Vec3{float64(i), 0, 0},
			AngularVelocity: mgl64.Vec3{0, 1, 0},
		})
	}
	return out
}

func benchmark(b *testing.B, integ Integrator[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3]) {
	bodies := benchBodies(b, 256)
	var poses []Pose[mgl64.Vec3, mgl64.Quat]
	g := mgl64.Vec3{0, -9.81, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Velocities(space.Euclid64{}, bodies, g, 0.01)
		poses = integ.Positions(space.Euclid64{}, bodies, 0.01, poses)
	}
}

func BenchmarkSymplecticEuler(b *testing.B) {
	benchmark(b, NewSymplecticEuler[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3]())
}

func BenchmarkEuler(b *testing.B) {
	benchmark(b, NewEuler[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3]())
}
