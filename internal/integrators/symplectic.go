package integrators

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

// SymplecticEuler is semi-implicit Euler: poses advance with the velocity
// after forces and constraint impulses have been applied.
type SymplecticEuler[S scalar.Float, V, A, R, I any] struct{}

func NewSymplecticEuler[S scalar.Float, V, A, R, I any]() *SymplecticEuler[S, V, A, R, I] {
	return &SymplecticEuler[S, V, A, R, I]{}
}

func (e *SymplecticEuler[S, V, A, R, I]) Name() string { return "symplectic" }

func (e *SymplecticEuler[S, V, A, R, I]) Velocities(sp space.Space[S, V, A, R, I], bodies []*body.Body[S, V, A, R, I], gravity V, dt S) {
	for _, b := range bodies {
		if !b.IsActive() {
			continue
		}
		accelerate(sp, b, gravity, dt)
	}
}

func (e *SymplecticEuler[S, V, A, R, I]) Positions(sp space.Space[S, V, A, R, I], bodies []*body.Body[S, V, A, R, I], dt S, out []Pose[V, R]) []Pose[V, R] {
	out = grow(out, len(bodies))
	for i, b := range bodies {
		if !b.IsActive() {
			out[i] = Pose[V, R]{Position: b.Position, Rotation: b.Rotation}
			continue
		}
		out[i] = advance(sp, b, b.LinearVelocity, b.AngularVelocity, dt)
	}
	return out
}
