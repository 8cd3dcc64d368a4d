package integrators

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

// Euler is explicit Euler: poses advance with the velocity from the start
// of the step, so constraint impulses only show up one step later. It
// drifts and does not hold stacks; it exists for comparison runs.
type Euler[S scalar.Float, V, A, R, I any] struct {
	lin []V
	ang []A
}

func NewEuler[S scalar.Float, V, A, R, I any]() *Euler[S, V, A, R, I] {
	return &Euler[S, V, A, R, I]{}
}

func (e *Euler[S, V, A, R, I]) Name() string { return "euler" }

func (e *Euler[S, V, A, R, I]) Velocities(sp space.Space[S, V, A, R, I], bodies []*body.Body[S, V, A, R, I], gravity V, dt S) {
	e.lin = e.lin[:0]
	e.ang = e.ang[:0]
	for _, b := range bodies {
		e.lin = append(e.lin, b.LinearVelocity)
		e.ang = append(e.ang, b.AngularVelocity)
		if b.IsActive() {
			accelerate(sp, b, gravity, dt)
		}
	}
}

func (e *Euler[S, V, A, R, I]) Positions(sp space.Space[S, V, A, R, I], bodies []*body.Body[S, V, A, R, I], dt S, out []Pose[V, R]) []Pose[V, R] {
	out = grow(out, len(bodies))
	for i, b := range bodies {
		if !b.IsActive() {
			out[i] = Pose[V, R]{Position: b.Position, Rotation: b.Rotation}
			continue
		}
		v, w := b.LinearVelocity, b.AngularVelocity
		if i < len(e.lin) {
			v, w = e.lin[i], e.ang[i]
		}
		out[i] = advance(sp, b, v, w, dt)
	}
	return out
}
