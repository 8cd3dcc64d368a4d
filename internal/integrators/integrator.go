// Package integrators advances rigid bodies through one time step.
//
// Integration is split in two halves around the constraint solver:
// Velocities applies gravity, forces and damping, then the solver corrects
// the velocities, then Positions produces candidate end-of-step poses that
// the continuous collision guard may clamp before they are committed.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

// Pose is a candidate position and orientation.
type Pose[V, R any] struct {
	Position V
	Rotation R
}

// Integrator advances the given bodies. Callers pass only active dynamic
// bodies; static and sleeping bodies are skipped regardless.
type Integrator[S scalar.Float, V, A, R, I any] interface {
	Name() string
	// Velocities applies gravity, accumulated forces and damping, then
	// clears the force accumulators.
	Velocities(sp space.Space[S, V, A, R, I], bodies []*body.Body[S, V, A, R, I], gravity V, dt S)
	// Positions writes the candidate pose of bodies[i] into out[i] and
	// returns out, grown as needed.
	Positions(sp space.Space[S, V, A, R, I], bodies []*body.Body[S, V, A, R, I], dt S, out []Pose[V, R]) []Pose[V, R]
}

// ByName returns a fresh integrator.
func ByName[S scalar.Float, V, A, R, I any](name string) (Integrator[S, V, A, R, I], error) {
	switch name {
	case "", "symplectic":
		return NewSymplecticEuler[S, V, A, R, I](), nil
	case "euler":
		return NewEuler[S, V, A, R, I](), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
}

func Names() []string {
	names := []string{"symplectic", "euler"}
	sort.Strings(names)
	return names
}

// accelerate applies gravity, forces and damping to one body.
func accelerate[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], b *body.Body[S, V, A, R, I], gravity V, dt S) {
	acc := sp.Add(gravity, sp.Scale(b.Force, b.InvMass()))
	v := sp.Add(b.LinearVelocity, sp.Scale(acc, dt))
	w := sp.AngAdd(b.AngularVelocity, sp.AngScale(sp.MulInertia(b.InvInertia(), b.Torque), dt))

	if b.LinearDamping > 0 {
		v = sp.Scale(v, 1/(1+dt*b.LinearDamping))
	}
	if b.AngularDamping > 0 {
		w = sp.AngScale(w, 1/(1+dt*b.AngularDamping))
	}
	b.LinearVelocity = v
	b.AngularVelocity = w
	b.ClearForces()
}

func advance[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], b *body.Body[S, V, A, R, I], v V, w A, dt S) Pose[V, R] {
	return Pose[V, R]{
		Position: sp.Add(b.Position, sp.Scale(v, dt)),
		Rotation: sp.Integrate(b.Rotation, w, dt),
	}
}

func grow[V, R any](out []Pose[V, R], n int) []Pose[V, R] {
	if cap(out) < n {
		return make([]Pose[V, R], n)
	}
	return out[:n]
}
