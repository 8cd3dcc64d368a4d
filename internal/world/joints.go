package world

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
)

// JointDesc describes a joint by a world-space anchor point. A zero B
// attaches body A to the world.
type JointDesc[V any] struct {
	Kind   constraint.JointKind
	A, B   body.Handle
	Anchor V
}

func BallInSocket[V any](a, b body.Handle, anchor V) JointDesc[V] {
	return JointDesc[V]{Kind: constraint.BallInSocket, A: a, B: b, Anchor: anchor}
}

func Fixed[V any](a, b body.Handle, anchor V) JointDesc[V] {
	return JointDesc[V]{Kind: constraint.Fixed, A: a, B: b, Anchor: anchor}
}

// AddJoint creates a joint holding the bodies in their current relative
// placement. Both bodies are woken.
func (w *World[S, V, A, R, I]) AddJoint(d JointDesc[V]) (constraint.JointID, error) {
	sp := w.sp
	a, ok := w.bodies.Get(d.A)
	if !ok {
		return 0, &BodyError{Op: "add joint", Handle: d.A, Wrapped: ErrMissingBody}
	}
	if d.A == d.B {
		return 0, fmt.Errorf("%w: joint attaches %v to itself", ErrDegenerateConstraint, d.A)
	}

	j := &constraint.Joint[S, V, A, R]{
		Kind:   d.Kind,
		A:      d.A,
		B:      d.B,
		LocalA: a.LocalPoint(sp, d.Anchor),
	}
	rotB := sp.Identity()
	staticB := true
	if d.B.IsZero() {
		j.LocalB = d.Anchor
	} else {
		b, ok := w.bodies.Get(d.B)
		if !ok {
			return 0, &BodyError{Op: "add joint", Handle: d.B, Wrapped: ErrMissingBody}
		}
		j.LocalB = b.LocalPoint(sp, d.Anchor)
		rotB = b.Rotation
		staticB = b.IsStatic()
		b.Wake()
	}
	if a.IsStatic() && staticB {
		return 0, fmt.Errorf("%w: joint between immovable bodies", ErrDegenerateConstraint)
	}
	j.RelRotation = sp.Compose(sp.Inverse(a.Rotation), rotB)
	a.Wake()
	return w.joints.Add(j), nil
}

// RemoveJoint deletes a joint and wakes the bodies it held.
func (w *World[S, V, A, R, I]) RemoveJoint(id constraint.JointID) error {
	j, ok := w.joints.Get(id)
	if !ok {
		return fmt.Errorf("world: remove joint: %w", constraint.ErrJointNotFound)
	}
	w.wakeJoint(j)
	return w.joints.Remove(id)
}

// Joint returns a joint by id.
func (w *World[S, V, A, R, I]) Joint(id constraint.JointID) (*constraint.Joint[S, V, A, R], bool) {
	return w.joints.Get(id)
}

func (w *World[S, V, A, R, I]) wakeJoint(j *constraint.Joint[S, V, A, R]) {
	for _, h := range []body.Handle{j.A, j.B} {
		if b, ok := w.bodies.Get(h); ok {
			b.Wake()
		}
	}
}

// dropDanglingJoints removes joints whose bodies no longer exist.
func (w *World[S, V, A, R, I]) dropDanglingJoints() int {
	missing := func(h body.Handle) bool { return !h.IsZero() && !w.bodies.Contains(h) }
	var dropped []*constraint.Joint[S, V, A, R]
	ids := w.joints.RemoveIf(func(j *constraint.Joint[S, V, A, R]) bool {
		if missing(j.A) || missing(j.B) {
			dropped = append(dropped, j)
			return true
		}
		return false
	})
	for i, id := range ids {
		j := dropped[i]
		w.logger.Printf("world: dropping %v joint %d between %v and %v: %v", j.Kind, id, j.A, j.B, ErrMissingBody)
		w.wakeJoint(j)
	}
	return len(ids)
}
