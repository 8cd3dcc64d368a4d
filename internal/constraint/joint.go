package constraint

import (
	"errors"
	"fmt"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
)

var ErrJointNotFound = errors.New("constraint: joint not found")

// JointKind selects the rows a joint constrains.
type JointKind int

const (
	// BallInSocket pins an anchor point of A to an anchor point of B,
	// leaving rotation free.
	BallInSocket JointKind = iota
	// Fixed pins the anchor and also locks the relative rotation.
	Fixed
)

func (k JointKind) String() string {
	switch k {
	case BallInSocket:
		return "ball"
	case Fixed:
		return "fixed"
	default:
		return fmt.Sprintf("joint(%d)", int(k))
	}
}

// JointID refers to a joint in a [JointSet].
type JointID uint64

// Joint is a persistent bilateral constraint between two bodies. A zero B
// handle anchors the joint to the world; LocalB is then a world point and
// the world frame has identity orientation.
type Joint[S scalar.Float, V, A, R any] struct {
	Kind   JointKind
	A, B   body.Handle
	LocalA V
	LocalB V

	// RelRotation is B's orientation relative to A at creation. Fixed
	// joints drive the relative rotation back to it.
	RelRotation R

	// Accumulated impulses for warm starting.
	LinearImpulse  V
	AngularImpulse A
}

// Bodies returns the two handles; the second may be the zero handle.
func (j *Joint[S, V, A, R]) Bodies() (body.Handle, body.Handle) { return j.A, j.B }

// Involves reports whether h is attached to the joint.
func (j *Joint[S, V, A, R]) Involves(h body.Handle) bool {
	return j.A == h || (!h.IsZero() && j.B == h)
}

type jointEntry[S scalar.Float, V, A, R any] struct {
	id    JointID
	joint *Joint[S, V, A, R]
	fresh bool
}

// JointSet stores joints in insertion order.
type JointSet[S scalar.Float, V, A, R any] struct {
	entries []jointEntry[S, V, A, R]
	next    JointID
}

func NewJointSet[S scalar.Float, V, A, R any]() *JointSet[S, V, A, R] {
	return &JointSet[S, V, A, R]{next: 1}
}

// Add stores j and marks it fresh until the next [JointSet.Settle].
func (s *JointSet[S, V, A, R]) Add(j *Joint[S, V, A, R]) JointID {
	id := s.next
	s.next++
	s.entries = append(s.entries, jointEntry[S, V, A, R]{id: id, joint: j, fresh: true})
	return id
}

func (s *JointSet[S, V, A, R]) Remove(id JointID) error {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrJointNotFound, id)
}

func (s *JointSet[S, V, A, R]) Get(id JointID) (*Joint[S, V, A, R], bool) {
	for _, e := range s.entries {
		if e.id == id {
			return e.joint, true
		}
	}
	return nil, false
}

func (s *JointSet[S, V, A, R]) Len() int { return len(s.entries) }

// Each visits joints in insertion order.
func (s *JointSet[S, V, A, R]) Each(fn func(id JointID, j *Joint[S, V, A, R], fresh bool)) {
	for _, e := range s.entries {
		fn(e.id, e.joint, e.fresh)
	}
}

// RemoveIf drops every joint for which drop returns true and returns their
// ids in insertion order.
func (s *JointSet[S, V, A, R]) RemoveIf(drop func(j *Joint[S, V, A, R]) bool) []JointID {
	var removed []JointID
	kept := s.entries[:0]
	for _, e := range s.entries {
		if drop(e.joint) {
			removed = append(removed, e.id)
			continue
		}
		kept = append(kept, e)
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	return removed
}

// Settle clears the fresh flag on every joint.
func (s *JointSet[S, V, A, R]) Settle() {
	for i := range s.entries {
		s.entries[i].fresh = false
	}
}
