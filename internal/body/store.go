package body

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
)

type slot[S scalar.Float, V, A, R, I any] struct {
	body *Body[S, V, A, R, I]
	gen  uint32
}

// Store is an index arena of bodies. Iteration is always in slot order so
// that everything built on top of it is deterministic.
type Store[S scalar.Float, V, A, R, I any] struct {
	sp    space.Space[S, V, A, R, I]
	slots []slot[S, V, A, R, I]
	free  []uint32
	count int
}

func NewStore[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I]) *Store[S, V, A, R, I] {
	return &Store[S, V, A, R, I]{sp: sp}
}

// Insert validates desc and adds the body. Non-static bodies must end up
// with a finite positive mass.
func (s *Store[S, V, A, R, I]) Insert(desc Desc[S, V, A, R, I]) (Handle, error) {
	b, err := s.build(desc)
	if err != nil {
		return Handle{}, err
	}

	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot[S, V, A, R, I]{})
	}
	sl := &s.slots[idx]
	sl.gen++
	b.handle = Handle{Index: idx, Gen: sl.gen}
	sl.body = b
	s.count++
	return b.handle, nil
}

func (s *Store[S, V, A, R, I]) build(desc Desc[S, V, A, R, I]) (*Body[S, V, A, R, I], error) {
	sp := s.sp
	if desc.Shape == nil {
		return nil, ErrNoShape
	}
	if !space.IsFinite[S, V](sp, desc.Position) {
		return nil, fmt.Errorf("%w: non-finite position", ErrInvalidMassProperties)
	}

	b := &Body[S, V, A, R, I]{
		label:          desc.Label,
		shape:          desc.Shape,
		Position:       desc.Position,
		Rotation:       sp.Identity(),
		Material:       desc.Material,
		LinearDamping:  desc.LinearDamping,
		AngularDamping: desc.AngularDamping,
		CanSleep:       !desc.DisableSleep,
		CCD:            !desc.DisableCCD,
	}
	if desc.Rotation != nil {
		b.Rotation = *desc.Rotation
	}

	if desc.Static {
		b.status = Static
		b.inertia = sp.ZeroInertia()
		b.invInertia = sp.ZeroInertia()
		b.invInertiaWorld = sp.ZeroInertia()
		return b, nil
	}

	mass := desc.Mass
	if mass < 0 || mass != mass {
		return nil, fmt.Errorf("%w: mass %v", ErrInvalidMassProperties, mass)
	}
	var inertia I
	if mass > 0 {
		in, err := shape.Inertia(sp, desc.Shape, mass)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMassProperties, err)
		}
		inertia = in
	} else {
		m, in, err := shape.MassProperties(sp, desc.Shape, desc.Density)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMassProperties, err)
		}
		mass, inertia = m, in
	}
	if !(mass > 0) || !scalar.IsFinite(mass) {
		return nil, fmt.Errorf("%w: mass %v", ErrInvalidMassProperties, mass)
	}

	b.status = Active
	b.mass = mass
	b.invMass = 1 / mass
	b.inertia = inertia
	b.invInertia = sp.InvertInertia(inertia)
	b.LinearVelocity = desc.LinearVelocity
	b.AngularVelocity = desc.AngularVelocity
	b.Sync(sp)
	return b, nil
}

// Remove deletes a body. The slot's generation is bumped so outstanding
// handles stop resolving.
func (s *Store[S, V, A, R, I]) Remove(h Handle) error {
	if _, ok := s.Get(h); !ok {
		return fmt.Errorf("%w: %v", ErrNotFound, h)
	}
	s.slots[h.Index].body = nil
	s.free = append(s.free, h.Index)
	s.count--
	return nil
}

// Get resolves a handle.
func (s *Store[S, V, A, R, I]) Get(h Handle) (*Body[S, V, A, R, I], bool) {
	if h.IsZero() || int(h.Index) >= len(s.slots) {
		return nil, false
	}
	sl := s.slots[h.Index]
	if sl.body == nil || sl.gen != h.Gen {
		return nil, false
	}
	return sl.body, true
}

// Contains reports whether h refers to a live body.
func (s *Store[S, V, A, R, I]) Contains(h Handle) bool {
	_, ok := s.Get(h)
	return ok
}

func (s *Store[S, V, A, R, I]) Len() int { return s.count }

// Cap returns one past the highest slot index ever used; slot indices of
// live bodies are always below it.
func (s *Store[S, V, A, R, I]) Cap() int { return len(s.slots) }

// All returns the live bodies in slot order.
func (s *Store[S, V, A, R, I]) All() []*Body[S, V, A, R, I] {
	out := make([]*Body[S, V, A, R, I], 0, s.count)
	for _, sl := range s.slots {
		if sl.body != nil {
			out = append(out, sl.body)
		}
	}
	return out
}

// Each calls fn for every live body in slot order.
func (s *Store[S, V, A, R, I]) Each(fn func(*Body[S, V, A, R, I])) {
	for _, sl := range s.slots {
		if sl.body != nil {
			fn(sl.body)
		}
	}
}

// Find returns the first body carrying label.
func (s *Store[S, V, A, R, I]) Find(label string) (*Body[S, V, A, R, I], bool) {
	for _, sl := range s.slots {
		if sl.body != nil && sl.body.label == label {
			return sl.body, true
		}
	}
	return nil, false
}
