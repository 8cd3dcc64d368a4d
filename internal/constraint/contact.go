// Package constraint holds the constraint state consumed by the solver:
// per-step contacts with their warm-start cache, and persistent joints.
package constraint

import (
	"slices"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
)

// FeatureSwept marks a contact recorded by the continuous collision guard
// rather than by the detector.
const FeatureSwept = -1

// Contact is one contact point between bodies A and B. The normal points
// from A towards B; a negative depth is a gap (speculative contact).
type Contact[S scalar.Float, V any] struct {
	A, B    body.Handle
	Point   V
	Normal  V
	Depth   S
	Feature int

	// Accumulated impulses, seeded from the previous step.
	NormalImpulse  S
	TangentImpulse [2]S

	// Fresh is set when the pair was not in contact on the previous step.
	Fresh bool
}

// Key identifies a contact point across steps.
type Key struct {
	A, B    body.Handle
	Feature int
}

// Pair is an unordered body pair stored in canonical order.
type Pair struct {
	A, B body.Handle
}

// MakePair orders two handles by slot index.
func MakePair(a, b body.Handle) Pair {
	if b.Less(a) {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (c *Contact[S, V]) Key() Key   { return Key{A: c.A, B: c.B, Feature: c.Feature} }
func (c *Contact[S, V]) Pair() Pair { return MakePair(c.A, c.B) }

// Involves reports whether h is one of the contact's bodies.
func (c *Contact[S, V]) Involves(h body.Handle) bool { return c.A == h || c.B == h }

type impulse[S scalar.Float] struct {
	normal  S
	tangent [2]S
}

// Cache carries accumulated contact impulses from one step to the next.
// Entries whose contact does not reappear are discarded on Store.
type Cache[S scalar.Float, V any] struct {
	impulses map[Key]impulse[S]
	pairs    map[Pair]struct{}
}

func NewCache[S scalar.Float, V any]() *Cache[S, V] {
	return &Cache[S, V]{
		impulses: make(map[Key]impulse[S]),
		pairs:    make(map[Pair]struct{}),
	}
}

// Seed copies the previous step's impulses into matching contacts and marks
// contacts whose pair was not touching on the previous step as fresh.
func (c *Cache[S, V]) Seed(contacts []Contact[S, V]) {
	for i := range contacts {
		ct := &contacts[i]
		if imp, ok := c.impulses[ct.Key()]; ok {
			ct.NormalImpulse = imp.normal
			ct.TangentImpulse = imp.tangent
		} else {
			ct.NormalImpulse = 0
			ct.TangentImpulse = [2]S{}
		}
		_, seen := c.pairs[ct.Pair()]
		ct.Fresh = !seen
	}
}

// Store replaces the cache with the impulses of this step's contacts.
func (c *Cache[S, V]) Store(contacts []Contact[S, V]) {
	clear(c.impulses)
	clear(c.pairs)
	for i := range contacts {
		ct := &contacts[i]
		c.impulses[ct.Key()] = impulse[S]{normal: ct.NormalImpulse, tangent: ct.TangentImpulse}
		c.pairs[ct.Pair()] = struct{}{}
	}
}

// Forget drops every entry involving h.
func (c *Cache[S, V]) Forget(h body.Handle) {
	for k := range c.impulses {
		if k.A == h || k.B == h {
			delete(c.impulses, k)
		}
	}
	for p := range c.pairs {
		if p.A == h || p.B == h {
			delete(c.pairs, p)
		}
	}
}

// Len returns the number of cached contact points.
func (c *Cache[S, V]) Len() int { return len(c.impulses) }

// Sort orders contacts by body pair then feature so that solving order does
// not depend on detection order.
func Sort[S scalar.Float, V any](contacts []Contact[S, V]) {
	slices.SortStableFunc(contacts, func(x, y Contact[S, V]) int {
		px, py := x.Pair(), y.Pair()
		switch {
		case px.A.Less(py.A):
			return -1
		case py.A.Less(px.A):
			return 1
		case px.B.Less(py.B):
			return -1
		case py.B.Less(px.B):
			return 1
		}
		return x.Feature - y.Feature
	})
}
