// Package collision is the contact and proximity layer the world consults
// once per step: discrete manifolds for the solver and swept-sphere queries
// for the continuous collision guard.
package collision

import (
	"slices"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
)

// Point is one contact point. The normal is unit length and points from
// the manifold's A body towards B; a negative depth is a separation.
type Point[S scalar.Float, V any] struct {
	Point   V
	Normal  V
	Depth   S
	Feature int
}

// Manifold holds the contact points between two bodies. A always has the
// lower slot index.
type Manifold[S scalar.Float, V any] struct {
	A, B   body.Handle
	Points []Point[S, V]
}

// Hit is the result of a swept or ray query.
type Hit[S scalar.Float, V any] struct {
	Body body.Handle
	// TOI is the fraction of the motion (or ray length) at first contact.
	TOI S
	// Normal points from the obstacle towards the moving sphere.
	Normal V
	Point  V
}

// Detector finds contacts between bodies at their current poses.
type Detector[S scalar.Float, V, A, R, I any] interface {
	// Manifolds returns contact manifolds ordered by (A, B) slot index.
	Manifolds(bodies []*body.Body[S, V, A, R, I]) []Manifold[S, V]

	// Sweep moves a sphere of the given radius from one centre to another
	// and returns the earliest body it touches, ignoring mover itself and
	// anything it already overlaps at the start.
	Sweep(bodies []*body.Body[S, V, A, R, I], mover body.Handle, from, to V, radius S) (Hit[S, V], bool)
}

func sortManifolds[S scalar.Float, V any](ms []Manifold[S, V]) {
	slices.SortFunc(ms, func(x, y Manifold[S, V]) int {
		switch {
		case x.A.Less(y.A):
			return -1
		case y.A.Less(x.A):
			return 1
		case x.B.Less(y.B):
			return -1
		case y.B.Less(x.B):
			return 1
		}
		return 0
	})
}

// RayCaster is implemented by detectors that answer ray queries.
type RayCaster[S scalar.Float, V, A, R, I any] interface {
	RayCast(bodies []*body.Body[S, V, A, R, I], origin, dir V, maxLen S) (Hit[S, V], bool)
}
