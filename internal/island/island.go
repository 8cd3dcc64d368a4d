// Package island groups bodies that interact through contacts or joints so
// that each group can be solved, woken and put to sleep as a unit.
package island

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

// EdgeKind tells which list an edge index refers to.
type EdgeKind int

const (
	ContactEdge EdgeKind = iota
	JointEdge
)

// Edge links two bodies. Either end may be static or the zero handle; such
// edges attach to the island of the other end without merging anything.
type Edge struct {
	A, B  body.Handle
	Kind  EdgeKind
	Index int
	// Fresh edges (a new contact pair or a new joint) wake their island.
	Fresh bool
}

// Island is a connected component of non-static bodies.
type Island[S scalar.Float, V, A, R, I any] struct {
	Bodies   []*body.Body[S, V, A, R, I]
	Contacts []int
	Joints   []int
	Active   bool
}

func (is *Island[S, V, A, R, I]) Handles() []body.Handle {
	out := make([]body.Handle, len(is.Bodies))
	for i, b := range is.Bodies {
		out[i] = b.Handle()
	}
	return out
}

type forest struct {
	parent []int
	rank   []int
}

func newForest(n int) *forest {
	f := &forest{parent: make([]int, n), rank: make([]int, n)}
	for i := range f.parent {
		f.parent[i] = i
	}
	return f
}

func (f *forest) find(i int) int {
	for f.parent[i] != i {
		f.parent[i] = f.parent[f.parent[i]]
		i = f.parent[i]
	}
	return i
}

func (f *forest) union(a, b int) {
	ra, rb := f.find(a), f.find(b)
	if ra == rb {
		return
	}
	switch {
	case f.rank[ra] < f.rank[rb]:
		f.parent[ra] = rb
	case f.rank[ra] > f.rank[rb]:
		f.parent[rb] = ra
	default:
		f.parent[rb] = ra
		f.rank[ra]++
	}
}

// Build partitions the non-static bodies into islands and decides which are
// active. bodies must be in slot order; islands come out ordered by their
// lowest slot index, members in slot order.
//
// An island is active when any member is active, any edge is fresh, or a
// member was woken explicitly since the last build. Sleeping members of an
// active island are woken together.
func Build[S scalar.Float, V, A, R, I any](bodies []*body.Body[S, V, A, R, I], edges []Edge) []*Island[S, V, A, R, I] {
	slot := make(map[body.Handle]int, len(bodies))
	for i, b := range bodies {
		slot[b.Handle()] = i
	}
	dynamic := func(h body.Handle) (int, bool) {
		i, ok := slot[h]
		if !ok || bodies[i].IsStatic() {
			return 0, false
		}
		return i, true
	}

	f := newForest(len(bodies))
	for _, e := range edges {
		a, okA := dynamic(e.A)
		b, okB := dynamic(e.B)
		if okA && okB {
			f.union(a, b)
		}
	}

	var islands []*Island[S, V, A, R, I]
	byRoot := make(map[int]*Island[S, V, A, R, I])
	for i, b := range bodies {
		if b.IsStatic() {
			continue
		}
		r := f.find(i)
		is, ok := byRoot[r]
		if !ok {
			is = &Island[S, V, A, R, I]{}
			byRoot[r] = is
			islands = append(islands, is)
		}
		is.Bodies = append(is.Bodies, b)
		if b.TakeWoken() || b.IsActive() {
			is.Active = true
		}
	}

	for _, e := range edges {
		i, ok := dynamic(e.A)
		if !ok {
			if i, ok = dynamic(e.B); !ok {
				continue
			}
		}
		is := byRoot[f.find(i)]
		switch e.Kind {
		case ContactEdge:
			is.Contacts = append(is.Contacts, e.Index)
		case JointEdge:
			is.Joints = append(is.Joints, e.Index)
		}
		if e.Fresh {
			is.Active = true
		}
	}

	for _, is := range islands {
		if !is.Active {
			continue
		}
		for _, b := range is.Bodies {
			b.Activate()
		}
	}
	return islands
}

// Sleep holds the thresholds used by [UpdateActivation].
type Sleep[S scalar.Float] struct {
	Linear  S
	Angular S
	Window  S
}

// UpdateActivation advances sleep timers of active islands and puts an
// island to sleep once every member has been slow for the whole window.
// It returns the number of islands put to sleep.
func UpdateActivation[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], islands []*Island[S, V, A, R, I], dt S, p Sleep[S]) int {
	slept := 0
	for _, is := range islands {
		if !is.Active {
			continue
		}
		ready := true
		for _, b := range is.Bodies {
			lin := sp.Dot(b.LinearVelocity, b.LinearVelocity)
			ang := sp.AngDot(b.AngularVelocity, b.AngularVelocity)
			if lin < p.Linear*p.Linear && ang < p.Angular*p.Angular {
				b.SleepTime += dt
			} else {
				b.SleepTime = 0
			}
			if !b.CanSleep || b.SleepTime < p.Window {
				ready = false
			}
		}
		if !ready {
			continue
		}
		for _, b := range is.Bodies {
			b.Sleep()
		}
		is.Active = false
		slept++
	}
	return slept
}
