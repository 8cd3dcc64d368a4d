package world

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/island"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

// Step advances the world by one time step. The stages always run in this
// order:
//
//	refresh contacts → rebuild islands → integrate velocities → solve →
//	integrate positions → continuous collision → commit poses →
//	update activation
//
// Step never fails; recoverable conditions are reported in [World.Stats].
func (w *World[S, V, A, R, I]) Step() {
	sp := w.sp
	dt := w.params.Dt
	w.stats = Stats{Step: w.steps + 1}
	w.stats.MissingBodies = w.dropDanglingJoints()

	all := w.bodies.All()
	w.refreshContacts(all)
	w.rebuildIslands(all)

	w.active = w.active[:0]
	for _, is := range w.islands {
		if is.Active {
			w.active = append(w.active, is.Bodies...)
		}
	}

	w.integrator.Velocities(sp, w.active, w.params.Gravity, dt)
	w.solve(dt)
	w.clampVelocities()
	w.poses = w.integrator.Positions(sp, w.active, dt, w.poses)

	w.swept = w.swept[:0]
	if w.params.CCD {
		w.swept = append(w.swept, w.guard.Apply(w.active, all, w.poses)...)
	}
	w.stats.Swept = len(w.swept)

	for i, b := range w.active {
		b.Position = w.poses[i].Position
		b.Rotation = w.poses[i].Rotation
		b.Sync(sp)
	}

	w.stats.Slept = island.UpdateActivation(sp, w.islands, dt, w.params.sleep())
	w.joints.Settle()
	w.steps++
	w.count(all)
}

// refreshContacts asks the detector for this step's contacts, merges the
// swept contacts recorded by the last step for pairs the detector did not
// report, and seeds them from the warm-start cache.
func (w *World[S, V, A, R, I]) refreshContacts(all []*body.Body[S, V, A, R, I]) {
	w.contacts = w.contacts[:0]
	reported := make(map[constraint.Pair]struct{})
	for _, m := range w.detector.Manifolds(all) {
		for _, p := range m.Points {
			w.contacts = append(w.contacts, constraint.Contact[S, V]{
				A:       m.A,
				B:       m.B,
				Point:   p.Point,
				Normal:  p.Normal,
				Depth:   p.Depth,
				Feature: p.Feature,
			})
		}
		reported[constraint.MakePair(m.A, m.B)] = struct{}{}
	}
	for _, c := range w.swept {
		if _, ok := reported[c.Pair()]; ok {
			continue
		}
		if !w.bodies.Contains(c.B) || !w.bodies.Contains(c.A) {
			continue
		}
		w.contacts = append(w.contacts, c)
	}
	constraint.Sort(w.contacts)
	w.cache.Seed(w.contacts)

	for i := range w.contacts {
		if d := float64(w.contacts[i].Depth); d > w.stats.MaxPenetration {
			w.stats.MaxPenetration = d
		}
	}
}

func (w *World[S, V, A, R, I]) rebuildIslands(all []*body.Body[S, V, A, R, I]) {
	edges := make([]island.Edge, 0, len(w.contacts)+w.joints.Len())
	for i := range w.contacts {
		c := &w.contacts[i]
		edges = append(edges, island.Edge{A: c.A, B: c.B, Kind: island.ContactEdge, Index: i, Fresh: c.Fresh})
	}

	w.jointList = w.jointList[:0]
	w.joints.Each(func(_ constraint.JointID, j *constraint.Joint[S, V, A, R], fresh bool) {
		edges = append(edges, island.Edge{A: j.A, B: j.B, Kind: island.JointEdge, Index: len(w.jointList), Fresh: fresh})
		w.jointList = append(w.jointList, j)
	})

	w.islands = island.Build(all, edges)
}

func (w *World[S, V, A, R, I]) solve(dt S) {
	for _, is := range w.islands {
		st := w.solver.Solve(is, w.contacts, w.jointList, w.bodies, dt)
		w.stats.Degenerate += st.Degenerate
	}
	w.cache.Store(w.contacts)
}

// clampVelocities bounds numerical blow-up: non-finite velocities are
// zeroed and speeds above MaxSpeed are scaled down.
func (w *World[S, V, A, R, I]) clampVelocities() {
	sp := w.sp
	limit := w.params.MaxSpeed
	for _, b := range w.active {
		var zv V
		var za A
		switch {
		case !space.IsFinite[S, V](sp, b.LinearVelocity) || !finiteAngular(sp, b.AngularVelocity):
			b.LinearVelocity, b.AngularVelocity = zv, za
		case space.LengthSqr[S, V](sp, b.LinearVelocity) > limit*limit:
			b.LinearVelocity = sp.Scale(b.LinearVelocity, limit/space.Length[S, V](sp, b.LinearVelocity))
		default:
			continue
		}
		w.stats.Clamped++
		w.logger.Printf("world: step %d: clamped velocity of body %v", w.stats.Step, b.Handle())
	}
}

func finiteAngular[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], a A) bool {
	for i := 0; i < sp.AngDim(); i++ {
		if !scalar.IsFinite(sp.AngDot(a, sp.AngAxis(i))) {
			return false
		}
	}
	return true
}

func (w *World[S, V, A, R, I]) count(all []*body.Body[S, V, A, R, I]) {
	st := &w.stats
	st.Bodies = len(all)
	for _, b := range all {
		switch b.Status() {
		case body.Active:
			st.Active++
		case body.Sleeping:
			st.Sleeping++
		}
	}
	st.Islands = len(w.islands)
	for _, is := range w.islands {
		if is.Active {
			st.ActiveIslands++
		}
	}
	st.Contacts = len(w.contacts)
	st.Joints = w.joints.Len()
}
