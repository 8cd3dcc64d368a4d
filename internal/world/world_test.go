package world_test

import (
	"bytes"
	"errors"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

var _ = Describe("World", func() {
	Describe("body creation", func() {
		var w *world2

		BeforeEach(func() { w = newWorld2(nil) })

		DescribeTable("rejects invalid mass properties",
			func(d desc2) {
				_, err := w.AddBody(d)
				Expect(errors.Is(err, world.ErrInvalidMassProperties)).To(BeTrue(), "got %v", err)
				Expect(w.Bodies()).To(BeEmpty())
			},
			Entry("zero mass and density", desc2{Shape: ball2(1)}),
			Entry("negative mass via density", desc2{Shape: ball2(1), Density: -1}),
			Entry("NaN mass", desc2{Shape: ball2(1), Mass: math.NaN()}),
			Entry("negative mass with a density", desc2{Shape: ball2(1), Mass: -5, Density: 1}),
			Entry("NaN mass with a density", desc2{Shape: ball2(1), Mass: math.NaN(), Density: 1}),
			Entry("infinite density", desc2{Shape: ball2(1), Density: math.Inf(1)}),
			Entry("dynamic plane", desc2{Shape: ground2(), Mass: 1}),
		)

		It("accepts static bodies without mass", func() {
			h, err := w.AddBody(desc2{Static: true, Shape: ground2()})
			Expect(err).NotTo(HaveOccurred())
			b := get2(w, h)
			Expect(b.InvMass()).To(BeZero())
			Expect(b.Status()).To(Equal(body.Static))
		})

		It("reports removed handles as missing", func() {
			h := add2(w, desc2{Shape: ball2(1)})
			Expect(w.RemoveBody(h)).To(Succeed())
			_, ok := w.Body(h)
			Expect(ok).To(BeFalse())
			Expect(errors.Is(w.RemoveBody(h), world.ErrMissingBody)).To(BeTrue())
			Expect(errors.Is(w.Wake(h), world.ErrMissingBody)).To(BeTrue())

			again := add2(w, desc2{Shape: ball2(1)})
			Expect(again.Index).To(Equal(h.Index))
			_, ok = w.Body(h)
			Expect(ok).To(BeFalse(), "stale handle resolved to a recycled slot")
		})
	})

	Describe("static bodies", func() {
		It("never move", func() {
			w := newWorld2(nil)
			g := add2(w, desc2{Static: true, Shape: ground2()})
			wall := add2(w, desc2{Static: true, Shape: shape.NewBox[float64, mgl64.Vec2](plane, mgl64.Vec2{0.5, 2}), Position: mgl64.Vec2{3, 2}})
			add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{2.4, 1}, LinearVelocity: mgl64.Vec2{5, 0}})

			before := w.Snapshot()
			steps(w, 120)
			after := w.Snapshot()
			for _, i := range []int{int(g.Index), int(wall.Index)} {
				Expect(after.Bodies[i].Position).To(Equal(before.Bodies[i].Position))
				Expect(after.Bodies[i].Rotation).To(Equal(before.Bodies[i].Rotation))
				Expect(after.Bodies[i].LinearVelocity).To(Equal(before.Bodies[i].LinearVelocity))
			}
		})
	})

	Describe("a ball resting on the ground", func() {
		var (
			w *world2
			h body.Handle
		)

		BeforeEach(func() {
			w = newWorld2(nil)
			add2(w, desc2{Static: true, Shape: ground2()})
			h = add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{0, 0.5}})
		})

		It("stays in place", func() {
			for i := 0; i < 120; i++ {
				w.Step()
				y := get2(w, h).Position.Y()
				Expect(y).To(BeNumerically("~", 0.5, 0.02))
			}
		})

		It("falls asleep with zero velocity and stays asleep", func() {
			steps(w, 120)
			b := get2(w, h)
			Expect(b.Status()).To(Equal(body.Sleeping))
			Expect(b.LinearVelocity).To(Equal(mgl64.Vec2{}))
			pos := b.Position

			steps(w, 60)
			Expect(b.Status()).To(Equal(body.Sleeping))
			Expect(b.Position).To(Equal(pos))
		})

		It("wakes when pushed", func() {
			steps(w, 120)
			b := get2(w, h)
			Expect(b.Status()).To(Equal(body.Sleeping))
			b.ApplyImpulse(plane, mgl64.Vec2{2, 0}, b.Position)
			w.Step()
			Expect(b.Status()).To(Equal(body.Active))
			Expect(b.Position.X()).To(BeNumerically(">", 0))
		})
	})

	Describe("an elastic head-on collision of equal masses", func() {
		DescribeTable("exchanges velocities",
			func(speed float64) {
				w := newWorld2(zeroGravity)
				elastic := &body.Material[float64]{Restitution: 1}
				a := add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{-2, 0}, LinearVelocity: mgl64.Vec2{speed, 0}, Material: elastic})
				b := add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{2, 0}, LinearVelocity: mgl64.Vec2{-speed, 0}, Material: elastic})

				steps(w, 600)
				Expect(get2(w, a).LinearVelocity.X()).To(BeNumerically("~", -speed, 1e-6))
				Expect(get2(w, b).LinearVelocity.X()).To(BeNumerically("~", speed, 1e-6))
				Expect(w.Snapshot().Momentum()[0]).To(BeNumerically("~", 0, 1e-9))
			},
			Entry("fast", 1.0),
			Entry("below the restitution threshold", 0.2),
		)
	})

	Describe("a bullet fired at a thin wall", func() {
		var (
			w      *world2
			bullet body.Handle
		)
		const wallFace = 5 - 0.025 - 0.1

		BeforeEach(func() {
			w = newWorld2(zeroGravity)
			add2(w, desc2{Static: true, Shape: shape.NewBox[float64, mgl64.Vec2](plane, mgl64.Vec2{0.025, 1}), Position: mgl64.Vec2{5, 0}})
			bullet = add2(w, desc2{Shape: ball2(0.1), LinearVelocity: mgl64.Vec2{1000, 0}})
		})

		It("is clamped at the wall without touching its velocity", func() {
			w.Step()
			b := get2(w, bullet)
			Expect(w.Stats().Swept).To(Equal(1))
			Expect(b.Position.X()).To(BeNumerically("<=", wallFace))
			Expect(b.Position.X()).To(BeNumerically(">", wallFace-0.01))
			Expect(b.LinearVelocity).To(Equal(mgl64.Vec2{1000, 0}))
		})

		It("never passes through", func() {
			for i := 0; i < 120; i++ {
				w.Step()
				Expect(get2(w, bullet).Position.X()).To(BeNumerically("<=", wallFace+0.02), "step %d", i)
			}
		})

		It("tunnels when continuous collision is off", func() {
			p := w.Params()
			p.CCD = false
			Expect(w.SetParams(p)).To(Succeed())
			w.Step()
			Expect(get2(w, bullet).Position.X()).To(BeNumerically(">", 5))
		})
	})

	Describe("a box fired at a thin wall", func() {
		DescribeTable("never passes through",
			func(half mgl64.Vec2) {
				w := newWorld2(zeroGravity)
				add2(w, desc2{Static: true, Shape: shape.NewBox[float64, mgl64.Vec2](plane, mgl64.Vec2{0.025, 1}), Position: mgl64.Vec2{5, 0}})
				bullet := add2(w, desc2{Shape: shape.NewBox[float64, mgl64.Vec2](plane, half), LinearVelocity: mgl64.Vec2{3000, 0}})

				for i := 0; i < 120; i++ {
					w.Step()
					Expect(get2(w, bullet).Position.X()).To(BeNumerically("<", 5), "step %d", i)
				}
				Expect(get2(w, bullet).LinearVelocity.X()).To(BeNumerically("<", 0.01))
			},
			Entry("square", mgl64.Vec2{0.1, 0.1}),
			Entry("thin bar", mgl64.Vec2{0.3, 0.02}),
		)
	})

	Describe("sleeping islands", func() {
		var (
			w            *world2
			lower, upper body.Handle
		)

		BeforeEach(func() {
			w = newWorld2(nil)
			add2(w, desc2{Static: true, Shape: ground2()})
			lower = add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{0, 0.5}})
			upper = add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{0, 1.5}})
		})

		It("sleep and wake atomically", func() {
			slept := false
			for i := 0; i < 300; i++ {
				w.Step()
				n := w.Snapshot().Count(body.Sleeping)
				Expect(n).To(Or(Equal(0), Equal(2)), "step %d", i)
				if n == 2 {
					slept = true
					break
				}
			}
			Expect(slept).To(BeTrue())

			Expect(w.Wake(upper)).To(Succeed())
			w.Step()
			Expect(get2(w, lower).Status()).To(Equal(body.Active))
			Expect(get2(w, upper).Status()).To(Equal(body.Active))
		})

		It("wake when a new body lands on them", func() {
			steps(w, 300)
			Expect(get2(w, lower).Status()).To(Equal(body.Sleeping))

			add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{0, 2.6}, LinearVelocity: mgl64.Vec2{0, -3}})
			woke := false
			for i := 0; i < 30 && !woke; i++ {
				w.Step()
				woke = get2(w, lower).Status() == body.Active && get2(w, upper).Status() == body.Active
			}
			Expect(woke).To(BeTrue())
		})

		It("wake the bodies left behind when a support is removed", func() {
			steps(w, 300)
			Expect(get2(w, upper).Status()).To(Equal(body.Sleeping))
			Expect(w.RemoveBody(lower)).To(Succeed())
			w.Step()
			Expect(get2(w, upper).Status()).To(Equal(body.Active))
			Expect(get2(w, upper).Position.Y()).To(BeNumerically("<", 1.5))
		})
	})

	Describe("joints", func() {
		It("keeps a pendulum at its length", func() {
			w := newWorld2(nil)
			bob := add2(w, desc2{Shape: ball2(0.1), Position: mgl64.Vec2{1, 2}})
			_, err := w.AddJoint(world.BallInSocket(bob, body.Handle{}, mgl64.Vec2{0, 2}))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 300; i++ {
				w.Step()
				p := get2(w, bob).Position
				Expect(p.Sub(mgl64.Vec2{0, 2}).Len()).To(BeNumerically("~", 1, 0.05), "step %d", i)
			}
		})

		It("keeps a welded pair rigid", func() {
			w := newWorld2(nil)
			a := add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{0, 5}, AngularVelocity: 3})
			b := add2(w, desc2{Shape: ball2(0.5), Position: mgl64.Vec2{1, 5}})
			_, err := w.AddJoint(world.Fixed(a, b, mgl64.Vec2{0.5, 5}))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 60; i++ {
				w.Step()
				ba, bb := get2(w, a), get2(w, b)
				Expect(bb.Position.Sub(ba.Position).Len()).To(BeNumerically("~", 1, 0.02))
				Expect(ba.AngularVelocity).To(BeNumerically("~", bb.AngularVelocity, 1e-2))
			}
		})

		DescribeTable("rejects unusable joints",
			func(build func(w *world2) world.JointDesc[mgl64.Vec2], want error) {
				w := newWorld2(nil)
				_, err := w.AddJoint(build(w))
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			},
			Entry("missing body", func(w *world2) world.JointDesc[mgl64.Vec2] {
				return world.BallInSocket(body.Handle{Index: 7, Gen: 1}, body.Handle{}, mgl64.Vec2{})
			}, world.ErrMissingBody),
			Entry("body joined to itself", func(w *world2) world.JointDesc[mgl64.Vec2] {
				h := add2(w, desc2{Shape: ball2(1)})
				return world.Fixed(h, h, mgl64.Vec2{})
			}, world.ErrDegenerateConstraint),
			Entry("static body to world", func(w *world2) world.JointDesc[mgl64.Vec2] {
				h := add2(w, desc2{Static: true, Shape: ball2(1)})
				return world.BallInSocket(h, body.Handle{}, mgl64.Vec2{})
			}, world.ErrDegenerateConstraint),
		)

		It("drops joints whose body was removed and logs it", func() {
			var buf bytes.Buffer
			w := newWorld2(nil, world.WithLogger(log.New(&buf, "", 0)))
			a := add2(w, desc2{Shape: ball2(0.2), Position: mgl64.Vec2{0, 3}})
			b := add2(w, desc2{Shape: ball2(0.2), Position: mgl64.Vec2{0, 2}})
			_, err := w.AddJoint(world.BallInSocket(a, body.Handle{}, mgl64.Vec2{0, 4}))
			Expect(err).NotTo(HaveOccurred())
			id, err := w.AddJoint(world.BallInSocket(a, b, mgl64.Vec2{0, 2.5}))
			Expect(err).NotTo(HaveOccurred())
			steps(w, 5)

			Expect(w.RemoveBody(a)).To(Succeed())
			w.Step()
			Expect(w.Stats().MissingBodies).To(Equal(2))
			_, ok := w.Joint(id)
			Expect(ok).To(BeFalse())
			Expect(buf.String()).To(ContainSubstring("missing body"))
			Expect(get2(w, b).Status()).To(Equal(body.Active))
		})

		It("removes joints on request", func() {
			w := newWorld2(nil)
			a := add2(w, desc2{Shape: ball2(0.2)})
			id, err := w.AddJoint(world.BallInSocket(a, body.Handle{}, mgl64.Vec2{0, 1}))
			Expect(err).NotTo(HaveOccurred())
			Expect(w.RemoveJoint(id)).To(Succeed())
			Expect(errors.Is(w.RemoveJoint(id), constraint.ErrJointNotFound)).To(BeTrue())
		})
	})

	Describe("determinism", func() {
		It("leaves the snapshot untouched without steps", func() {
			w := pile(nil)
			Expect(cmp.Diff(w.Snapshot(), w.Snapshot())).To(BeEmpty())
		})

		It("reproduces identical trajectories", func() {
			a, b := pile(nil), pile(nil)
			for i := 0; i < 240; i++ {
				a.Step()
				b.Step()
				if i%20 == 0 {
					Expect(cmp.Diff(a.Snapshot(), b.Snapshot())).To(BeEmpty(), "step %d", i)
				}
			}
			Expect(cmp.Diff(a.Snapshot(), b.Snapshot())).To(BeEmpty())
			Expect(a.Stats()).To(Equal(b.Stats()))
		})
	})

	Describe("numerical safety", func() {
		It("clamps runaway speeds and reports them", func() {
			w := newWorld2(func(p *params2) { p.MaxSpeed = 100 })
			h := add2(w, desc2{Shape: ball2(0.5), LinearVelocity: mgl64.Vec2{1e6, 0}})
			w.Step()
			Expect(w.Stats().Clamped).To(Equal(1))
			Expect(get2(w, h).LinearVelocity.Len()).To(BeNumerically("<=", 100+1e-9))
		})

		It("zeroes non-finite velocities", func() {
			w := newWorld2(nil)
			h := add2(w, desc2{Shape: ball2(0.5)})
			get2(w, h).SetLinearVelocity(mgl64.Vec2{math.NaN(), 0})
			w.Step()
			Expect(w.Stats().Clamped).To(Equal(1))
			Expect(get2(w, h).Position.X()).To(Equal(0.0))
		})
	})

	Describe("ray casts", func() {
		It("hit the nearest body", func() {
			w := newWorld2(nil)
			add2(w, desc2{Static: true, Shape: ground2()})
			target := add2(w, desc2{Shape: ball2(1), Position: mgl64.Vec2{0, 5}})
			hit, ok := w.RayCast(mgl64.Vec2{0, 10}, mgl64.Vec2{0, -1}, 20)
			Expect(ok).To(BeTrue())
			Expect(hit.Body).To(Equal(target))
			Expect(hit.TOI).To(BeNumerically("~", 4, 1e-9))
		})
	})

	Describe("in three dimensions", func() {
		It("holds a stack of balls", func() {
			w := newWorld3()
			_, err := w.AddBody(desc3{Static: true, Shape: shape.NewPlane[float64, mgl64.Vec3](euclid, mgl64.Vec3{0, 1, 0})})
			Expect(err).NotTo(HaveOccurred())
			var top body.Handle
			for i := 0; i < 3; i++ {
				top, err = w.AddBody(desc3{Shape: shape.NewBall[float64, mgl64.Vec3](0.5), Mass: 1, Position: mgl64.Vec3{0, 0.5 + float64(i), 0}})
				Expect(err).NotTo(HaveOccurred())
			}
			steps(w, 300)
			b, _ := w.Body(top)
			Expect(b.Position.Y()).To(BeNumerically("~", 2.5, 0.05))
			Expect(math.Hypot(b.Position.X(), b.Position.Z())).To(BeNumerically("<", 1e-6))
		})

		It("rests a box flat on the ground", func() {
			w := newWorld3()
			_, err := w.AddBody(desc3{Static: true, Shape: shape.NewPlane[float64, mgl64.Vec3](euclid, mgl64.Vec3{0, 1, 0})})
			Expect(err).NotTo(HaveOccurred())
			h, err := w.AddBody(desc3{Shape: shape.NewBox[float64, mgl64.Vec3](euclid, mgl64.Vec3{0.5, 0.5, 0.5}), Density: 1, Position: mgl64.Vec3{0, 1, 0}})
			Expect(err).NotTo(HaveOccurred())
			steps(w, 240)
			b, _ := w.Body(h)
			Expect(b.Position.Y()).To(BeNumerically("~", 0.5, 0.02))
			Expect(b.Rotation.Len()).To(BeNumerically("~", 1, 1e-9))
		})
	})

	Describe("in single precision", func() {
		It("drops a ball onto the ground", func() {
			w := newWorld2f()
			_, err := w.AddBody(desc2f{Static: true, Shape: shape.NewPlane[float32, mgl32.Vec2](plane32, mgl32.Vec2{0, 1})})
			Expect(err).NotTo(HaveOccurred())
			h, err := w.AddBody(desc2f{Shape: shape.NewBall[float32, mgl32.Vec2](0.5), Mass: 1, Position: mgl32.Vec2{0, 3}})
			Expect(err).NotTo(HaveOccurred())
			steps(w, 240)
			b, _ := w.Body(h)
			Expect(b.Position.Y()).To(BeNumerically("~", 0.5, 0.02))
			Expect(w.Snapshot().Bodies[1].Position[1]).To(BeNumerically("~", 0.5, 0.02))
		})
	})
})
