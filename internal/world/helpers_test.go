package world_test

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
	"github.com/san-kum/rigidsim/internal/world"
)

type (
	world2  = world.World[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]
	desc2   = body.Desc[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]
	params2 = world.Params[float64, mgl64.Vec2]

	world3 = world.World[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3]
	desc3  = body.Desc[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3]

	world2f = world.World[float32, mgl32.Vec2, float32, mgl32.Vec2, float32]
	desc2f  = body.Desc[float32, mgl32.Vec2, float32, mgl32.Vec2, float32]
)

var (
	plane   space.Space[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]       = space.Plane64{}
	plane32 space.Space[float32, mgl32.Vec2, float32, mgl32.Vec2, float32]       = space.Plane32{}
	euclid  space.Space[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3] = space.Euclid64{}
)

func newWorld2(tune func(*params2), opts ...world.Option) *world2 {
	p := world.DefaultParams[float64, mgl64.Vec2](plane)
	if tune != nil {
		tune(&p)
	}
	var det collision.Detector[float64, mgl64.Vec2, float64, mgl64.Vec2, float64] = collision.NewReference(plane)
	w, err := world.New(plane, det, p, opts...)
	Expect(err).NotTo(HaveOccurred())
	return w
}

func newWorld3() *world3 {
	var det collision.Detector[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3] = collision.NewReference(euclid)
	w, err := world.New(euclid, det, world.DefaultParams[float64, mgl64.Vec3](euclid))
	Expect(err).NotTo(HaveOccurred())
	return w
}

func newWorld2f() *world2f {
	var det collision.Detector[float32, mgl32.Vec2, float32, mgl32.Vec2, float32] = collision.NewReference(plane32)
	w, err := world.New(plane32, det, world.DefaultParams[float32, mgl32.Vec2](plane32))
	Expect(err).NotTo(HaveOccurred())
	return w
}

func zeroGravity(p *params2) { p.Gravity = mgl64.Vec2{} }

func ball2(r float64) shape.Shape[float64, mgl64.Vec2] {
	return shape.NewBall[float64, mgl64.Vec2](r)
}

func ground2() shape.Shape[float64, mgl64.Vec2] {
	return shape.NewPlane[float64, mgl64.Vec2](plane, mgl64.Vec2{0, 1})
}

func add2(w *world2, d desc2) body.Handle {
	if d.Mass == 0 && d.Density == 0 && !d.Static {
		d.Mass = 1
	}
	h, err := w.AddBody(d)
	Expect(err).NotTo(HaveOccurred())
	return h
}

func get2(w *world2, h body.Handle) *body.Body[float64, mgl64.Vec2, float64, mgl64.Vec2, float64] {
	b, ok := w.Body(h)
	Expect(ok).To(BeTrue())
	return b
}

func steps(w interface{ Step() }, n int) {
	for i := 0; i < n; i++ {
		w.Step()
	}
}

// pile builds a deterministic heap of balls and boxes above the ground.
func pile(logger *log.Logger) *world2 {
	var opts []world.Option
	if logger != nil {
		opts = append(opts, world.WithLogger(logger))
	}
	w := newWorld2(nil, opts...)
	add2(w, desc2{Label: "ground", Static: true, Shape: ground2()})
	for i := 0; i < 12; i++ {
		x := float64(i%4)*0.9 - 1.35
		y := 0.6 + float64(i/4)*1.1
		d := desc2{Position: mgl64.Vec2{x + 0.05*float64(i%3), y}, Density: 1}
		if i%3 == 0 {
			d.Shape = shape.NewBox[float64, mgl64.Vec2](plane, mgl64.Vec2{0.4, 0.4})
		} else {
			d.Shape = ball2(0.4)
		}
		add2(w, d)
	}
	return w
}
