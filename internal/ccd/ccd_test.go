package ccd

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/integrators"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
)

type (
	desc2 = body.Desc[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]
	pose2 = integrators.Pose[mgl64.Vec2, mgl64.Vec2]
)

var plane space.Space[float64, mgl64.Vec2, float64, mgl64.Vec2, float64] = space.Plane64{}

func TestGuard(t *testing.T) {
	tests := []struct {
		name     string
		target   mgl64.Vec2
		noCCD    bool
		clamped  bool
		wantX    float64
		wantDept float64
	}{
		{name: "bullet through thin wall", target: mgl64.Vec2{16, 0}, clamped: true, wantX: 4.875 - 0.01, wantDept: -0.01},
		{name: "small motion is not swept", target: mgl64.Vec2{0.04, 0}},
		{name: "motion short of wall", target: mgl64.Vec2{4, 0}, wantX: 4},
		{name: "ccd disabled", target: mgl64.Vec2{16, 0}, noCCD: true, wantX: 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := body.NewStore(plane)
			wall, err := s.Insert(desc2{Static: true, Shape: shape.NewBox[float64, mgl64.Vec2](plane, mgl64.Vec2{0.025, 1}), Position: mgl64.Vec2{5, 0}})
			if err != nil {
				t.Fatal(err)
			}
			h, err := s.Insert(desc2{Shape: shape.NewBall[float64, mgl64.Vec2](0.1), Mass: 1, LinearVelocity: mgl64.Vec2{1000, 0}, DisableCCD: tt.noCCD})
			if err != nil {
				t.Fatal(err)
			}
			b, _ := s.Get(h)

			var det collision.Detector[float64, mgl64.Vec2, float64, mgl64.Vec2, float64] = collision.NewReference(plane)
			g := New(plane, det, Params[float64]{MotionFraction: 0.5, Skin: 0.01})
			poses := []pose2{{Position: tt.target, Rotation: plane.Identity()}}
			contacts := g.Apply([]*body.Body[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]{b}, s.All(), poses)

			if b.LinearVelocity != (mgl64.Vec2{1000, 0}) {
				t.Errorf("velocity changed to %v", b.LinearVelocity)
			}
			if !tt.clamped {
				if len(contacts) != 0 {
					t.Fatalf("unexpected contacts %+v", contacts)
				}
				if poses[0].Position != tt.target {
					t.Fatalf("pose moved to %v", poses[0].Position)
				}
				return
			}
			if len(contacts) != 1 {
				t.Fatalf("got %d contacts, want 1", len(contacts))
			}
			if x := poses[0].Position.X(); math.Abs(x-tt.wantX) > 1e-9 {
				t.Errorf("clamped x = %v, want %v", x, tt.wantX)
			}
			c := contacts[0]
			if c.A != wall || c.B != h || c.Feature != constraint.FeatureSwept {
				t.Errorf("contact = %+v", c)
			}
			if math.Abs(c.Depth-tt.wantDept) > 1e-9 {
				t.Errorf("depth = %v, want %v", c.Depth, tt.wantDept)
			}
			if !c.Normal.ApproxEqualThreshold(mgl64.Vec2{-1, 0}, 1e-12) {
				t.Errorf("normal = %v, want (-1, 0)", c.Normal)
			}
		})
	}
}
