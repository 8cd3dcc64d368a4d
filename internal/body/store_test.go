package body

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
)

type (
	desc2  = Desc[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]
	store2 = Store[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]
)

var plane space.Space[float64, mgl64.Vec2, float64, mgl64.Vec2, float64] = space.Plane64{}

func newStore() *store2 { return NewStore(plane) }

func ball(label string, mass float64) desc2 {
	return desc2{Label: label, Shape: shape.NewBall[float64, mgl64.Vec2](0.5), Mass: mass}
}

func TestInsertValidation(t *testing.T) {
	tests := []struct {
		name string
		desc desc2
		err  error
	}{
		{"no shape", desc2{Mass: 1}, ErrNoShape},
		{"zero mass and density", desc2{Shape: shape.NewBall[float64, mgl64.Vec2](1)}, ErrInvalidMassProperties},
		{"negative mass", desc2{Shape: shape.NewBall[float64, mgl64.Vec2](1), Density: -1}, ErrInvalidMassProperties},
		{"negative mass with a density", desc2{Shape: shape.NewBall[float64, mgl64.Vec2](1), Mass: -5, Density: 1}, ErrInvalidMassProperties},
		{"infinite mass", desc2{Shape: shape.NewBall[float64, mgl64.Vec2](1), Mass: math.Inf(1)}, ErrInvalidMassProperties},
		{"dynamic plane", desc2{Shape: shape.NewPlane[float64, mgl64.Vec2](plane, mgl64.Vec2{0, 1}), Density: 1}, ErrInvalidMassProperties},
		{"nan position", desc2{Shape: shape.NewBall[float64, mgl64.Vec2](1), Mass: 1, Position: mgl64.Vec2{math.NaN(), 0}}, ErrInvalidMassProperties},
		{"static plane", desc2{Static: true, Shape: shape.NewPlane[float64, mgl64.Vec2](plane, mgl64.Vec2{0, 1})}, nil},
		{"density", desc2{Shape: shape.NewBall[float64, mgl64.Vec2](1), Density: 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore()
			_, err := s.Insert(tt.desc)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			want := 0
			if tt.err == nil {
				want = 1
			}
			if s.Len() != want {
				t.Errorf("Len = %d, want %d", s.Len(), want)
			}
		})
	}
}

func TestMassFromDensity(t *testing.T) {
	s := newStore()
	h, err := s.Insert(desc2{Shape: shape.NewBall[float64, mgl64.Vec2](1), Density: 2})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Get(h)
	if math.Abs(b.Mass()-2*math.Pi) > 1e-12 || math.Abs(b.InvMass()*b.Mass()-1) > 1e-12 {
		t.Errorf("mass %v invMass %v", b.Mass(), b.InvMass())
	}
}

func TestStaleHandles(t *testing.T) {
	s := newStore()
	a, _ := s.Insert(ball("a", 1))
	b, _ := s.Insert(ball("b", 1))

	if err := s.Remove(a); err != nil {
		t.Fatal(err)
	}
	if s.Contains(a) {
		t.Fatal("removed handle still resolves")
	}
	if err := s.Remove(a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Remove err = %v", err)
	}

	c, _ := s.Insert(ball("c", 1))
	if c.Index != a.Index || c.Gen == a.Gen {
		t.Fatalf("slot not reused with new generation: %v vs %v", c, a)
	}
	if s.Contains(a) || !s.Contains(c) || !s.Contains(b) {
		t.Fatal("handle resolution after reuse is wrong")
	}
	if s.Contains(Handle{}) {
		t.Fatal("zero handle resolves")
	}
	if s.Len() != 2 || s.Cap() != 2 {
		t.Fatalf("Len %d Cap %d", s.Len(), s.Cap())
	}
}

func TestSlotOrder(t *testing.T) {
	s := newStore()
	var hs []Handle
	for _, l := range []string{"a", "b", "c", "d"} {
		h, _ := s.Insert(ball(l, 1))
		hs = append(hs, h)
	}
	_ = s.Remove(hs[1])
	_, _ = s.Insert(ball("e", 1))

	var got []string
	s.Each(func(b *Body[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]) {
		got = append(got, b.Label())
	})
	want := []string{"a", "e", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if all := s.All(); len(all) != 4 || all[1].Label() != "e" {
		t.Fatalf("All = %d bodies", len(all))
	}
	if b, ok := s.Find("c"); !ok || b.Handle() != hs[2] {
		t.Fatal("Find(c) failed")
	}
}

func TestSleepAndWake(t *testing.T) {
	s := newStore()
	h, _ := s.Insert(ball("a", 1))
	b, _ := s.Get(h)
	b.LinearVelocity = mgl64.Vec2{1, 2}
	b.SleepTime = 3

	b.Sleep()
	if b.Status() != Sleeping || b.LinearVelocity != (mgl64.Vec2{}) {
		t.Fatalf("after Sleep: %v %v", b.Status(), b.LinearVelocity)
	}

	b.SetLinearVelocity(mgl64.Vec2{0, 1})
	if !b.IsActive() || b.SleepTime != 0 {
		t.Fatalf("SetLinearVelocity did not wake: %v", b.Status())
	}
	if !b.TakeWoken() || b.TakeWoken() {
		t.Fatal("woken flag should be reported exactly once")
	}

	b.Sleep()
	b.Activate()
	if b.TakeWoken() {
		t.Fatal("Activate must not flag the body as woken")
	}
}

func TestStaticIgnoresImpulses(t *testing.T) {
	s := newStore()
	h, _ := s.Insert(desc2{Static: true, Shape: shape.NewBall[float64, mgl64.Vec2](1)})
	b, _ := s.Get(h)
	b.ApplyImpulse(plane, mgl64.Vec2{5, 0}, mgl64.Vec2{})
	b.ApplyForce(plane, mgl64.Vec2{5, 0})
	b.Wake()
	b.Sleep()
	if b.Status() != Static || b.LinearVelocity != (mgl64.Vec2{}) || b.Force != (mgl64.Vec2{}) {
		t.Fatalf("static body changed: %v %v %v", b.Status(), b.LinearVelocity, b.Force)
	}
	if b.KineticEnergy(plane) != 0 || b.InvMass() != 0 {
		t.Fatal("static body has energy or inverse mass")
	}
}

func TestApplyImpulseOffCentre(t *testing.T) {
	s := newStore()
	h, _ := s.Insert(ball("a", 2))
	b, _ := s.Get(h)
	b.Sleep()

	// impulse (0,1) at offset (0.5,0): Δv = (0,0.5), Δω = r×J / I = 0.5/0.25
	b.ApplyImpulse(plane, mgl64.Vec2{0, 1}, mgl64.Vec2{0.5, 0})
	if !b.IsActive() {
		t.Fatal("impulse did not wake the body")
	}
	if b.LinearVelocity != (mgl64.Vec2{0, 0.5}) {
		t.Errorf("v = %v", b.LinearVelocity)
	}
	if math.Abs(b.AngularVelocity-2) > 1e-12 {
		t.Errorf("w = %v", b.AngularVelocity)
	}
	if got := b.VelocityAt(plane, mgl64.Vec2{0.5, 0}); math.Abs(got[1]-1.5) > 1e-12 {
		t.Errorf("VelocityAt = %v", got)
	}
	// ½·2·0.25 + ½·0.25·4
	if ke := b.KineticEnergy(plane); math.Abs(ke-0.75) > 1e-12 {
		t.Errorf("KineticEnergy = %v", ke)
	}
	if v := b.Speed(plane); math.Abs(v-0.5) > 1e-12 {
		t.Errorf("Speed = %v", v)
	}
}

func TestLocalWorldPoints(t *testing.T) {
	s := newStore()
	q := plane.Rotation(math.Pi / 2)
	h, _ := s.Insert(desc2{Shape: shape.NewBall[float64, mgl64.Vec2](1), Mass: 1, Position: mgl64.Vec2{1, 1}, Rotation: &q})
	b, _ := s.Get(h)
	w := b.WorldPoint(plane, mgl64.Vec2{1, 0})
	if math.Abs(w[0]-1) > 1e-12 || math.Abs(w[1]-2) > 1e-12 {
		t.Fatalf("WorldPoint = %v", w)
	}
	l := b.LocalPoint(plane, w)
	if math.Abs(l[0]-1) > 1e-12 || math.Abs(l[1]) > 1e-12 {
		t.Fatalf("LocalPoint = %v", l)
	}
}

func TestHandleString(t *testing.T) {
	if (Handle{}).String() != "world" || (Handle{Index: 3, Gen: 1}).String() != "#3" {
		t.Fatal("unexpected handle strings")
	}
	if !(Handle{Index: 1, Gen: 5}).Less(Handle{Index: 2, Gen: 1}) {
		t.Fatal("Less orders by index first")
	}
}
