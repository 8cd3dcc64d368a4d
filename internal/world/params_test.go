package world

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/space"
)

func TestParamsValidate(t *testing.T) {
	var sp space.Linear[float64, mgl64.Vec2] = space.Plane64{}
	tests := []struct {
		name string
		mut  func(*Params[float64, mgl64.Vec2])
		ok   bool
	}{
		{"defaults", func(*Params[float64, mgl64.Vec2]) {}, true},
		{"zero dt", func(p *Params[float64, mgl64.Vec2]) { p.Dt = 0 }, false},
		{"nan dt", func(p *Params[float64, mgl64.Vec2]) { p.Dt = math.NaN() }, false},
		{"no iterations", func(p *Params[float64, mgl64.Vec2]) { p.Iterations = 0 }, false},
		{"baumgarte above one", func(p *Params[float64, mgl64.Vec2]) { p.Baumgarte = 1.5 }, false},
		{"negative slop", func(p *Params[float64, mgl64.Vec2]) { p.Slop = -1 }, false},
		{"zero sleep window", func(p *Params[float64, mgl64.Vec2]) { p.SleepWindow = 0 }, false},
		{"zero motion fraction", func(p *Params[float64, mgl64.Vec2]) { p.CCDMotionFraction = 0 }, false},
		{"zero max speed", func(p *Params[float64, mgl64.Vec2]) { p.MaxSpeed = 0 }, false},
		{"infinite gravity", func(p *Params[float64, mgl64.Vec2]) { p.Gravity = mgl64.Vec2{0, math.Inf(-1)} }, false},
		{"ccd off", func(p *Params[float64, mgl64.Vec2]) { p.CCD = false }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams(sp)
			tt.mut(&p)
			err := p.Validate(sp)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestDefaultGravityPointsDown(t *testing.T) {
	var sp space.Linear[float64, mgl64.Vec3] = space.Euclid64{}
	p := DefaultParams(sp)
	if p.Gravity != (mgl64.Vec3{0, -9.81, 0}) {
		t.Fatalf("gravity = %v", p.Gravity)
	}
}
