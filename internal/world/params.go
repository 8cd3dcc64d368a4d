package world

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/ccd"
	"github.com/san-kum/rigidsim/internal/island"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/solver"
	"github.com/san-kum/rigidsim/internal/space"
)

// Params holds the tuning of a world.
type Params[S scalar.Float, V any] struct {
	Gravity V
	Dt      S

	// Solver.
	Iterations           int
	Baumgarte            S
	Slop                 S
	RestitutionThreshold S
	Restitution          S
	Friction             S

	// Sleeping. A body is slow when |v| < SleepLinear and |ω| < SleepAngular.
	SleepLinear  S
	SleepAngular S
	SleepWindow  S

	// Continuous collision.
	CCD               bool
	CCDMotionFraction S
	CCDSkin           S

	// MaxSpeed bounds linear speed; faster or non-finite bodies are clamped
	// and reported in Stats.Clamped.
	MaxSpeed S
}

// DefaultParams returns the defaults: gravity 9.81 along -axis 1, a 60 Hz
// step and ten solver iterations.
func DefaultParams[S scalar.Float, V any](l space.Linear[S, V]) Params[S, V] {
	return Params[S, V]{
		Gravity:              l.Scale(l.Axis(1), -9.81),
		Dt:                   S(1.0 / 60.0),
		Iterations:           10,
		Baumgarte:            0.2,
		Slop:                 0.005,
		RestitutionThreshold: 0.5,
		Restitution:          0,
		Friction:             0.5,
		SleepLinear:          0.05,
		SleepAngular:         0.05,
		SleepWindow:          0.5,
		CCD:                  true,
		CCDMotionFraction:    0.5,
		CCDSkin:              0.005,
		MaxSpeed:             1e4,
	}
}

func (p Params[S, V]) Validate(l space.Linear[S, V]) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidParams}, args...)...)
	}
	switch {
	case !(p.Dt > 0) || !scalar.IsFinite(p.Dt):
		return bad("dt must be positive, got %v", p.Dt)
	case p.Iterations < 1:
		return bad("iterations must be at least 1, got %d", p.Iterations)
	case p.Baumgarte < 0 || p.Baumgarte > 1:
		return bad("baumgarte must be in [0, 1], got %v", p.Baumgarte)
	case p.Slop < 0:
		return bad("slop must be non-negative, got %v", p.Slop)
	case p.RestitutionThreshold < 0:
		return bad("restitution threshold must be non-negative, got %v", p.RestitutionThreshold)
	case p.Restitution < 0 || p.Friction < 0:
		return bad("restitution and friction must be non-negative")
	case p.SleepLinear < 0 || p.SleepAngular < 0:
		return bad("sleep thresholds must be non-negative")
	case !(p.SleepWindow > 0):
		return bad("sleep window must be positive, got %v", p.SleepWindow)
	case !(p.CCDMotionFraction > 0):
		return bad("ccd motion fraction must be positive, got %v", p.CCDMotionFraction)
	case p.CCDSkin < 0:
		return bad("ccd skin must be non-negative, got %v", p.CCDSkin)
	case !(p.MaxSpeed > 0):
		return bad("max speed must be positive, got %v", p.MaxSpeed)
	case !space.IsFinite(l, p.Gravity):
		return bad("gravity must be finite")
	}
	return nil
}

func (p Params[S, V]) solver() solver.Params[S] {
	return solver.Params[S]{
		Iterations:           p.Iterations,
		Baumgarte:            p.Baumgarte,
		Slop:                 p.Slop,
		RestitutionThreshold: p.RestitutionThreshold,
		Restitution:          p.Restitution,
		Friction:             p.Friction,
	}
}

func (p Params[S, V]) ccd() ccd.Params[S] {
	return ccd.Params[S]{MotionFraction: p.CCDMotionFraction, Skin: p.CCDSkin}
}

func (p Params[S, V]) sleep() island.Sleep[S] {
	return island.Sleep[S]{Linear: p.SleepLinear, Angular: p.SleepAngular, Window: p.SleepWindow}
}
