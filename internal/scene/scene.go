// Package scene turns float64 scene descriptions into worlds of any
// dimension and precision.
package scene

import (
	"errors"
	"fmt"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	defaultRadius  = 0.5
	defaultHalf    = 0.5
	defaultDensity = 1.0
)

var ErrDuplicateLabel = errors.New("scene: duplicate body label")

// Params applies the non-zero fields of pc over the world defaults.
func Params[S scalar.Float, V any](l space.Linear[S, V], pc config.ParamsConfig) world.Params[S, V] {
	p := world.DefaultParams(l)
	if pc.Dt != 0 {
		p.Dt = S(pc.Dt)
	}
	if pc.Iterations != 0 {
		p.Iterations = pc.Iterations
	}
	if len(pc.Gravity) > 0 {
		p.Gravity = l.Vector(pc.Gravity...)
	}
	set := func(dst *S, v float64) {
		if v != 0 {
			*dst = S(v)
		}
	}
	set(&p.Baumgarte, pc.Baumgarte)
	set(&p.Slop, pc.Slop)
	set(&p.RestitutionThreshold, pc.RestitutionThreshold)
	set(&p.SleepLinear, pc.SleepLinear)
	set(&p.SleepAngular, pc.SleepAngular)
	set(&p.SleepWindow, pc.SleepTime)
	set(&p.CCDMotionFraction, pc.MotionFraction)
	set(&p.CCDSkin, pc.Skin)
	set(&p.MaxSpeed, pc.MaxSpeed)
	if pc.Restitution != nil {
		p.Restitution = S(*pc.Restitution)
	}
	if pc.Friction != nil {
		p.Friction = S(*pc.Friction)
	}
	if pc.DisableSleep {
		p.SleepLinear, p.SleepAngular = 0, 0
	}
	p.CCD = !pc.DisableCCD
	return p
}

// Build creates a world with the reference detector and populates it from
// sc. Joint endpoints are resolved by label; an empty label is the world.
func Build[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], sc config.SceneConfig, params world.Params[S, V], opts ...world.Option) (*world.World[S, V, A, R, I], error) {
	var det collision.Detector[S, V, A, R, I] = collision.NewReference(sp)
	w, err := world.New(sp, det, params, opts...)
	if err != nil {
		return nil, err
	}
	if err := Populate(w, sc); err != nil {
		return nil, err
	}
	return w, nil
}

// Populate adds the bodies and joints of sc to an existing world.
func Populate[S scalar.Float, V, A, R, I any](w *world.World[S, V, A, R, I], sc config.SceneConfig) error {
	sp := w.Space()
	p := w.Params()
	defaults := body.Material[S]{Restitution: p.Restitution, Friction: p.Friction}
	handles := make(map[string]body.Handle, len(sc.Bodies))
	for i, bc := range sc.Bodies {
		if bc.Label != "" {
			if _, dup := handles[bc.Label]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateLabel, bc.Label)
			}
		}
		desc, err := Desc(sp, bc, defaults)
		if err != nil {
			return fmt.Errorf("scene: body %d (%q): %w", i, bc.Label, err)
		}
		h, err := w.AddBody(desc)
		if err != nil {
			return fmt.Errorf("scene: body %d: %w", i, err)
		}
		if bc.Label != "" {
			handles[bc.Label] = h
		}
	}

	for i, jc := range sc.Joints {
		resolve := func(label string) (body.Handle, error) {
			if label == "" {
				return body.Handle{}, nil
			}
			h, ok := handles[label]
			if !ok {
				return body.Handle{}, fmt.Errorf("scene: joint %d: %w: no body %q", i, world.ErrMissingBody, label)
			}
			return h, nil
		}
		a, err := resolve(jc.A)
		if err != nil {
			return err
		}
		b, err := resolve(jc.B)
		if err != nil {
			return err
		}
		if a.IsZero() {
			a, b = b, a
		}
		anchor := sp.Vector(jc.Anchor...)
		var d world.JointDesc[V]
		switch jc.Kind {
		case "ball":
			d = world.BallInSocket(a, b, anchor)
		case "fixed":
			d = world.Fixed(a, b, anchor)
		default:
			return fmt.Errorf("scene: joint %d: unknown kind %q", i, jc.Kind)
		}
		if _, err := w.AddJoint(d); err != nil {
			return fmt.Errorf("scene: joint %d (%s %q-%q): %w", i, jc.Kind, jc.A, jc.B, err)
		}
	}
	return nil
}

// Desc converts one body description. Missing sizes fall back to a 0.5
// radius or half extent; a dynamic body with neither mass nor density gets
// unit density. A body overriding only one material coefficient takes the
// other from defaults.
func Desc[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], bc config.BodyConfig, defaults body.Material[S]) (body.Desc[S, V, A, R, I], error) {
	d := body.Desc[S, V, A, R, I]{
		Label:           bc.Label,
		Static:          bc.Static,
		Position:        sp.Vector(bc.Position...),
		LinearVelocity:  sp.Vector(bc.Velocity...),
		AngularVelocity: sp.AngVector(bc.AngularVelocity...),
		Mass:            S(bc.Mass),
		Density:         S(bc.Density),
		LinearDamping:   S(bc.LinearDamping),
		AngularDamping:  S(bc.AngularDamping),
		DisableSleep:    bc.DisableSleep,
		DisableCCD:      bc.DisableCCD,
	}
	if len(bc.Rotation) > 0 {
		q := sp.Rotation(bc.Rotation...)
		d.Rotation = &q
	}
	if !bc.Static && bc.Mass == 0 && bc.Density == 0 {
		d.Density = defaultDensity
	}
	if bc.Restitution != nil || bc.Friction != nil {
		m := defaults
		if bc.Restitution != nil {
			m.Restitution = S(*bc.Restitution)
		}
		if bc.Friction != nil {
			m.Friction = S(*bc.Friction)
		}
		d.Material = &m
	}

	switch bc.Shape {
	case "ball":
		r := bc.Radius
		if r == 0 {
			r = defaultRadius
		}
		if !(r > 0) {
			return d, fmt.Errorf("ball radius must be positive, got %v", r)
		}
		d.Shape = shape.NewBall[S, V](S(r))
	case "box":
		half := make([]float64, sp.Dim())
		for i := range half {
			half[i] = defaultHalf
			if i < len(bc.Half) {
				half[i] = bc.Half[i]
			}
			if !(half[i] > 0) {
				return d, fmt.Errorf("box half extents must be positive, got %v", bc.Half)
			}
		}
		d.Shape = shape.NewBox[S, V](sp, sp.Vector(half...))
	case "plane":
		n := sp.Axis(1)
		if len(bc.Normal) > 0 {
			n = sp.Vector(bc.Normal...)
		}
		if space.Length[S, V](sp, n) <= scalar.Epsilon[S]() {
			return d, fmt.Errorf("plane normal must be non-zero")
		}
		d.Shape = shape.NewPlane[S, V](sp, n)
	default:
		return d, fmt.Errorf("unknown shape %q", bc.Shape)
	}
	return d, nil
}
