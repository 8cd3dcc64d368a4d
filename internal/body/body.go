// Package body is the body store: it owns rigid-body state and hands out
// generation-checked handles so that contacts, joints and islands can refer
// to bodies without owning them.
package body

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
)

// Status is the activation state of a body.
type Status int

const (
	Active Status = iota
	Sleeping
	Static
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Sleeping:
		return "sleeping"
	case Static:
		return "static"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Handle refers to a body slot. The zero Handle refers to no body and is
// used for world anchors.
type Handle struct {
	Index uint32
	Gen   uint32
}

func (h Handle) IsZero() bool { return h.Gen == 0 }

func (h Handle) String() string {
	if h.IsZero() {
		return "world"
	}
	return fmt.Sprintf("#%d", h.Index)
}

// Less orders handles by slot index.
func (h Handle) Less(o Handle) bool {
	if h.Index != o.Index {
		return h.Index < o.Index
	}
	return h.Gen < o.Gen
}

// Material overrides the world's default contact coefficients.
type Material[S scalar.Float] struct {
	Restitution S
	Friction    S
}

// Desc describes a body to insert into a [Store].
type Desc[S scalar.Float, V, A, R, I any] struct {
	Label  string
	Static bool
	Shape  shape.Shape[S, V]

	Position V
	// Rotation is the initial orientation; nil means identity.
	Rotation        *R
	LinearVelocity  V
	AngularVelocity A

	// Mass takes precedence over Density when positive.
	Mass    S
	Density S

	Material       *Material[S]
	LinearDamping  S
	AngularDamping S
	DisableSleep   bool
	DisableCCD     bool
}

// Body is a rigid body. Kinematic state is exported for the pipeline
// stages; callers outside a step should prefer the Set and Apply methods,
// which wake a sleeping body.
type Body[S scalar.Float, V, A, R, I any] struct {
	handle Handle
	label  string
	shape  shape.Shape[S, V]
	status Status

	Position        V
	Rotation        R
	LinearVelocity  V
	AngularVelocity A
	Force           V
	Torque          A

	mass            S
	invMass         S
	inertia         I
	invInertia      I
	invInertiaWorld I

	Material       *Material[S]
	LinearDamping  S
	AngularDamping S
	CanSleep       bool
	CCD            bool

	// SleepTime accumulates while the body is below the sleep thresholds.
	SleepTime S
	woken     bool
}

func (b *Body[S, V, A, R, I]) Handle() Handle           { return b.handle }
func (b *Body[S, V, A, R, I]) Label() string            { return b.label }
func (b *Body[S, V, A, R, I]) Shape() shape.Shape[S, V] { return b.shape }
func (b *Body[S, V, A, R, I]) Status() Status           { return b.status }
func (b *Body[S, V, A, R, I]) IsStatic() bool           { return b.status == Static }
func (b *Body[S, V, A, R, I]) IsActive() bool           { return b.status == Active }
func (b *Body[S, V, A, R, I]) Mass() S                  { return b.mass }
func (b *Body[S, V, A, R, I]) InvMass() S               { return b.invMass }
func (b *Body[S, V, A, R, I]) Inertia() I               { return b.inertia }
func (b *Body[S, V, A, R, I]) InvInertia() I            { return b.invInertiaWorld }

// Sync refreshes the world-space inverse inertia after a rotation change.
func (b *Body[S, V, A, R, I]) Sync(sp space.Space[S, V, A, R, I]) {
	if b.status == Static {
		b.invInertiaWorld = sp.ZeroInertia()
		return
	}
	b.invInertiaWorld = sp.WorldInertia(b.Rotation, b.invInertia)
}

// Sleep puts a dynamic body to sleep and zeroes its motion.
func (b *Body[S, V, A, R, I]) Sleep() {
	if b.status == Static {
		return
	}
	var zv V
	var za A
	b.status = Sleeping
	b.LinearVelocity = zv
	b.AngularVelocity = za
	b.Force = zv
	b.Torque = za
}

// Wake marks a dynamic body active and resets its sleep timer.
func (b *Body[S, V, A, R, I]) Wake() {
	if b.status == Static {
		return
	}
	if b.status == Sleeping {
		b.woken = true
	}
	b.status = Active
	b.SleepTime = 0
}

// Activate is Wake without flagging the body as explicitly woken; the
// island manager uses it when a whole island becomes active.
func (b *Body[S, V, A, R, I]) Activate() {
	if b.status == Static {
		return
	}
	b.status = Active
	b.SleepTime = 0
}

// TakeWoken reports whether the body was woken explicitly since the last
// call and clears the flag.
func (b *Body[S, V, A, R, I]) TakeWoken() bool {
	w := b.woken
	b.woken = false
	return w
}

func (b *Body[S, V, A, R, I]) SetPose(sp space.Space[S, V, A, R, I], p V, q R) {
	b.Position = p
	b.Rotation = q
	b.Sync(sp)
	b.Wake()
}

func (b *Body[S, V, A, R, I]) SetLinearVelocity(v V) {
	if b.status == Static {
		return
	}
	b.LinearVelocity = v
	b.Wake()
}

func (b *Body[S, V, A, R, I]) SetAngularVelocity(w A) {
	if b.status == Static {
		return
	}
	b.AngularVelocity = w
	b.Wake()
}

// ApplyForce adds a force through the centre of mass for the next step.
func (b *Body[S, V, A, R, I]) ApplyForce(sp space.Space[S, V, A, R, I], f V) {
	if b.status == Static {
		return
	}
	b.Force = sp.Add(b.Force, f)
	b.Wake()
}

func (b *Body[S, V, A, R, I]) ApplyTorque(sp space.Space[S, V, A, R, I], t A) {
	if b.status == Static {
		return
	}
	b.Torque = sp.AngAdd(b.Torque, t)
	b.Wake()
}

// ApplyImpulse changes the velocity immediately as if impulse acted at the
// world point p.
func (b *Body[S, V, A, R, I]) ApplyImpulse(sp space.Space[S, V, A, R, I], impulse, p V) {
	if b.status == Static {
		return
	}
	b.LinearVelocity = sp.Add(b.LinearVelocity, sp.Scale(impulse, b.invMass))
	r := sp.Sub(p, b.Position)
	b.AngularVelocity = sp.AngAdd(b.AngularVelocity, sp.MulInertia(b.invInertiaWorld, sp.Cross(r, impulse)))
	b.Wake()
}

// ClearForces resets the force and torque accumulators.
func (b *Body[S, V, A, R, I]) ClearForces() {
	var zv V
	var za A
	b.Force = zv
	b.Torque = za
}

// KineticEnergy returns ½mv² + ½ωᵀIω.
func (b *Body[S, V, A, R, I]) KineticEnergy(sp space.Space[S, V, A, R, I]) S {
	if b.status == Static {
		return 0
	}
	lin := 0.5 * b.mass * sp.Dot(b.LinearVelocity, b.LinearVelocity)
	iw := sp.WorldInertia(b.Rotation, b.inertia)
	ang := 0.5 * sp.AngDot(b.AngularVelocity, sp.MulInertia(iw, b.AngularVelocity))
	return lin + ang
}

// Speed returns |v|.
func (b *Body[S, V, A, R, I]) Speed(sp space.Space[S, V, A, R, I]) S {
	return scalar.Sqrt(sp.Dot(b.LinearVelocity, b.LinearVelocity))
}

// Momentum returns m·v.
func (b *Body[S, V, A, R, I]) Momentum(sp space.Space[S, V, A, R, I]) V {
	if b.status == Static {
		var zv V
		return zv
	}
	return sp.Scale(b.LinearVelocity, b.mass)
}

// VelocityAt returns the velocity of the body point currently at world
// position p.
func (b *Body[S, V, A, R, I]) VelocityAt(sp space.Space[S, V, A, R, I], p V) V {
	return sp.Add(b.LinearVelocity, sp.Perp(b.AngularVelocity, sp.Sub(p, b.Position)))
}

// WorldPoint maps a local point to world space.
func (b *Body[S, V, A, R, I]) WorldPoint(sp space.Space[S, V, A, R, I], local V) V {
	return sp.Add(b.Position, sp.Rotate(b.Rotation, local))
}

// LocalPoint maps a world point into the body frame.
func (b *Body[S, V, A, R, I]) LocalPoint(sp space.Space[S, V, A, R, I], world V) V {
	return sp.Unrotate(b.Rotation, sp.Sub(world, b.Position))
}
