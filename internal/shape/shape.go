// Package shape holds the collision primitives bodies are built from and
// their mass properties.
package shape

import (
	"errors"
	"fmt"

	"github.com/san-kum/rigidsim/internal/scalar"
	"github.com/san-kum/rigidsim/internal/space"
)

// ErrUnbounded is returned when mass properties are requested for a shape
// with infinite extent.
var ErrUnbounded = errors.New("shape: unbounded shape has no finite mass")

// Kind identifies a primitive.
type Kind int

const (
	KindBall Kind = iota
	KindBox
	KindPlane
)

func (k Kind) String() string {
	switch k {
	case KindBall:
		return "ball"
	case KindBox:
		return "box"
	case KindPlane:
		return "plane"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Shape is a collision primitive expressed in its body's local frame.
type Shape[S scalar.Float, V any] interface {
	Kind() Kind
	// BoundingRadius is the radius of the smallest origin-centred sphere
	// enclosing the shape. Infinite for planes.
	BoundingRadius() S
	// InnerRadius is the radius of the largest origin-centred sphere the
	// shape contains.
	InnerRadius() S
}

// Ball is a disk in 2D and a sphere in 3D.
type Ball[S scalar.Float, V any] struct {
	Radius S
}

func NewBall[S scalar.Float, V any](radius S) *Ball[S, V] {
	return &Ball[S, V]{Radius: radius}
}

func (b *Ball[S, V]) Kind() Kind        { return KindBall }
func (b *Ball[S, V]) BoundingRadius() S { return b.Radius }
func (b *Ball[S, V]) InnerRadius() S    { return b.Radius }

// Box is a rectangle in 2D and a cuboid in 3D, centred on the body origin.
type Box[S scalar.Float, V any] struct {
	Half  V
	outer S
	inner S
}

// NewBox builds a box from its half extents.
func NewBox[S scalar.Float, V any](l space.Linear[S, V], half V) *Box[S, V] {
	inner := scalar.Inf[S]()
	for i := 0; i < l.Dim(); i++ {
		inner = scalar.Min(inner, scalar.Abs(l.Elem(half, i)))
	}
	return &Box[S, V]{Half: half, outer: space.Length(l, half), inner: inner}
}

func (b *Box[S, V]) Kind() Kind        { return KindBox }
func (b *Box[S, V]) BoundingRadius() S { return b.outer }
func (b *Box[S, V]) InnerRadius() S    { return b.inner }

// Corners returns the 2^dim corners of the box in local coordinates.
// Corner i takes +half on axis k when bit k of i is set.
func (b *Box[S, V]) Corners(l space.Linear[S, V]) []V {
	dim := l.Dim()
	out := make([]V, 1<<dim)
	for i := range out {
		var c V
		for k := 0; k < dim; k++ {
			h := l.Elem(b.Half, k)
			if i&(1<<k) == 0 {
				h = -h
			}
			c = l.Add(c, l.Scale(l.Axis(k), h))
		}
		out[i] = c
	}
	return out
}

// Plane is the half-space n·x <= 0 in local coordinates; its surface passes
// through the body origin. Planes are only valid on static bodies.
type Plane[S scalar.Float, V any] struct {
	Normal V
}

// NewPlane builds a plane with the given outward normal, normalised.
func NewPlane[S scalar.Float, V any](l space.Linear[S, V], normal V) *Plane[S, V] {
	n, _ := space.Normalize(l, normal)
	return &Plane[S, V]{Normal: n}
}

func (p *Plane[S, V]) Kind() Kind        { return KindPlane }
func (p *Plane[S, V]) BoundingRadius() S { return scalar.Inf[S]() }
func (p *Plane[S, V]) InnerRadius() S    { return 0 }

// Measure returns the area (2D) or volume (3D) of a bounded shape.
func Measure[S scalar.Float, V any](l space.Linear[S, V], s Shape[S, V]) (S, error) {
	switch sh := s.(type) {
	case *Ball[S, V]:
		r := sh.Radius
		if l.Dim() == 2 {
			return S(3.141592653589793) * r * r, nil
		}
		return S(4.0/3.0*3.141592653589793) * r * r * r, nil
	case *Box[S, V]:
		m := S(1)
		for i := 0; i < l.Dim(); i++ {
			m *= 2 * scalar.Abs(l.Elem(sh.Half, i))
		}
		return m, nil
	case *Plane[S, V]:
		return 0, ErrUnbounded
	default:
		return 0, fmt.Errorf("shape: unsupported shape %T", s)
	}
}

// MassProperties returns the mass and local inertia tensor of s at the
// given density.
func MassProperties[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], s Shape[S, V], density S) (S, I, error) {
	measure, err := Measure[S, V](sp, s)
	if err != nil {
		return 0, sp.ZeroInertia(), err
	}
	mass := measure * density
	inertia, err := Inertia(sp, s, mass)
	return mass, inertia, err
}

// Inertia returns the local inertia tensor of s for a given mass.
func Inertia[S scalar.Float, V, A, R, I any](sp space.Space[S, V, A, R, I], s Shape[S, V], mass S) (I, error) {
	switch sh := s.(type) {
	case *Ball[S, V]:
		return sp.BallInertia(mass, sh.Radius), nil
	case *Box[S, V]:
		return sp.BoxInertia(mass, sh.Half), nil
	case *Plane[S, V]:
		return sp.ZeroInertia(), ErrUnbounded
	default:
		return sp.ZeroInertia(), fmt.Errorf("shape: unsupported shape %T", s)
	}
}
