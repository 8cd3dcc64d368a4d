package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/san-kum/rigidsim/internal/world"
)

// Coordinates lists the names accepted by PhaseOf and Poincare.
var Coordinates = []string{"x", "y", "z", "angle"}

type Point struct{ X, Y float64 }

// Portrait holds position/velocity pairs of one body coordinate.
type Portrait struct {
	Label  string
	Coord  string
	Times  []float64
	Points []Point
}

// coordinate returns position and velocity of b along name. angle is the
// rotation about z: the angle itself in 2D, the z component of the
// rotation vector in 3D.
func coordinate(b world.Sample, name string) (pos, vel float64, ok bool) {
	at := func(xs []float64, i int) (float64, bool) {
		if i < len(xs) {
			return xs[i], true
		}
		return 0, false
	}
	var i int
	switch name {
	case "x":
		i = 0
	case "y":
		i = 1
	case "z":
		i = 2
	case "angle":
		j := len(b.Rotation) - 1
		if j < 0 {
			return 0, 0, false
		}
		p, _ := at(b.Rotation, j)
		v, okv := at(b.AngularVelocity, j)
		return p, v, okv
	default:
		return 0, 0, false
	}
	p, okp := at(b.Position, i)
	v, okv := at(b.LinearVelocity, i)
	return p, v, okp && okv
}

// PhaseOf pairs the position and velocity of label along coord for every
// snapshot that contains the body.
func PhaseOf(snaps []world.Snapshot, label, coord string) (Portrait, error) {
	p := Portrait{Label: label, Coord: coord}
	for _, s := range snaps {
		b, ok := s.Find(label)
		if !ok {
			continue
		}
		x, v, ok := coordinate(b, coord)
		if !ok {
			return Portrait{}, fmt.Errorf("analysis: %s has no coordinate %q in %dD", label, coord, s.Dim)
		}
		p.Times = append(p.Times, s.Time)
		p.Points = append(p.Points, Point{x, v})
	}
	if len(p.Points) == 0 {
		return Portrait{}, fmt.Errorf("%w: %q", ErrNoBody, label)
	}
	return p, nil
}

// Poincare records the phase point of label along coord each time its
// position rises through level. Crossing points are interpolated linearly
// between samples.
func Poincare(snaps []world.Snapshot, label, coord string, level float64) (Portrait, error) {
	phase, err := PhaseOf(snaps, label, coord)
	if err != nil {
		return Portrait{}, err
	}
	section := Portrait{Label: label, Coord: coord}
	for i := 1; i < len(phase.Points); i++ {
		a, b := phase.Points[i-1], phase.Points[i]
		if a.X < level && b.X >= level {
			f := (level - a.X) / (b.X - a.X)
			section.Times = append(section.Times, phase.Times[i-1]+f*(phase.Times[i]-phase.Times[i-1]))
			section.Points = append(section.Points, Point{level, a.Y + f*(b.Y-a.Y)})
		}
	}
	return section, nil
}

// Plot draws the portrait on a braille canvas of width by height cells,
// joining consecutive points. Axes are drawn where they cross the bounds.
func (p Portrait) Plot(width, height int, joined bool) string {
	c := viz.NewCanvas(width, height)
	if len(p.Points) == 0 {
		return c.String()
	}
	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, q := range p.Points {
		minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
		minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	dw, dh := c.Dots()
	dot := func(x, y float64) (int, int) {
		return int((x - minX) / rangeX * float64(dw-1)), dh - 1 - int((y-minY)/rangeY*float64(dh-1))
	}
	if minX <= 0 && minX+rangeX >= 0 {
		col, _ := dot(0, 0)
		c.DrawLine(col, 0, col, dh-1)
	}
	if minY <= 0 && minY+rangeY >= 0 {
		_, row := dot(0, 0)
		c.DrawLine(0, row, dw-1, row)
	}

	px, py := dot(p.Points[0].X, p.Points[0].Y)
	c.Set(px, py)
	for _, q := range p.Points[1:] {
		x, y := dot(q.X, q.Y)
		if joined {
			c.DrawLine(px, py, x, y)
		} else {
			c.Set(x, y)
		}
		px, py = x, y
	}
	return c.String()
}
