package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

var boxEdges = [...][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Draw renders every body of s onto c.
func Draw(c *Canvas, p Projector, s world.Snapshot) {
	for _, b := range s.Bodies {
		rot := orientation(b.Rotation, s.Dim)
		pos := vec3(b.Position)
		switch b.Shape {
		case shape.KindBall:
			drawBall(c, p, pos, rot, first(b.Extent), b.Status == body.Sleeping)
		case shape.KindBox:
			drawBox(c, p, pos, rot, vec3(b.Extent), s.Dim)
		case shape.KindPlane:
			drawPlane(c, p, pos, vec3(b.Extent), s.Dim)
		}
	}
}

// orientation turns a sampled rotation (an angle in 2D, a rotation vector
// in 3D) into a quaternion.
func orientation(r []float64, dim int) mgl64.Quat {
	if dim < 3 {
		return mgl64.QuatRotate(first(r), mgl64.Vec3{0, 0, 1})
	}
	v := vec3(r)
	angle := v.Len()
	if angle < 1e-12 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, v.Mul(1/angle))
}

func drawBall(c *Canvas, p Projector, pos mgl64.Vec3, rot mgl64.Quat, radius float64, asleep bool) {
	x, y := p.Dot(pos)
	r := int(math.Round(radius * p.Scale()))
	if asleep {
		c.FillCircle(x, y, r)
		return
	}
	c.DrawCircle(x, y, r)
	sx, sy := p.Dot(pos.Add(rot.Rotate(mgl64.Vec3{radius, 0, 0})))
	c.DrawLine(x, y, sx, sy)
}

func drawBox(c *Canvas, p Projector, pos mgl64.Vec3, rot mgl64.Quat, half mgl64.Vec3, dim int) {
	var pts [8][2]int
	for i := range pts {
		corner := mgl64.Vec3{half[0], half[1], half[2]}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) == 0 {
				corner[axis] = -corner[axis]
			}
		}
		pts[i][0], pts[i][1] = p.Dot(pos.Add(rot.Rotate(corner)))
	}
	edges := boxEdges[:]
	if dim < 3 {
		edges = edges[:4]
	}
	for _, e := range edges {
		a, b := pts[e[0]], pts[e[1]]
		c.DrawLine(a[0], a[1], b[0], b[1])
	}
}

// drawPlane draws a plane as a line through its anchor in 2D and as a
// square patch with a centre cross in 3D.
func drawPlane(c *Canvas, p Projector, pos, normal mgl64.Vec3, dim int) {
	span := p.Span()
	if dim < 3 {
		t := mgl64.Vec3{-normal[1], normal[0], 0}.Mul(span)
		ax, ay := p.Dot(pos.Sub(t))
		bx, by := p.Dot(pos.Add(t))
		c.DrawLine(ax, ay, bx, by)
		return
	}
	t1, t2 := planeAxes(normal)
	t1, t2 = t1.Mul(span/2), t2.Mul(span/2)
	corners := [4]mgl64.Vec3{
		pos.Sub(t1).Sub(t2), pos.Add(t1).Sub(t2),
		pos.Add(t1).Add(t2), pos.Sub(t1).Add(t2),
	}
	for i := range corners {
		ax, ay := p.Dot(corners[i])
		bx, by := p.Dot(corners[(i+1)%4])
		c.DrawLine(ax, ay, bx, by)
	}
	for _, t := range [2]mgl64.Vec3{t1, t2} {
		ax, ay := p.Dot(pos.Sub(t))
		bx, by := p.Dot(pos.Add(t))
		c.DrawLine(ax, ay, bx, by)
	}
}

func planeAxes(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var t mgl64.Vec3
	if math.Abs(n[0]) >= 0.57735 {
		t = mgl64.Vec3{n[1], -n[0], 0}
	} else {
		t = mgl64.Vec3{0, n[2], -n[1]}
	}
	t = t.Normalize()
	return t, n.Cross(t)
}
