package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

// Camera projects world points onto the screen plane. Flat cameras show
// the x/y plane as is; otherwise the camera orbits the origin and projects
// orthographically after yaw about y and pitch about x.
type Camera struct {
	Flat       bool
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera(dim int) *Camera {
	if dim < 3 {
		return &Camera{Flat: true, Zoom: 1}
	}
	return &Camera{Yaw: 0.6, Pitch: 0.35, Zoom: 1}
}

// Orbit turns the camera. Pitch stays short of the poles.
func (c *Camera) Orbit(yaw, pitch float64) {
	if c.Flat {
		return
	}
	c.Yaw = math.Mod(c.Yaw+yaw, 2*math.Pi)
	c.Pitch = mgl64.Clamp(c.Pitch+pitch, -1.5, 1.5)
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Project maps a world point to screen-plane coordinates, y up.
func (c *Camera) Project(p mgl64.Vec3) mgl64.Vec2 {
	if c.Flat {
		return mgl64.Vec2{p[0], p[1]}
	}
	sy, cy := math.Sincos(c.Yaw)
	x := p[0]*cy + p[2]*sy
	z := -p[0]*sy + p[2]*cy
	sp, cp := math.Sincos(c.Pitch)
	return mgl64.Vec2{x, p[1]*cp - z*sp}
}

// Viewport is the rectangle of screen-plane coordinates shown on the canvas.
type Viewport struct {
	Min, Max mgl64.Vec2
}

// minExtent keeps a single resting ball from filling the screen.
const minExtent = 4.0

// Fit returns a viewport framing every body of s. Planes contribute only
// their anchor point.
func Fit(s world.Snapshot, cam *Camera) Viewport {
	v := Viewport{
		Min: mgl64.Vec2{math.Inf(1), math.Inf(1)},
		Max: mgl64.Vec2{math.Inf(-1), math.Inf(-1)},
	}
	grow := func(p mgl64.Vec2, r float64) {
		for i := 0; i < 2; i++ {
			v.Min[i] = math.Min(v.Min[i], p[i]-r)
			v.Max[i] = math.Max(v.Max[i], p[i]+r)
		}
	}
	for _, b := range s.Bodies {
		p := cam.Project(vec3(b.Position))
		switch b.Shape {
		case shape.KindPlane:
			grow(p, 0)
		case shape.KindBall:
			grow(p, first(b.Extent))
		default:
			grow(p, vec3(b.Extent).Len())
		}
	}
	if len(s.Bodies) == 0 {
		v.Min, v.Max = mgl64.Vec2{}, mgl64.Vec2{}
	}
	for i := 0; i < 2; i++ {
		mid := (v.Min[i] + v.Max[i]) / 2
		half := math.Max((v.Max[i]-v.Min[i])/2+0.5, minExtent/2)
		v.Min[i], v.Max[i] = mid-half, mid+half
	}
	return v
}

// Projector maps world points to canvas dots for one frame.
type Projector struct {
	cam    *Camera
	center mgl64.Vec2
	scale  float64
	w, h   int
}

// NewProjector fits v into a w by h dot canvas keeping the aspect ratio.
func NewProjector(cam *Camera, v Viewport, w, h int) Projector {
	size := v.Max.Sub(v.Min)
	scale := math.Min(float64(w)/size[0], float64(h)/size[1]) * cam.Zoom
	return Projector{
		cam:    cam,
		center: v.Min.Add(v.Max).Mul(0.5),
		scale:  scale,
		w:      w,
		h:      h,
	}
}

// Scale returns dots per world unit.
func (p Projector) Scale() float64 { return p.scale }

func (p Projector) Dot(q mgl64.Vec3) (int, int) {
	s := p.cam.Project(q).Sub(p.center).Mul(p.scale)
	return int(math.Round(float64(p.w)/2 + s[0])), int(math.Round(float64(p.h)/2 - s[1]))
}

// Span is the world length, in screen units, of the canvas diagonal.
func (p Projector) Span() float64 {
	return math.Hypot(float64(p.w), float64(p.h)) / p.scale
}

func vec3(xs []float64) mgl64.Vec3 {
	var v mgl64.Vec3
	copy(v[:], xs)
	return v
}

func first(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[0]
}
