package experiment

import (
	"strconv"

	"github.com/san-kum/rigidsim/internal/config"
)

// vec places (x, y, z) in dim dimensions; z is dropped in 2D.
func vec(dim int, x, y, z float64) []float64 {
	if dim == 2 {
		return []float64{x, y}
	}
	return []float64{x, y, z}
}

func ground(dim int) config.BodyConfig {
	return config.BodyConfig{Label: "ground", Shape: "plane", Static: true, Normal: vec(dim, 0, 1, 0)}
}

func orDefault(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}

func dropScene(dim, _ int) config.SceneConfig {
	return config.SceneConfig{Name: "drop", Bodies: []config.BodyConfig{
		ground(dim),
		{Label: "ball", Shape: "ball", Radius: 0.5, Mass: 1, Position: vec(dim, 0, 4, 0)},
	}}
}

func stackScene(dim, count int) config.SceneConfig {
	count = orDefault(count, 5)
	sc := config.SceneConfig{Name: "stack", Count: count, Bodies: []config.BodyConfig{ground(dim)}}
	for i := 0; i < count; i++ {
		sc.Bodies = append(sc.Bodies, config.BodyConfig{
			Label:    label("ball", i),
			Shape:    "ball",
			Radius:   0.5,
			Mass:     1,
			Position: vec(dim, 0, 0.5+float64(i), 0),
		})
	}
	return sc
}

func newtonScene(dim, _ int) config.SceneConfig {
	return config.SceneConfig{Name: "newton", Bodies: []config.BodyConfig{
		{Label: "striker", Shape: "ball", Radius: 0.5, Mass: 1, Position: vec(dim, -2, 2, 0), Velocity: vec(dim, 3, 0, 0), DisableSleep: true},
		{Label: "target", Shape: "ball", Radius: 0.5, Mass: 1, Position: vec(dim, 0, 2, 0), DisableSleep: true},
	}}
}

func bulletScene(dim, _ int) config.SceneConfig {
	return config.SceneConfig{Name: "bullet", Bodies: []config.BodyConfig{
		{Label: "wall", Shape: "box", Static: true, Half: vec(dim, 0.05, 2, 2), Position: vec(dim, 5.5, 0, 0)},
		{Label: "bullet", Shape: "ball", Radius: 0.1, Mass: 0.05, Position: vec(dim, 0, 0, 0), Velocity: vec(dim, 300, 0, 0)},
	}}
}

func chainScene(dim, count int) config.SceneConfig {
	count = orDefault(count, 5)
	const (
		top  = 5.0
		link = 0.5
	)
	sc := config.SceneConfig{Name: "chain", Count: count, Bodies: []config.BodyConfig{ground(dim)}}
	prev := ""
	for i := 0; i < count; i++ {
		l := label("link", i)
		sc.Bodies = append(sc.Bodies, config.BodyConfig{
			Label:    l,
			Shape:    "ball",
			Radius:   0.2,
			Mass:     0.5,
			Position: vec(dim, link*float64(i+1), top, 0),
		})
		sc.Joints = append(sc.Joints, config.JointConfig{
			Kind:   "ball",
			A:      prev,
			B:      l,
			Anchor: vec(dim, link*float64(i), top, 0),
		})
		prev = l
	}
	return sc
}

func weldScene(dim, _ int) config.SceneConfig {
	return config.SceneConfig{
		Name: "weld",
		Bodies: []config.BodyConfig{
			ground(dim),
			{Label: "base", Shape: "box", Half: vec(dim, 0.5, 0.25, 0.25), Mass: 2, Position: vec(dim, 0, 3, 0), AngularVelocity: spin(dim, 0.5)},
			{Label: "arm", Shape: "ball", Radius: 0.25, Mass: 0.5, Position: vec(dim, 0.75, 3, 0)},
		},
		Joints: []config.JointConfig{
			{Kind: "fixed", A: "base", B: "arm", Anchor: vec(dim, 0.5, 3, 0)},
		},
	}
}

func pileScene(dim, count int) config.SceneConfig {
	count = orDefault(count, 20)
	const (
		spacing = 1.25
		width   = 6.0
	)
	sc := config.SceneConfig{Name: "pile", Count: count, Bodies: []config.BodyConfig{
		ground(dim),
		{Label: "left", Shape: "plane", Static: true, Normal: vec(dim, 1, 0, 0), Position: vec(dim, -width, 0, 0)},
		{Label: "right", Shape: "plane", Static: true, Normal: vec(dim, -1, 0, 0), Position: vec(dim, width, 0, 0)},
	}}
	cols := 5
	if dim == 3 {
		sc.Bodies = append(sc.Bodies,
			config.BodyConfig{Label: "back", Shape: "plane", Static: true, Normal: vec(dim, 0, 0, 1), Position: vec(dim, 0, 0, -width)},
			config.BodyConfig{Label: "front", Shape: "plane", Static: true, Normal: vec(dim, 0, 0, -1), Position: vec(dim, 0, 0, width)},
		)
		cols = 3
	}
	perLayer := cols
	if dim == 3 {
		perLayer = cols * cols
	}
	for i := 0; i < count; i++ {
		layer, cell := i/perLayer, i%perLayer
		cx, cz := cell%cols, cell/cols
		x := (float64(cx) - float64(cols-1)/2) * spacing
		z := (float64(cz) - float64(cols-1)/2) * spacing
		// odd layers are shifted so bodies land on gaps
		if layer%2 == 1 {
			x += spacing / 3
		}
		y := 1 + float64(layer)*spacing
		b := config.BodyConfig{Label: label("body", i), Position: vec(dim, x, y, z), Density: 1}
		if (layer+cx+cz)%2 == 0 {
			b.Shape, b.Radius = "ball", 0.45
		} else {
			b.Shape, b.Half = "box", vec(dim, 0.4, 0.4, 0.4)
		}
		sc.Bodies = append(sc.Bodies, b)
	}
	return sc
}

// spin is a rotation about the axis out of the x/y plane.
func spin(dim int, w float64) []float64 {
	if dim == 2 {
		return []float64{w}
	}
	return []float64{0, 0, w}
}

func label(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}
