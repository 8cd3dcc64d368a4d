package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/space"
	"github.com/san-kum/rigidsim/internal/world"
)

var (
	plane   space.Space[float64, mgl64.Vec2, float64, mgl64.Vec2, float64]       = space.Plane64{}
	plane32 space.Space[float32, mgl32.Vec2, float32, mgl32.Vec2, float32]       = space.Plane32{}
	euclid  space.Space[float64, mgl64.Vec3, mgl64.Vec3, mgl64.Quat, mgl64.Mat3] = space.Euclid64{}
)

func f(v float64) *float64 { return &v }

func pendulum() config.SceneConfig {
	return config.SceneConfig{
		Bodies: []config.BodyConfig{
			{Label: "ground", Shape: "plane", Static: true},
			{Label: "bob", Shape: "ball", Radius: 0.25, Mass: 2, Position: []float64{1, 3}},
			{Label: "crate", Shape: "box", Half: []float64{0.5, 0.25}, Position: []float64{4, 1}, Friction: f(0.9)},
		},
		Joints: []config.JointConfig{
			{Kind: "ball", A: "", B: "bob", Anchor: []float64{0, 3}},
		},
	}
}

func TestParamsOverrides(t *testing.T) {
	p := Params[float64, mgl64.Vec2](plane, config.ParamsConfig{
		Dt:          0.01,
		Iterations:  25,
		Gravity:     []float64{0, -1.62},
		Restitution: f(0),
		Friction:    f(0.2),
		DisableCCD:  true,
	})
	def := world.DefaultParams[float64, mgl64.Vec2](plane)

	if p.Dt != 0.01 || p.Iterations != 25 || p.Gravity != (mgl64.Vec2{0, -1.62}) {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.Friction != 0.2 || p.Restitution != 0 || p.CCD {
		t.Errorf("material or ccd not applied: %+v", p)
	}
	if p.Baumgarte != def.Baumgarte || p.Slop != def.Slop || p.SleepWindow != def.SleepWindow {
		t.Errorf("zero fields replaced defaults: %+v", p)
	}
	if err := p.Validate(plane); err != nil {
		t.Error(err)
	}
}

func TestBuild2D(t *testing.T) {
	w, err := Build(plane, pendulum(), world.DefaultParams[float64, mgl64.Vec2](plane))
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Bodies()) != 3 {
		t.Fatalf("%d bodies", len(w.Bodies()))
	}
	bob, ok := w.Find("bob")
	if !ok || bob.Mass() != 2 || bob.Position != (mgl64.Vec2{1, 3}) {
		t.Fatalf("bob = %+v", bob)
	}
	crate, _ := w.Find("crate")
	// default unit density over a 1 × 0.5 box
	if math.Abs(crate.Mass()-0.5) > 1e-12 {
		t.Errorf("crate mass %v", crate.Mass())
	}
	if crate.Material == nil || crate.Material.Friction != 0.9 || crate.Material.Restitution != w.Params().Restitution {
		t.Errorf("crate material %+v", crate.Material)
	}
	if ground, _ := w.Find("ground"); !ground.IsStatic() || ground.Shape().Kind() != shape.KindPlane {
		t.Error("ground is not a static plane")
	}
	if w.Stats().Joints != 0 {
		t.Error("stats before first step")
	}
	w.Step()
	if w.Stats().Joints != 1 {
		t.Errorf("joints %d", w.Stats().Joints)
	}
}

func TestBuildOtherInstantiations(t *testing.T) {
	sc := config.SceneConfig{Bodies: []config.BodyConfig{
		{Label: "floor", Shape: "plane", Static: true, Normal: []float64{0, 1, 0}},
		{Label: "die", Shape: "box", Position: []float64{0, 2, 0}, Rotation: []float64{0, 0.3, 0}},
	}}
	w3, err := Build(euclid, sc, world.DefaultParams[float64, mgl64.Vec3](euclid))
	if err != nil {
		t.Fatal(err)
	}
	die, _ := w3.Find("die")
	if got := euclid.RotationFloats(die.Rotation); math.Abs(got[1]-0.3) > 1e-12 {
		t.Errorf("rotation %v", got)
	}

	w32, err := Build(plane32, pendulum(), Params[float32, mgl32.Vec2](plane32, config.ParamsConfig{}))
	if err != nil {
		t.Fatal(err)
	}
	if bob, _ := w32.Find("bob"); bob.Mass() != 2 {
		t.Errorf("float32 bob mass %v", bob.Mass())
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		scene config.SceneConfig
		err   error
	}{
		{"unknown shape", config.SceneConfig{Bodies: []config.BodyConfig{{Shape: "cone"}}}, nil},
		{"negative radius", config.SceneConfig{Bodies: []config.BodyConfig{{Shape: "ball", Radius: -1}}}, nil},
		{"flat box", config.SceneConfig{Bodies: []config.BodyConfig{{Shape: "box", Half: []float64{1, 0}}}}, nil},
		{"dynamic plane", config.SceneConfig{Bodies: []config.BodyConfig{{Shape: "plane"}}}, world.ErrInvalidMassProperties},
		{"duplicate label", config.SceneConfig{Bodies: []config.BodyConfig{{Label: "a", Shape: "ball"}, {Label: "a", Shape: "ball"}}}, ErrDuplicateLabel},
		{"missing joint body", config.SceneConfig{
			Bodies: []config.BodyConfig{{Label: "a", Shape: "ball"}},
			Joints: []config.JointConfig{{Kind: "ball", A: "a", B: "ghost"}},
		}, world.ErrMissingBody},
		{"joint to itself", config.SceneConfig{
			Bodies: []config.BodyConfig{{Label: "a", Shape: "ball"}},
			Joints: []config.JointConfig{{Kind: "fixed", A: "a", B: "a"}},
		}, world.ErrDegenerateConstraint},
		{"joint between statics", config.SceneConfig{
			Bodies: []config.BodyConfig{{Label: "a", Shape: "ball", Static: true}, {Label: "b", Shape: "ball", Static: true}},
			Joints: []config.JointConfig{{Kind: "ball", A: "a", B: "b"}},
		}, world.ErrDegenerateConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(plane, tt.scene, world.DefaultParams[float64, mgl64.Vec2](plane))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestBuildRejectsBadParams(t *testing.T) {
	p := world.DefaultParams[float64, mgl64.Vec2](plane)
	p.Iterations = 0
	if _, err := Build(plane, pendulum(), p); !errors.Is(err, world.ErrInvalidParams) {
		t.Fatalf("err = %v", err)
	}
}

func TestDescDefaults(t *testing.T) {
	d, err := Desc(plane, config.BodyConfig{Shape: "ball"}, body.Material[float64]{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Density != 1 || d.Material != nil || d.Rotation != nil {
		t.Errorf("desc = %+v", d)
	}
	if b, ok := d.Shape.(*shape.Ball[float64, mgl64.Vec2]); !ok || b.Radius != 0.5 {
		t.Errorf("shape = %#v", d.Shape)
	}
}
