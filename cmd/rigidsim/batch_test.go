package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/san-kum/rigidsim/internal/world"
)

func TestTrajectories(t *testing.T) {
	frame := func(y float64) world.Snapshot {
		return world.Snapshot{Dim: 2, Bodies: []world.Sample{
			{Label: "ground", Status: body.Static, Position: []float64{0, 0}},
			{Label: "ball", Status: body.Active, Position: []float64{1, y}},
		}}
	}
	result := &sim.Result{Snapshots: []world.Snapshot{frame(4), frame(3), frame(1)}}

	got := trajectories(result, viz.NewCamera(2))
	if len(got) != 1 || got[0].Label != "ball" {
		t.Fatalf("paths %+v", got)
	}
	want := [][2]float64{{1, 4}, {1, 3}, {1, 1}}
	if diff := cmp.Diff(want, got[0].Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestStepDt(t *testing.T) {
	cfg := config.DefaultConfig()
	if got := stepDt(cfg); got != 1.0/60 {
		t.Errorf("default dt %v", got)
	}
	cfg.Params.Dt = 0.005
	if got := stepDt(cfg); got != 0.005 {
		t.Errorf("configured dt %v", got)
	}
}

func TestParseGrid(t *testing.T) {
	names, ranges, err := parseGrid([]string{"restitution=0, 0.5,1", "iterations=4,8"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"restitution", "iterations"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]float64{{0, 0.5, 1}, {4, 8}}, ranges); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"restitution", "dt=0.01,fast"} {
		if _, _, err := parseGrid([]string{bad}); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestMovingBody(t *testing.T) {
	s := world.Snapshot{Bodies: []world.Sample{
		{Label: "ground", Status: body.Static},
		{Label: "ball", Status: body.Sleeping},
	}}
	if label, ok := movingBody(s); !ok || label != "ball" {
		t.Errorf("got %q, %v", label, ok)
	}
	if _, ok := movingBody(world.Snapshot{}); ok {
		t.Error("empty snapshot has a moving body")
	}
}
