package viz

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/sim"
)

func dropBuilder(t *testing.T, preset string) Builder {
	t.Helper()
	reg := experiment.NewRegistry()
	cfg := config.GetPreset("drop", preset)
	if cfg == nil {
		t.Fatalf("no drop preset %q", preset)
	}
	return func() (sim.World, error) { return reg.Build(cfg) }
}

func newDropModel(t *testing.T) Model {
	t.Helper()
	m, err := NewModel("drop", []float64{0, -9.81}, dropBuilder(t, "default"))
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelAdvancesInRealTime(t *testing.T) {
	m := newDropModel(t)
	for i := 0; i < frameRate; i++ {
		var cmd tea.Cmd
		m, cmd = update(m, TickMsg(time.Now()))
		if cmd == nil {
			t.Fatal("tick should schedule the next tick")
		}
	}
	if got := m.world.Time(); got < 58.0/60 || got > 1+1e-9 {
		t.Errorf("one second of ticks advanced %v s", got)
	}
	if len(m.energy) < 2 {
		t.Errorf("energy history has %d entries", len(m.energy))
	}
}

func TestModelPauseStepReset(t *testing.T) {
	m := newDropModel(t)
	m, _ = update(m, key(" "))
	if m.running {
		t.Fatal("space should pause")
	}
	m, _ = update(m, TickMsg(time.Now()))
	if m.world.Time() != 0 {
		t.Errorf("paused model advanced to %v", m.world.Time())
	}
	m, _ = update(m, key("."))
	if m.stats.Step != 1 {
		t.Errorf("single step reached step %d", m.stats.Step)
	}
	m, _ = update(m, key("r"))
	if m.world.Time() != 0 || m.stats.Step != 0 {
		t.Errorf("reset left time %v step %d", m.world.Time(), m.stats.Step)
	}
	if m.err != nil {
		t.Errorf("reset failed: %v", m.err)
	}
}

func TestModelSpeedAndTheme(t *testing.T) {
	m := newDropModel(t)
	m, _ = update(m, key("+"))
	m, _ = update(m, key("+"))
	if m.speed != 4 {
		t.Errorf("speed = %v, want 4", m.speed)
	}
	for i := 0; i < 10; i++ {
		m, _ = update(m, key("-"))
	}
	if m.speed != 1.0/16 {
		t.Errorf("speed = %v, want floor 1/16", m.speed)
	}
	m, _ = update(m, key("t"))
	if m.theme.Name != Themes[1].Name {
		t.Errorf("theme = %s, want %s", m.theme.Name, Themes[1].Name)
	}
}

func TestModelQuit(t *testing.T) {
	m := newDropModel(t)
	_, cmd := update(m, key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModelView(t *testing.T) {
	m := newDropModel(t)
	m, _ = update(m, key(" "))
	view := m.View()
	for _, want := range []string{"DROP", "PAUSED", "Contacts", "Bodies"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.canvas.Lit() == 0 {
		t.Error("canvas is empty after render")
	}
}

func TestModelBuildError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewModel("x", nil, func() (sim.World, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected build error, got %v", err)
	}
}

func TestModel3DCamera(t *testing.T) {
	m, err := NewModel("drop", []float64{0, -9.81, 0}, dropBuilder(t, "3d"))
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if m.camera.Flat {
		t.Fatal("3D world should use an orbiting camera")
	}
	yaw := m.camera.Yaw
	m, _ = update(m, key("l"))
	if m.camera.Yaw == yaw {
		t.Error("l should orbit the camera")
	}
	m.View()
	if m.canvas.Lit() == 0 {
		t.Error("3D render is empty")
	}
}

func TestApp(t *testing.T) {
	var opened []string
	open := func(scene, preset string) (Builder, []float64, error) {
		opened = append(opened, scene+"|"+preset)
		if scene == "broken" {
			return nil, nil, errors.New("cannot build")
		}
		return dropBuilder(t, "default"), []float64{0, -9.81}, nil
	}
	a := NewApp([]Entry{
		{Name: "broken", About: "fails"},
		{Name: "drop", About: "a ball", Presets: []string{"bouncy"}},
	}, open)

	step := func(msg tea.Msg) {
		next, _ := a.Update(msg)
		a = next.(App)
	}
	enter := tea.KeyMsg{Type: tea.KeyEnter}

	step(enter)
	step(enter)
	if a.state != statePresets || a.err == nil {
		t.Fatalf("broken scene should stay on presets with an error, state %d err %v", a.state, a.err)
	}
	step(tea.KeyMsg{Type: tea.KeyEsc})
	step(key("j"))
	step(enter)
	step(key("j"))
	step(enter)
	if a.state != stateSim {
		t.Fatalf("state = %d, want live view", a.state)
	}
	if want := []string{"broken|", "drop|bouncy"}; strings.Join(opened, ",") != strings.Join(want, ",") {
		t.Errorf("opened %v, want %v", opened, want)
	}
	if !strings.Contains(a.View(), "DROP/BOUNCY") {
		t.Error("live view title missing")
	}
	step(tea.KeyMsg{Type: tea.KeyEsc})
	if a.state != statePresets {
		t.Errorf("esc in the live view should return to presets, state %d", a.state)
	}
}
