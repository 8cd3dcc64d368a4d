package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	frameRate       = 30
	maxStepsPerTick = 240
	panelWidth      = 50
)

// Builder creates a fresh world; the live view calls it again on reset.
type Builder func() (sim.World, error)

type TickMsg time.Time

// Model is the bubbletea model of the live view. It steps the world in
// real time, scaled by the speed factor, and draws the latest snapshot.
type Model struct {
	title   string
	build   Builder
	gravity []float64

	world  sim.World
	snap   world.Snapshot
	stats  world.Stats
	err    error
	budget float64

	canvas *Canvas
	camera *Camera
	view   Viewport
	theme  Theme

	running  bool
	speed    float64
	energy   []float64
	contacts []float64
	showHelp bool
}

// NewModel builds the first world. gravity is used for the mechanical
// energy plot.
func NewModel(title string, gravity []float64, build Builder) (Model, error) {
	m := Model{
		title:   title,
		build:   build,
		gravity: gravity,
		canvas:  NewCanvas(width, height),
		theme:   Themes[0],
		running: true,
		speed:   1,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := max(msg.Width-panelWidth-6, 20)
		h := max(msg.Height-4, 10)
		m.canvas.Resize(w, h)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.err = m.reset()
		case ".":
			if !m.running {
				m.step(1)
			}
		case "+", "=":
			m.speed = math.Min(m.speed*2, 16)
		case "-", "_":
			m.speed = math.Max(m.speed/2, 1.0/16)
		case "left", "h":
			m.camera.Orbit(-0.1, 0)
		case "right", "l":
			m.camera.Orbit(0.1, 0)
		case "up", "k":
			m.camera.Orbit(0, 0.1)
		case "down", "j":
			m.camera.Orbit(0, -0.1)
		case "z":
			m.camera.ZoomIn()
		case "x":
			m.camera.ZoomOut()
		case "f":
			m.view = Fit(m.snap, m.camera)
		case "t":
			m.theme = NextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance(m.speed / frameRate)
		}
		return m, tick()
	}
	return m, nil
}

// advance runs as many steps as fit into dt seconds of simulated time,
// carrying the remainder to the next frame.
func (m *Model) advance(dt float64) {
	m.budget += dt
	n := int(m.budget / m.world.Dt())
	if n > maxStepsPerTick {
		n = maxStepsPerTick
		m.budget = 0
	} else {
		m.budget -= float64(n) * m.world.Dt()
	}
	m.step(n)
}

func (m *Model) step(n int) {
	if n <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		m.world.Step()
	}
	m.record()
}

func (m *Model) record() {
	m.snap = m.world.Snapshot()
	m.stats = m.world.Stats()
	m.energy = appendCapped(m.energy, metrics.Mechanical(m.snap, m.gravity))
	m.contacts = appendCapped(m.contacts, float64(m.stats.Contacts))
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// reset rebuilds the world and refits the view.
func (m *Model) reset() error {
	w, err := m.build()
	if err != nil {
		return err
	}
	m.world = w
	m.budget = 0
	m.energy = m.energy[:0]
	m.contacts = m.contacts[:0]
	m.record()
	if m.camera == nil || m.camera.Flat != (m.snap.Dim < 3) {
		m.camera = NewCamera(m.snap.Dim)
	}
	m.view = Fit(m.snap, m.camera)
	return nil
}

// Render draws the current snapshot onto the canvas.
func (m *Model) Render() string {
	m.canvas.Clear()
	w, h := m.canvas.Dots()
	Draw(m.canvas, NewProjector(m.camera, m.view, w, h), m.snap)
	return m.canvas.String()
}

func (m Model) View() string {
	st := newStyles(m.theme)
	canvasView := st.canvas.Render(m.Render())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(st.fault.Render("ERROR: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render(fmt.Sprintf("RUNNING x%g", m.speed)) + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}
	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.world.Time()))
	row("Step", fmt.Sprintf("%d", m.stats.Step))
	row("Bodies", fmt.Sprintf("%d (%d active, %d asleep)", m.stats.Bodies, m.stats.Active, m.stats.Sleeping))
	row("Islands", fmt.Sprintf("%d (%d awake)", m.stats.Islands, m.stats.ActiveIslands))
	row("Contacts", fmt.Sprintf("%d %s", m.stats.Contacts, Sparkline(m.contacts, 16)))
	row("Joints", fmt.Sprintf("%d", m.stats.Joints))
	row("Swept", fmt.Sprintf("%d", m.stats.Swept))
	row("Clamped", fmt.Sprintf("%d", m.stats.Clamped))
	row("Depth", fmt.Sprintf("%.4f", m.stats.MaxPenetration))
	if len(m.energy) > 0 {
		row("Energy", fmt.Sprintf("%.3f", m.energy[len(m.energy)-1]))
	}
	row("Theme", m.theme.Name)
	s.WriteString(st.help.Render("SP:Pause  .:Step  R:Reset  Q:Quit\n+/-:Speed F:Fit  T:Theme  ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
	if m.showHelp {
		return st.panel.Render(helpText) + "\n" + mainView
	}
	return mainView
}

const helpText = `Space      pause or resume
.          single step while paused
R          rebuild the scene
+ / -      double or halve speed
arrows/hjkl orbit the camera (3D)
Z / X      zoom in or out
F          refit the view
T          cycle themes
Q          quit`

// Run opens the live view in the alternate screen until the user quits.
func Run(title string, gravity []float64, build Builder) error {
	m, err := NewModel(title, gravity, build)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
