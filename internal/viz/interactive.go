package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Entry is a scene offered by the menu.
type Entry struct {
	Name    string
	About   string
	Presets []string
}

// Opener prepares the world of a scene and preset for the live view.
type Opener func(scene, preset string) (build Builder, gravity []float64, err error)

const (
	stateMenu = iota
	statePresets
	stateSim
)

// App lets the user pick a scene and preset before switching to the live
// view. Esc in the live view returns to the menu.
type App struct {
	state   int
	entries []Entry
	open    Opener
	cursor  int
	preset  int
	theme   Theme
	err     error
	live    Model
}

func NewApp(entries []Entry, open Opener) App {
	return App{entries: entries, open: open, theme: Themes[0]}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = statePresets
			return a, nil
		}
		live, cmd := a.live.Update(msg)
		a.live = live.(Model)
		return a, cmd
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		a.move(-1)
	case "down", "j":
		a.move(1)
	case "esc":
		a.state, a.err = stateMenu, nil
	case "enter", " ":
		return a.choose()
	}
	return a, nil
}

func (a *App) move(d int) {
	if a.state == stateMenu {
		a.cursor = min(max(a.cursor+d, 0), len(a.entries)-1)
		return
	}
	a.preset = min(max(a.preset+d, 0), len(a.presets())-1)
}

// presets lists the presets of the selected scene, with the generated
// scene first.
func (a App) presets() []string {
	return append([]string{"(generated)"}, a.entries[a.cursor].Presets...)
}

func (a App) choose() (tea.Model, tea.Cmd) {
	if len(a.entries) == 0 {
		return a, nil
	}
	if a.state == stateMenu {
		a.state, a.preset = statePresets, 0
		return a, nil
	}
	scene := a.entries[a.cursor].Name
	preset := ""
	if a.preset > 0 {
		preset = a.presets()[a.preset]
	}
	build, gravity, err := a.open(scene, preset)
	if err == nil {
		a.live, err = NewModel(title(scene, preset), gravity, build)
	}
	if err != nil {
		a.err = err
		return a, nil
	}
	a.live.theme = a.theme
	a.state, a.err = stateSim, nil
	return a, a.live.Init()
}

func title(scene, preset string) string {
	if preset == "" {
		return scene
	}
	return scene + "/" + preset
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View()
	}
	st := newStyles(a.theme)
	var b strings.Builder
	b.WriteString("\n  " + st.header.Render("RIGIDSIM") + "\n")

	var items, notes []string
	if a.state == stateMenu {
		for _, e := range a.entries {
			items = append(items, e.Name)
			notes = append(notes, e.About)
		}
	} else {
		e := a.entries[a.cursor]
		b.WriteString("  " + st.value.Render(e.Name+": "+e.About) + "\n\n")
		items = a.presets()
	}
	cur := a.cursor
	if a.state == statePresets {
		cur = a.preset
	}
	for i, name := range items {
		note := ""
		if i < len(notes) {
			note = notes[i]
		}
		line := fmt.Sprintf("%-14s %s", name, note)
		if i == cur {
			b.WriteString("  " + st.selected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + st.label.UnsetWidth().Render(line) + "\n")
		}
	}
	if a.err != nil {
		b.WriteString("\n  " + st.fault.Render(a.err.Error()) + "\n")
	}
	b.WriteString(st.help.Render("\n  j/k navigate  enter select  esc back  q quit") + "\n")
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// RunInteractive opens the scene menu in the alternate screen.
func RunInteractive(entries []Entry, open Opener) error {
	_, err := tea.NewProgram(NewApp(entries, open), tea.WithAltScreen()).Run()
	return err
}
