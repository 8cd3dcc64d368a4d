package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/rigidsim/internal/world"
)

func sine(freq, interval float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*interval)
	}
	return out
}

func TestPowerSpectrumDominant(t *testing.T) {
	tests := []struct {
		name     string
		freq     float64
		interval float64
		n        int
	}{
		{"power of two", 2, 1.0 / 64, 128},
		{"any length", 2, 0.01, 200},
		{"slow", 0.5, 0.05, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spectrum, err := PowerSpectrum(sine(tt.freq, tt.interval, tt.n), tt.interval)
			if err != nil {
				t.Fatal(err)
			}
			freq, amp := spectrum.Dominant()
			if math.Abs(freq-tt.freq) > 1e-9 {
				t.Errorf("dominant %v Hz, expected %v", freq, tt.freq)
			}
			if math.Abs(amp-0.5) > 1e-6 {
				t.Errorf("amplitude %v, expected 0.5", amp)
			}
			if spectrum.Amplitude[0] > 1e-9 {
				t.Errorf("mean not removed: %v", spectrum.Amplitude[0])
			}
		})
	}
}

func TestPowerSpectrumFlat(t *testing.T) {
	spectrum, err := PowerSpectrum([]float64{1, 1, 1, 1, 1, 1}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if freq, amp := spectrum.Dominant(); freq != 0 || amp != 0 {
		t.Errorf("flat series: %v Hz at %v", freq, amp)
	}
}

func TestPowerSpectrumErrors(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1, 2}, 0.1); !errors.Is(err, ErrTooShort) {
		t.Errorf("short series: got %v", err)
	}
	if _, err := PowerSpectrum([]float64{1, 2, 3, 4}, 0); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestSpectrumBelow(t *testing.T) {
	s := Spectrum{Amplitude: []float64{0, 1, 2, 3, 4, 5}, Resolution: 0.5}
	if got := s.Below(1); len(got) != 3 {
		t.Errorf("below 1 Hz: %v", got)
	}
	if got := s.Below(100); len(got) != 6 {
		t.Errorf("below 100 Hz: %v", got)
	}
}

// oscillator samples a ball moving as y = sin t in 2D.
func oscillator(n int, dt float64) []world.Snapshot {
	var out []world.Snapshot
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		out = append(out, world.Snapshot{Step: uint64(i), Time: t, Dim: 2, Bodies: []world.Sample{
			{Label: "ground", Position: []float64{0, 0}, LinearVelocity: []float64{0, 0}, Rotation: []float64{0}, AngularVelocity: []float64{0}},
			{
				Label:           "ball",
				Position:        []float64{0, math.Sin(t)},
				LinearVelocity:  []float64{0, math.Cos(t)},
				Rotation:        []float64{t},
				AngularVelocity: []float64{1},
			},
		}})
	}
	return out
}

func TestPhaseOf(t *testing.T) {
	snaps := oscillator(50, 0.1)
	p, err := PhaseOf(snaps, "ball", "y")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != 50 {
		t.Fatalf("got %d points", len(p.Points))
	}
	for i, q := range p.Points {
		if r := q.X*q.X + q.Y*q.Y; math.Abs(r-1) > 1e-12 {
			t.Fatalf("point %d off the unit circle: %v", i, q)
		}
	}

	a, err := PhaseOf(snaps, "ball", "angle")
	if err != nil {
		t.Fatal(err)
	}
	if a.Points[10].X != snaps[10].Time || a.Points[10].Y != 1 {
		t.Errorf("angle point %v", a.Points[10])
	}
}

func TestPhaseOfErrors(t *testing.T) {
	snaps := oscillator(5, 0.1)
	if _, err := PhaseOf(snaps, "crate", "y"); !errors.Is(err, ErrNoBody) {
		t.Errorf("missing body: got %v", err)
	}
	if _, err := PhaseOf(snaps, "ball", "z"); err == nil {
		t.Error("expected error for z in 2D")
	}
	if _, err := PhaseOf(snaps, "ball", "w"); err == nil {
		t.Error("expected error for unknown coordinate")
	}
}

func TestPoincare(t *testing.T) {
	// three upward crossings of y = 0 at t = 2π, 4π, 6π
	snaps := oscillator(200, 0.1)
	s, err := Poincare(snaps, "ball", "y", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Points) != 3 {
		t.Fatalf("got %d crossings: %v", len(s.Times), s.Times)
	}
	for i, q := range s.Points {
		want := 2 * math.Pi * float64(i+1)
		if math.Abs(s.Times[i]-want) > 0.01 {
			t.Errorf("crossing %d at %v, expected %v", i, s.Times[i], want)
		}
		if q.X != 0 || math.Abs(q.Y-1) > 0.01 {
			t.Errorf("crossing %d phase %v", i, q)
		}
	}
}

func TestPortraitPlot(t *testing.T) {
	p, err := PhaseOf(oscillator(70, 0.1), "ball", "y")
	if err != nil {
		t.Fatal(err)
	}
	out := p.Plot(30, 10, true)
	lines := strings.Split(out, "\n")
	if len(lines) != 10 {
		t.Fatalf("got %d rows", len(lines))
	}
	if strings.TrimSpace(strings.ReplaceAll(out, "⠀", "")) == "" {
		t.Error("plot is blank")
	}
	if empty := (Portrait{}).Plot(5, 2, false); strings.Count(empty, "\n") != 1 {
		t.Errorf("empty plot %q", empty)
	}
}
