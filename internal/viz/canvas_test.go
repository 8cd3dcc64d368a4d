package viz

import (
	"strings"
	"testing"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	if got := string(c.Grid[0][0]); got != "⠁" {
		t.Errorf("cell 0 = %q, want ⠁", got)
	}
	if got := string(c.Grid[0][1]); got != "⢀" {
		t.Errorf("cell 1 = %q, want ⢀", got)
	}
	if !c.IsSet(3, 3) || c.IsSet(2, 3) {
		t.Error("IsSet disagrees with Set")
	}
	c.Unset(3, 3)
	if c.IsSet(3, 3) || c.Grid[0][1] != blank {
		t.Error("Unset left the dot lit")
	}
}

func TestCanvasOutOfBounds(t *testing.T) {
	c := NewCanvas(2, 2)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 8}, {100, 100}} {
		c.Set(p[0], p[1])
		if c.IsSet(p[0], p[1]) {
			t.Errorf("dot %v off the canvas reported lit", p)
		}
	}
	if c.Lit() != 0 {
		t.Errorf("Lit = %d, want 0", c.Lit())
	}
}

func TestCanvasDrawLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           int
	}{
		{"horizontal", 0, 2, 7, 2, 8},
		{"vertical", 3, 0, 3, 7, 8},
		{"diagonal", 0, 0, 7, 7, 8},
		{"point", 4, 4, 4, 4, 1},
		{"clipped", -1000, 2, 1000, 2, 8},
		{"outside", -50, -50, -10, -10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(4, 2)
			c.DrawLine(tt.x0, tt.y0, tt.x1, tt.y1)
			if got := c.Lit(); got != tt.want {
				t.Errorf("Lit = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCanvasCircle(t *testing.T) {
	c := NewCanvas(10, 6)
	c.DrawCircle(10, 10, 3)
	for _, p := range [][2]int{{13, 10}, {7, 10}, {10, 13}, {10, 7}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("expected %v on the circle", p)
		}
	}
	if c.IsSet(10, 10) {
		t.Error("outline should leave the centre dark")
	}

	c.Clear()
	c.FillCircle(10, 10, 1)
	if got := c.Lit(); got != 5 {
		t.Errorf("filled r=1 lit %d dots, want 5", got)
	}
}

func TestCanvasStringAndResize(t *testing.T) {
	c := NewCanvas(3, 2)
	rows := strings.Split(c.String(), "\n")
	if len(rows) != 2 || len([]rune(rows[0])) != 3 {
		t.Fatalf("unexpected layout %q", c.String())
	}
	c.Set(0, 0)
	c.Resize(5, 1)
	if w, h := c.Dots(); w != 10 || h != 4 {
		t.Errorf("Dots = %d,%d, want 10,4", w, h)
	}
	if c.Lit() != 0 {
		t.Error("Resize should clear the canvas")
	}
}
