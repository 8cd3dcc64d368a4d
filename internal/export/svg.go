// Package export renders stored runs as SVG images.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/rigidsim/internal/viz"
)

// Palette colours successive paths.
var Palette = []string{"#00ffcc", "#ff6b6b", "#feca57", "#54a0ff", "#ff9ff3", "#5fd068"}

// CanvasToSVG writes every lit dot of a braille canvas as a circle, scale
// pixels apart.
func CanvasToSVG(w io.Writer, canvas *viz.Canvas, scale float64) error {
	dw, dh := canvas.Dots()
	bw := bufio.NewWriter(w)
	width, height := float64(dw)*scale, float64(dh)*scale
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	fmt.Fprint(bw, "</g>\n</svg>\n")
	return bw.Flush()
}

// Path is the screen-plane trajectory of one body.
type Path struct {
	Label  string
	Points [][2]float64
}

// PathsToSVG draws every path as a polyline in a shared frame with 10%
// padding, y up. Paths with fewer than two points are skipped.
func PathsToSVG(w io.Writer, paths []Path, width, height int) error {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range paths {
		for _, pt := range p.Points {
			minX, maxX = math.Min(minX, pt[0]), math.Max(maxX, pt[0])
			minY, maxY = math.Min(minY, pt[1]), math.Max(maxY, pt[1])
		}
	}
	if math.IsInf(minX, 1) {
		return fmt.Errorf("export: no points to draw")
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, p := range paths {
		if len(p.Points) < 2 {
			continue
		}
		fmt.Fprintf(bw, `<path id="%s" fill="none" stroke="%s" stroke-width="1.5" d="`, p.Label, Palette[i%len(Palette)])
		for j, pt := range p.Points {
			x := (pt[0] - minX) / rangeX * float64(width)
			y := float64(height) - (pt[1]-minY)/rangeY*float64(height)
			if j == 0 {
				fmt.Fprintf(bw, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(bw, " L%.1f,%.1f", x, y)
			}
		}
		fmt.Fprint(bw, "\"/>\n")
	}
	fmt.Fprint(bw, "</svg>\n")
	return bw.Flush()
}
