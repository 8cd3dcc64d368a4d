package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
)

type ExportData struct {
	Run       RunMetadata      `json:"run"`
	Times     []float64        `json:"times"`
	Snapshots []world.Snapshot `json:"snapshots"`
	Stats     []world.Stats    `json:"stats"`
}

// ExportJSON writes a run and its full trajectory as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, result *sim.Result) error {
	if meta.Metrics == nil {
		meta.Metrics = result.Metrics
	}
	data := ExportData{
		Run:       meta,
		Times:     result.Times(),
		Snapshots: result.Snapshots,
		Stats:     result.Stats,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes one row per body per sample. Vector columns are padded
// to the run's dimension.
func ExportCSV(w io.Writer, result *sim.Result) error {
	dim := 2
	if len(result.Snapshots) > 0 && result.Snapshots[0].Dim > 0 {
		dim = result.Snapshots[0].Dim
	}
	ang := 1
	if dim == 3 {
		ang = 3
	}

	cw := csv.NewWriter(w)
	header := []string{"step", "time", "body", "label", "status", "shape"}
	header = append(header, columns("x", dim)...)
	header = append(header, columns("r", ang)...)
	header = append(header, columns("v", dim)...)
	header = append(header, columns("w", ang)...)
	header = append(header, "mass", "kinetic_energy")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, snap := range result.Snapshots {
		for _, b := range snap.Bodies {
			row := []string{
				strconv.FormatUint(snap.Step, 10),
				formatFloat(snap.Time),
				b.Handle.String(),
				b.Label,
				b.Status.String(),
				b.Shape.String(),
			}
			row = append(row, padded(b.Position, dim)...)
			row = append(row, padded(b.Rotation, ang)...)
			row = append(row, padded(b.LinearVelocity, dim)...)
			row = append(row, padded(b.AngularVelocity, ang)...)
			row = append(row, formatFloat(b.Mass), formatFloat(b.KineticEnergy))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func columns(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + strconv.Itoa(i)
	}
	return out
}

func padded(v []float64, n int) []string {
	out := make([]string, n)
	for i := range out {
		if i < len(v) {
			out[i] = formatFloat(v[i])
		} else {
			out[i] = "0"
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
