// Package storage persists runs in a SQLite database under the data
// directory.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
	_ "modernc.org/sqlite"
)

// DBName is the database file created inside the data directory.
const DBName = "runs.db"

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrNotOpen     = errors.New("storage: store is not initialised")
)

//go:embed schema.sql
var schema string

type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the data directory, opens the database and applies the
// schema.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	dsn := filepath.Join(filepath.Clean(s.baseDir), DBName) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scene      string             `json:"scene"`
	Timestamp  time.Time          `json:"timestamp"`
	Dim        int                `json:"dim"`
	Precision  int                `json:"precision"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Steps      int                `json:"steps"`
	Bodies     int                `json:"bodies"`
	Gravity    []float64          `json:"gravity"`
	Metrics    map[string]float64 `json:"metrics"`
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Save stores a run and its samples in one transaction. ID, Timestamp,
// Steps, Bodies and Metrics of meta are filled in from result when empty.
func (s *Store) Save(ctx context.Context, meta RunMetadata, result *sim.Result) (string, error) {
	if s.db == nil {
		return "", ErrNotOpen
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Scene, meta.Timestamp.UnixNano())
	}
	if meta.Steps == 0 {
		meta.Steps = result.StepsTaken
	}
	if meta.Bodies == 0 && len(result.Snapshots) > 0 {
		meta.Bodies = len(result.Snapshots[0].Bodies)
	}
	if meta.Metrics == nil {
		meta.Metrics = result.Metrics
	}
	metricsJSON, err := json.Marshal(meta.Metrics)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scene, created_at, dim, precision, dt, duration, integrator, steps, bodies, gravity, metrics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Scene, toMillis(meta.Timestamp), meta.Dim, meta.Precision,
		meta.Dt, meta.Duration, meta.Integrator, meta.Steps, meta.Bodies, floats(meta.Gravity), string(metricsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	frameStmt, err := tx.PrepareContext(ctx, `INSERT INTO frames (run_id, step, time, stats) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer frameStmt.Close()
	sampleStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (run_id, step, time, body, handle_index, handle_gen, label, status, shape,
		   position, rotation, linear_velocity, angular_velocity, mass, kinetic_energy, extent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer sampleStmt.Close()

	for i, snap := range result.Snapshots {
		var st world.Stats
		if i < len(result.Stats) {
			st = result.Stats[i]
		}
		statsJSON, err := json.Marshal(st)
		if err != nil {
			return "", err
		}
		if _, err := frameStmt.ExecContext(ctx, meta.ID, int64(snap.Step), snap.Time, string(statsJSON)); err != nil {
			return "", fmt.Errorf("insert frame %d: %w", snap.Step, err)
		}
		for j, b := range snap.Bodies {
			if _, err := sampleStmt.ExecContext(ctx,
				meta.ID, int64(snap.Step), snap.Time, j, b.Handle.Index, b.Handle.Gen, b.Label, int(b.Status), int(b.Shape),
				floats(b.Position), floats(b.Rotation), floats(b.LinearVelocity), floats(b.AngularVelocity),
				b.Mass, b.KineticEnergy, floats(b.Extent),
			); err != nil {
				return "", fmt.Errorf("insert sample %d/%d: %w", snap.Step, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns every run, newest first.
func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scene, created_at, dim, precision, dt, duration, integrator, steps, bodies, gravity, metrics
		 FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *Store) Load(ctx context.Context, runID string) (*RunMetadata, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scene, created_at, dim, precision, dt, duration, integrator, steps, bodies, gravity, metrics
		 FROM runs WHERE id = ?`, runID)
	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples rebuilds the recorded trajectory of a run.
func (s *Store) LoadSamples(ctx context.Context, runID string) (*sim.Result, error) {
	meta, err := s.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	result := &sim.Result{Metrics: meta.Metrics, StepsTaken: meta.Steps}

	frames, err := s.db.QueryContext(ctx, `SELECT step, time, stats FROM frames WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, err
	}
	index := make(map[uint64]int)
	for frames.Next() {
		var (
			snap      world.Snapshot
			st        world.Stats
			statsJSON string
		)
		if err := frames.Scan(&snap.Step, &snap.Time, &statsJSON); err != nil {
			frames.Close()
			return nil, err
		}
		if err := json.Unmarshal([]byte(statsJSON), &st); err != nil {
			frames.Close()
			return nil, fmt.Errorf("decode stats of step %d: %w", snap.Step, err)
		}
		snap.Dim = meta.Dim
		index[snap.Step] = len(result.Snapshots)
		result.Snapshots = append(result.Snapshots, snap)
		result.Stats = append(result.Stats, st)
	}
	frames.Close()
	if err := frames.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT step, handle_index, handle_gen, label, status, shape, position, rotation, linear_velocity, angular_velocity, mass, kinetic_energy, extent
		 FROM samples WHERE run_id = ? ORDER BY step, body`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			step                    uint64
			status, kind            int
			pos, rot, lin, ang, ext string
			b                       world.Sample
		)
		if err := rows.Scan(&step, &b.Handle.Index, &b.Handle.Gen, &b.Label, &status, &kind, &pos, &rot, &lin, &ang, &b.Mass, &b.KineticEnergy, &ext); err != nil {
			return nil, err
		}
		b.Status, b.Shape = body.Status(status), shape.Kind(kind)
		for _, f := range []struct {
			src string
			dst *[]float64
		}{{pos, &b.Position}, {rot, &b.Rotation}, {lin, &b.LinearVelocity}, {ang, &b.AngularVelocity}, {ext, &b.Extent}} {
			if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
				return nil, fmt.Errorf("decode sample of step %d: %w", step, err)
			}
		}
		i, ok := index[step]
		if !ok {
			return nil, fmt.Errorf("storage: sample at step %d has no frame", step)
		}
		result.Snapshots[i].Bodies = append(result.Snapshots[i].Bodies, b)
	}
	return result, rows.Err()
}

// Delete removes a run and its samples.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if s.db == nil {
		return ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunMetadata, error) {
	var (
		meta        RunMetadata
		created     int64
		gravityJSON string
		metricsJSON string
	)
	if err := sc.Scan(&meta.ID, &meta.Scene, &created, &meta.Dim, &meta.Precision, &meta.Dt,
		&meta.Duration, &meta.Integrator, &meta.Steps, &meta.Bodies, &gravityJSON, &metricsJSON); err != nil {
		return meta, err
	}
	meta.Timestamp = fromMillis(created)
	if err := json.Unmarshal([]byte(gravityJSON), &meta.Gravity); err != nil {
		return meta, fmt.Errorf("decode gravity of %s: %w", meta.ID, err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &meta.Metrics); err != nil {
		return meta, fmt.Errorf("decode metrics of %s: %w", meta.ID, err)
	}
	return meta, nil
}

func floats(v []float64) string {
	if v == nil {
		return "[]"
	}
	data, _ := json.Marshal(v)
	return string(data)
}
