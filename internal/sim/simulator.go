package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/rigidsim/internal/world"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/san-kum/rigidsim/internal/sim"

type Runner struct {
	world     World
	metrics   []Metric
	observers []Observer
	tracer    trace.Tracer
}

func New(w World) *Runner {
	return &Runner{
		world:     w,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		tracer:    otel.Tracer(tracerName),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// World returns the world being driven.
func (r *Runner) World() World { return r.world }

// Steps returns the number of steps a run of cfg takes on this world.
func (r *Runner) Steps(cfg Config) int {
	return int(math.Round(cfg.Duration / r.world.Dt()))
}

// Run steps the world for cfg.Duration of simulated time. The context is
// checked between steps, never during one; on cancellation the partial
// result is returned with the context's error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := r.validateConfig(cfg); err != nil {
		return nil, err
	}
	every := cfg.SampleEvery
	if every == 0 {
		every = 1
	}

	steps := r.Steps(cfg)
	ctx, span := r.tracer.Start(ctx, "sim.Run", trace.WithAttributes(
		attribute.String("run.label", cfg.Label),
		attribute.Int("run.steps", steps),
		attribute.Float64("run.dt", r.world.Dt()),
	))
	defer span.End()

	result := &Result{
		Snapshots: make([]world.Snapshot, 0, steps/every+1),
		Stats:     make([]world.Stats, 0, steps/every+1),
		Metrics:   make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	start := time.Now()
	r.sample(result)

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			r.finish(result, start)
			span.SetStatus(codes.Error, "cancelled")
			return result, ctx.Err()
		default:
		}

		r.world.Step()
		result.StepsTaken++

		if cfg.TraceEvery > 0 && i%cfg.TraceEvery == 0 {
			traceStats(span, r.world.Stats())
		}
		if i%every == 0 || i == steps {
			r.sample(result)
		}
	}

	r.finish(result, start)
	return result, nil
}

func (r *Runner) sample(result *Result) {
	snap := r.world.Snapshot()
	st := r.world.Stats()
	for _, m := range r.metrics {
		m.Observe(snap, st)
	}
	for _, obs := range r.observers {
		obs.OnStep(snap, st)
	}
	result.Snapshots = append(result.Snapshots, snap)
	result.Stats = append(result.Stats, st)
}

func (r *Runner) finish(result *Result, start time.Time) {
	result.Elapsed = time.Since(start).Seconds()
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (r *Runner) validateConfig(cfg Config) error {
	if r.world == nil {
		return fmt.Errorf("sim: no world")
	}
	if dt := r.world.Dt(); !(dt > 0) {
		return fmt.Errorf("sim: dt must be positive, got %f", dt)
	}
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0) {
		return fmt.Errorf("sim: duration must be positive, got %f", cfg.Duration)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sim: sample interval must not be negative, got %d", cfg.SampleEvery)
	}
	return nil
}

func traceStats(span trace.Span, st world.Stats) {
	span.AddEvent("step", trace.WithAttributes(
		attribute.Int64("step", int64(st.Step)),
		attribute.Int("bodies.active", st.Active),
		attribute.Int("bodies.sleeping", st.Sleeping),
		attribute.Int("islands.active", st.ActiveIslands),
		attribute.Int("contacts", st.Contacts),
		attribute.Int("degenerate", st.Degenerate),
		attribute.Int("clamped", st.Clamped),
		attribute.Float64("penetration.max", st.MaxPenetration),
	))
}
