// Package sim drives an input source through a backlash model over a time
// grid, recording inputs, outputs, and dead-zone edges for storage, plotting,
// and identification.
package sim

import (
	"context"
	"fmt"

	"github.com/hysterlab/blash/internal/backlash"
	"github.com/hysterlab/blash/internal/signal"
)

type Runner struct {
	model     *backlash.Model
	source    signal.Source
	metrics   []Metric
	observers []Observer
}

func New(model *backlash.Model, source signal.Source) *Runner {
	return &Runner{
		model:     model,
		source:    source,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run steps the model over int(duration/dt) samples. The same source value
// feeds every channel.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	dim := r.model.Dim()
	result := &Result{
		Times:   make([]float64, 0, steps),
		Inputs:  make([][]float64, 0, steps),
		Outputs: make([][]float64, 0, steps),
		ZLo:     make([][]float64, 0, steps),
		ZUp:     make([][]float64, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	u := make(backlash.Vec, dim)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		v := r.source.At(t)
		for d := range u {
			u[d] = v
		}

		zLo, zUp := r.model.ZLo(), r.model.ZUp()
		x := r.model.Step(u)

		for _, m := range r.metrics {
			m.Observe(u, x, t)
		}
		for _, obs := range r.observers {
			obs.OnStep(u, x, t)
		}

		result.Times = append(result.Times, t)
		result.Inputs = append(result.Inputs, u.Clone())
		result.Outputs = append(result.Outputs, x)
		result.ZLo = append(result.ZLo, zLo)
		result.ZUp = append(result.ZUp, zUp)
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback streams samples to cb instead of recording them; cb
// returning false stops the run early without error.
func (r *Runner) RunWithCallback(ctx context.Context, cfg Config, cb func(u, x backlash.Vec, t float64) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	steps := int(cfg.Duration / cfg.Dt)
	u := make(backlash.Vec, r.model.Dim())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		v := r.source.At(t)
		for d := range u {
			u[d] = v
		}

		x := r.model.Step(u)
		if !cb(u.Clone(), x, t) {
			return nil
		}
	}

	return nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

// Triples rearranges a recorded run into the (u, x, x_prev) rows the fitting
// routine consumes: sample i pairs the input and output at step i+1 with the
// output at step i.
func Triples(result *Result) (u, x, xPrev []backlash.Vec) {
	if len(result.Outputs) < 2 {
		return nil, nil, nil
	}

	n := len(result.Outputs) - 1
	u = make([]backlash.Vec, n)
	x = make([]backlash.Vec, n)
	xPrev = make([]backlash.Vec, n)
	for i := 0; i < n; i++ {
		u[i] = backlash.Vec(result.Inputs[i+1]).Clone()
		x[i] = backlash.Vec(result.Outputs[i+1]).Clone()
		xPrev[i] = backlash.Vec(result.Outputs[i]).Clone()
	}
	return u, x, xPrev
}
