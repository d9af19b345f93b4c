package sim

import (
	"fmt"

	"github.com/hysterlab/blash/internal/backlash"
)

// Metric accumulates a scalar summary over a run.
type Metric interface {
	Name() string
	Observe(u, x backlash.Vec, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every step, before the next sample is drawn.
type Observer interface {
	OnStep(u, x backlash.Vec, t float64)
}

type Config struct {
	Dt       float64
	Duration float64
}

func DefaultConfig() Config {
	return Config{Dt: 0.002, Duration: 5.0}
}

// Result holds one recorded run. ZLo and ZUp are the dead-zone edges as seen
// before each step, which is what a boundary redraw wants.
type Result struct {
	Times   []float64
	Inputs  [][]float64
	Outputs [][]float64
	ZLo     [][]float64
	ZUp     [][]float64
	Metrics map[string]float64
}

type RunError struct {
	Time    float64
	Step    int
	Message string
}

func (e RunError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
