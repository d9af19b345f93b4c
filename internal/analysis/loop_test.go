package analysis

import (
	"math"
	"testing"

	"github.com/hysterlab/blash/internal/sim"
)

func squareLoop() *sim.Result {
	// Unit square traversed counterclockwise in the (u, x) plane.
	us := []float64{0, 1, 1, 0}
	xs := []float64{0, 0, 1, 1}
	r := &sim.Result{}
	for i := range us {
		r.Times = append(r.Times, float64(i))
		r.Inputs = append(r.Inputs, []float64{us[i]})
		r.Outputs = append(r.Outputs, []float64{xs[i]})
		r.ZLo = append(r.ZLo, []float64{-1})
		r.ZUp = append(r.ZUp, []float64{1})
	}
	return r
}

func TestLoopAreaSquare(t *testing.T) {
	got := LoopArea(squareLoop(), 0)
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("expected area 1.0, got %v", got)
	}
}

func TestLoopAreaDegenerate(t *testing.T) {
	r := &sim.Result{
		Times:   []float64{0, 1},
		Inputs:  [][]float64{{0}, {1}},
		Outputs: [][]float64{{0}, {1}},
	}
	if got := LoopArea(r, 0); got != 0 {
		t.Errorf("expected zero area for two samples, got %v", got)
	}
	if got := LoopArea(nil, 0); got != 0 {
		t.Errorf("expected zero area for nil result, got %v", got)
	}
}

func TestLoopAreaCollapsedLine(t *testing.T) {
	// Passthrough trajectory: x == u, so the polygon has no interior.
	r := &sim.Result{}
	for i := 0; i < 10; i++ {
		v := math.Sin(float64(i))
		r.Times = append(r.Times, float64(i))
		r.Inputs = append(r.Inputs, []float64{v})
		r.Outputs = append(r.Outputs, []float64{v})
	}
	if got := LoopArea(r, 0); math.Abs(got) > 1e-12 {
		t.Errorf("expected zero area for collapsed loop, got %v", got)
	}
}

func TestClassifyRegimes(t *testing.T) {
	r := &sim.Result{
		Times:  []float64{0, 1, 2, 3, 4},
		Inputs: [][]float64{{-2}, {0}, {2}, {1}, {-1}},
		ZLo: [][]float64{
			{-1}, {-1}, {-1}, {-1}, {-1},
		},
		ZUp: [][]float64{
			{1}, {1}, {1}, {1}, {1},
		},
	}
	counts := ClassifyRegimes(r, 0)
	if counts.Lower != 1 {
		t.Errorf("expected 1 lower sample, got %d", counts.Lower)
	}
	if counts.Upper != 2 {
		t.Errorf("expected 2 upper samples, got %d", counts.Upper)
	}
	if counts.Hold != 2 {
		t.Errorf("expected 2 holding samples, got %d", counts.Hold)
	}
	if counts.Total() != 5 {
		t.Errorf("expected 5 total, got %d", counts.Total())
	}
}

func TestDeadZoneStats(t *testing.T) {
	r := &sim.Result{
		Times: []float64{0, 1, 2},
		ZLo:   [][]float64{{-1}, {-2}, {-1}},
		ZUp:   [][]float64{{1}, {2}, {1}},
	}
	stats := DeadZoneStats(r, 0)
	if stats.Min != 2 || stats.Max != 4 {
		t.Errorf("expected min 2 max 4, got %+v", stats)
	}
	if math.Abs(stats.Mean-8.0/3.0) > 1e-12 {
		t.Errorf("expected mean 8/3, got %v", stats.Mean)
	}
}
