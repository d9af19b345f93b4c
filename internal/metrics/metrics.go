// Package metrics provides run summaries for backlash simulations.
package metrics

import (
	"math"

	"github.com/hysterlab/blash/internal/backlash"
)

// LatchFraction reports the fraction of steps spent latched in the dead
// zone, detected as the output exactly holding its previous value on every
// channel. The first sample has no predecessor and never counts as latched.
type LatchFraction struct {
	name    string
	prev    backlash.Vec
	samples int
	latched int
}

func NewLatchFraction() *LatchFraction {
	return &LatchFraction{name: "latch_fraction"}
}

func (l *LatchFraction) Name() string { return l.name }

func (l *LatchFraction) Observe(u, x backlash.Vec, t float64) {
	if l.prev != nil && len(l.prev) == len(x) {
		held := true
		for i := range x {
			if x[i] != l.prev[i] {
				held = false
				break
			}
		}
		if held {
			l.latched++
		}
	}
	l.prev = x.Clone()
	l.samples++
}

func (l *LatchFraction) Value() float64 {
	if l.samples == 0 {
		return 0
	}
	return float64(l.latched) / float64(l.samples)
}

func (l *LatchFraction) Reset() {
	l.prev = nil
	l.samples = 0
	l.latched = 0
}

// PeakOutput tracks the largest output magnitude over any channel.
type PeakOutput struct {
	name string
	peak float64
}

func NewPeakOutput() *PeakOutput {
	return &PeakOutput{name: "peak_output"}
}

func (p *PeakOutput) Name() string { return p.name }

func (p *PeakOutput) Observe(u, x backlash.Vec, t float64) {
	for _, v := range x {
		p.peak = math.Max(p.peak, math.Abs(v))
	}
}

func (p *PeakOutput) Value() float64 { return p.peak }

func (p *PeakOutput) Reset() { p.peak = 0 }

// MeanGap averages the instantaneous dead-zone width z_up - z_lo of the
// model it watches, across steps and channels.
type MeanGap struct {
	name    string
	model   *backlash.Model
	total   float64
	samples int
}

func NewMeanGap(model *backlash.Model) *MeanGap {
	return &MeanGap{name: "mean_gap", model: model}
}

func (g *MeanGap) Name() string { return g.name }

func (g *MeanGap) Observe(u, x backlash.Vec, t float64) {
	zLo, zUp := g.model.ZLo(), g.model.ZUp()
	for i := range zLo {
		g.total += zUp[i] - zLo[i]
		g.samples++
	}
}

func (g *MeanGap) Value() float64 {
	if g.samples == 0 {
		return 0
	}
	return g.total / float64(g.samples)
}

func (g *MeanGap) Reset() {
	g.total = 0
	g.samples = 0
}
