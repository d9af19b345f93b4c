// Package signal provides the scalar input sources driven through a
// backlash model during simulation and identification runs.
package signal

import (
	"fmt"
	"math"
)

// Source produces one input sample per time point.
type Source interface {
	At(t float64) float64
}

// DecayingSine is the reference identification signal: a linearly decaying
// sinusoid that sweeps both boundaries early and settles into the dead zone
// as the amplitude shrinks.
type DecayingSine struct {
	Amp  float64
	Freq float64
	TEnd float64
}

func (s *DecayingSine) At(t float64) float64 {
	return s.Amp * (1 - t/s.TEnd) * math.Cos(2*math.Pi*s.Freq*t)
}

// Sine is a constant-amplitude sinusoid.
type Sine struct {
	Amp  float64
	Freq float64
}

func (s *Sine) At(t float64) float64 {
	return s.Amp * math.Sin(2*math.Pi*s.Freq*t)
}

// Chirp sweeps linearly from F0 to F1 over TEnd.
type Chirp struct {
	Amp  float64
	F0   float64
	F1   float64
	TEnd float64
}

func (s *Chirp) At(t float64) float64 {
	k := (s.F1 - s.F0) / s.TEnd
	return s.Amp * math.Sin(2*math.Pi*(s.F0*t+0.5*k*t*t))
}

// Triangle is a symmetric triangle wave, useful for tracing the hysteresis
// loop at constant input rate.
type Triangle struct {
	Amp    float64
	Period float64
}

func (s *Triangle) At(t float64) float64 {
	phase := math.Mod(t/s.Period, 1)
	if phase < 0 {
		phase++
	}
	if phase < 0.25 {
		return 4 * s.Amp * phase
	}
	if phase < 0.75 {
		return s.Amp * (2 - 4*phase)
	}
	return 4 * s.Amp * (phase - 1)
}

// StepSource jumps from zero to Level at time At0.
type StepSource struct {
	Level float64
	At0   float64
}

func (s *StepSource) At(t float64) float64 {
	if t < s.At0 {
		return 0
	}
	return s.Level
}

// New builds a named source from the amplitude, frequency, and horizon
// parameters of a run configuration.
func New(name string, amp, freq, tEnd float64) (Source, error) {
	switch name {
	case "decaying_sine":
		return &DecayingSine{Amp: amp, Freq: freq, TEnd: tEnd}, nil
	case "sine":
		return &Sine{Amp: amp, Freq: freq}, nil
	case "chirp":
		return &Chirp{Amp: amp, F0: freq, F1: freq * 4, TEnd: tEnd}, nil
	case "triangle":
		period := 1.0
		if freq > 0 {
			period = 1 / freq
		}
		return &Triangle{Amp: amp, Period: period}, nil
	case "step":
		return &StepSource{Level: amp, At0: tEnd / 4}, nil
	default:
		return nil, fmt.Errorf("unknown signal: %s", name)
	}
}

// Names lists the sources New accepts.
func Names() []string {
	return []string{"decaying_sine", "sine", "chirp", "triangle", "step"}
}
