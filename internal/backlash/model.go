// Package backlash implements the piecewise-linear backlash model of
// J. Vörös, "Modeling and identification of systems with backlash",
// Automatica, 2008.
//
// The output tracks one of two linear boundaries in the u-x plane while the
// input is outside the dead zone, and holds its previous value inside it.
// A model carries one set of parameters per channel; channels are mutually
// independent and processed elementwise.
//
// A Model is not safe for concurrent use: Step, Reset, and Fit all
// read-then-write the shared state without synchronization.
package backlash

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
)

// Vec holds one value per channel.
type Vec []float64

// Scalar wraps a single value as a one-channel Vec.
func Scalar(v float64) Vec { return Vec{v} }

func (v Vec) Clone() Vec {
	c := make(Vec, len(v))
	copy(c, v)
	return c
}

func (v Vec) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Model is a first-order discrete-time nonlinear system: four boundary
// parameters plus the last emitted output.
type Model struct {
	mLo, mUp Vec // boundary slopes, non-zero
	cLo, cUp Vec // boundary offsets, non-negative
	xPrev    Vec // last emitted output
}

// params is the staged parameter set a Reset is applied to. Options mutate
// the stage; the model commits it only after validation succeeds.
type params struct {
	mLo, mUp, cLo, cUp, xInit Vec
}

// Option updates one field of a staged parameter set.
type Option func(*params)

// WithLowerSlope sets the slope of the lower boundary.
func WithLowerSlope(v Vec) Option { return func(p *params) { p.mLo = v.Clone() } }

// WithUpperSlope sets the slope of the upper boundary.
func WithUpperSlope(v Vec) Option { return func(p *params) { p.mUp = v.Clone() } }

// WithLowerOffset sets the offset of the lower boundary.
func WithLowerOffset(v Vec) Option { return func(p *params) { p.cLo = v.Clone() } }

// WithUpperOffset sets the offset of the upper boundary.
func WithUpperOffset(v Vec) Option { return func(p *params) { p.cUp = v.Clone() } }

// WithInit sets the held state to start the next Step call from.
func WithInit(v Vec) Option { return func(p *params) { p.xInit = v.Clone() } }

// New constructs a model. All four boundary parameters and the initial state
// are required; each may be a single value (broadcast to the widest argument)
// or one value per channel.
func New(mLo, mUp, cLo, cUp, xInit Vec) (*Model, error) {
	m := &Model{}
	err := m.Reset(
		WithLowerSlope(mLo),
		WithUpperSlope(mUp),
		WithLowerOffset(cLo),
		WithUpperOffset(cUp),
		WithInit(xInit),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Reset replaces the supplied fields and revalidates the full parameter set.
// Fields without an option keep their previous value. The update is atomic:
// on error the model is left exactly as it was.
func (m *Model) Reset(opts ...Option) error {
	stage := params{
		mLo:   m.mLo,
		mUp:   m.mUp,
		cLo:   m.cLo,
		cUp:   m.cUp,
		xInit: m.xPrev,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&stage)
		}
	}

	dim := 0
	for _, v := range []Vec{stage.mLo, stage.mUp, stage.cLo, stage.cUp, stage.xInit} {
		if len(v) > dim {
			dim = len(v)
		}
	}
	if dim == 0 {
		return fmt.Errorf("%w: no parameters supplied", ErrInvalidParam)
	}

	var err error
	if stage.mLo, err = broadcast("m_lo", stage.mLo, dim); err != nil {
		return err
	}
	if stage.mUp, err = broadcast("m_up", stage.mUp, dim); err != nil {
		return err
	}
	if stage.cLo, err = broadcast("c_lo", stage.cLo, dim); err != nil {
		return err
	}
	if stage.cUp, err = broadcast("c_up", stage.cUp, dim); err != nil {
		return err
	}
	if stage.xInit, err = broadcast("x_init", stage.xInit, dim); err != nil {
		return err
	}

	if err := validate(stage); err != nil {
		return err
	}

	m.mLo, m.mUp = stage.mLo, stage.mUp
	m.cLo, m.cUp = stage.cLo, stage.cUp
	m.xPrev = stage.xInit
	return nil
}

// broadcast expands a length-1 value to dim channels.
func broadcast(name string, v Vec, dim int) (Vec, error) {
	switch len(v) {
	case dim:
		return v, nil
	case 1:
		out := make(Vec, dim)
		for i := range out {
			out[i] = v[0]
		}
		return out, nil
	case 0:
		return nil, fmt.Errorf("%w: %s is unset", ErrInvalidParam, name)
	default:
		return nil, fmt.Errorf("%w: %s has %d channels, want %d", ErrInvalidParam, name, len(v), dim)
	}
}

func validate(p params) error {
	for _, v := range []struct {
		name string
		vec  Vec
	}{
		{"m_lo", p.mLo}, {"m_up", p.mUp}, {"c_lo", p.cLo}, {"c_up", p.cUp}, {"x_init", p.xInit},
	} {
		if !v.vec.IsValid() {
			return fmt.Errorf("%w: %s is NaN or Inf", ErrInvalidParam, v.name)
		}
	}
	for i := range p.mLo {
		if p.mLo[i] == 0 {
			return fmt.Errorf("%w: m_lo must not be zero", ErrInvalidParam)
		}
		if p.mUp[i] == 0 {
			return fmt.Errorf("%w: m_up must not be zero", ErrInvalidParam)
		}
		if p.cLo[i] < 0 {
			return fmt.Errorf("%w: c_lo must be non-negative", ErrInvalidParam)
		}
		if p.cUp[i] < 0 {
			return fmt.Errorf("%w: c_up must be non-negative", ErrInvalidParam)
		}
	}
	return nil
}

// Step maps one input sample to one output sample and advances the state.
// The regime is chosen per channel from the state carried in from the
// previous call: at or past a boundary the output tracks that boundary and
// becomes the new state; strictly inside the dead zone the held state is
// returned unchanged.
func (m *Model) Step(u Vec) Vec {
	out := make(Vec, len(m.xPrev))
	for i := range out {
		zLo := m.xPrev[i]/m.mLo[i] - m.cLo[i]
		zUp := m.xPrev[i]/m.mUp[i] + m.cUp[i]
		switch {
		case u[i] <= zLo:
			out[i] = m.mLo[i] * (u[i] + m.cLo[i])
			m.xPrev[i] = out[i]
		case u[i] >= zUp:
			out[i] = m.mUp[i] * (u[i] - m.cUp[i])
			m.xPrev[i] = out[i]
		default:
			out[i] = m.xPrev[i]
		}
	}
	return out
}

// Dim returns the channel count fixed at construction.
func (m *Model) Dim() int { return len(m.xPrev) }

// LowerSlope returns m_lo.
func (m *Model) LowerSlope() Vec { return m.mLo.Clone() }

// UpperSlope returns m_up.
func (m *Model) UpperSlope() Vec { return m.mUp.Clone() }

// LowerOffset returns c_lo.
func (m *Model) LowerOffset() Vec { return m.cLo.Clone() }

// UpperOffset returns c_up.
func (m *Model) UpperOffset() Vec { return m.cUp.Clone() }

// State returns the held output the next Step call starts from.
func (m *Model) State() Vec { return m.xPrev.Clone() }

// ZLo returns the intersection of the lower boundary with the input axis,
// given the current state.
func (m *Model) ZLo() Vec {
	z := make(Vec, len(m.xPrev))
	for i := range z {
		z[i] = m.xPrev[i]/m.mLo[i] - m.cLo[i]
	}
	return z
}

// ZUp returns the intersection of the upper boundary with the input axis.
func (m *Model) ZUp() Vec {
	z := make(Vec, len(m.xPrev))
	for i := range z {
		z[i] = m.xPrev[i]/m.mUp[i] + m.cUp[i]
	}
	return z
}

// String renders the four parameters as an aligned table.
func (m *Model) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "m_lo\t%s\n", fmtVec(m.mLo))
	fmt.Fprintf(w, "m_up\t%s\n", fmtVec(m.mUp))
	fmt.Fprintf(w, "c_lo\t%s\n", fmtVec(m.cLo))
	fmt.Fprintf(w, "c_up\t%s\n", fmtVec(m.cUp))
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func fmtVec(v Vec) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.6g", x)
	}
	return strings.Join(parts, " ")
}
