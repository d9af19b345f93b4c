package backlash

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	m, err := New(Scalar(1.1), Scalar(0.9), Scalar(0.1), Scalar(0.2), Scalar(0))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if got := m.LowerSlope()[0]; got != 1.1 {
		t.Errorf("m_lo: expected 1.1, got %v", got)
	}
	if got := m.UpperSlope()[0]; got != 0.9 {
		t.Errorf("m_up: expected 0.9, got %v", got)
	}
	if got := m.LowerOffset()[0]; got != 0.1 {
		t.Errorf("c_lo: expected 0.1, got %v", got)
	}
	if got := m.UpperOffset()[0]; got != 0.2 {
		t.Errorf("c_up: expected 0.2, got %v", got)
	}
	if m.Dim() != 1 {
		t.Errorf("expected 1 channel, got %d", m.Dim())
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name                     string
		mLo, mUp, cLo, cUp, init Vec
	}{
		{"zero m_lo", Scalar(0), Scalar(1), Scalar(0.01), Scalar(0.01), Scalar(0)},
		{"zero m_up", Scalar(1), Scalar(0), Scalar(0.01), Scalar(0.01), Scalar(0)},
		{"negative c_lo", Scalar(1), Scalar(1), Scalar(-1), Scalar(0.01), Scalar(0)},
		{"negative c_up", Scalar(1), Scalar(1), Scalar(0.01), Scalar(-1), Scalar(0)},
		{"nan m_lo", Scalar(math.NaN()), Scalar(1), Scalar(0.01), Scalar(0.01), Scalar(0)},
		{"inf init", Scalar(1), Scalar(1), Scalar(0.01), Scalar(0.01), Scalar(math.Inf(1))},
		{"zero slope channel", Vec{1, 0}, Scalar(1), Scalar(0.01), Scalar(0.01), Scalar(0)},
		{"channel mismatch", Vec{1, 1, 1}, Vec{1, 1}, Scalar(0.01), Scalar(0.01), Scalar(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mLo, tt.mUp, tt.cLo, tt.cUp, tt.init)
			if !errors.Is(err, ErrInvalidParam) {
				t.Errorf("expected ErrInvalidParam, got %v", err)
			}
		})
	}
}

func TestResetPartial(t *testing.T) {
	m, err := New(Scalar(1.1), Scalar(0.9), Scalar(0.1), Scalar(0.2), Scalar(0))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if err := m.Reset(WithLowerSlope(Scalar(2.5))); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if got := m.LowerSlope()[0]; got != 2.5 {
		t.Errorf("m_lo: expected 2.5, got %v", got)
	}
	if got := m.UpperSlope()[0]; got != 0.9 {
		t.Errorf("m_up should be unchanged, got %v", got)
	}
	if got := m.UpperOffset()[0]; got != 0.2 {
		t.Errorf("c_up should be unchanged, got %v", got)
	}
}

func TestResetAtomic(t *testing.T) {
	m, err := New(Scalar(1.1), Scalar(0.9), Scalar(0.1), Scalar(0.2), Scalar(0))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	err = m.Reset(WithLowerSlope(Scalar(3.0)), WithUpperOffset(Scalar(-1)))
	if !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("expected ErrInvalidParam, got %v", err)
	}

	// Nothing from the failed reset may have leaked in.
	if got := m.LowerSlope()[0]; got != 1.1 {
		t.Errorf("m_lo: expected 1.1 after failed reset, got %v", got)
	}
	if got := m.UpperOffset()[0]; got != 0.2 {
		t.Errorf("c_up: expected 0.2 after failed reset, got %v", got)
	}
}

func TestBroadcast(t *testing.T) {
	m, err := New(Scalar(2), Scalar(2), Scalar(0.5), Scalar(0.5), Vec{0, 1, 2})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if m.Dim() != 3 {
		t.Fatalf("expected 3 channels, got %d", m.Dim())
	}
	for i, got := range m.LowerSlope() {
		if got != 2 {
			t.Errorf("channel %d: expected broadcast slope 2, got %v", i, got)
		}
	}
}

func TestStepBoundaries(t *testing.T) {
	// Unit slopes and zero offsets leave an empty dead zone, so every input
	// lands on a boundary and passes straight through.
	m, err := New(Scalar(1), Scalar(1), Scalar(0), Scalar(0), Scalar(0))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if got := m.Step(Scalar(5))[0]; got != 5 {
		t.Errorf("step(5): expected 5, got %v", got)
	}
	if got := m.Step(Scalar(-5))[0]; got != -5 {
		t.Errorf("step(-5): expected -5, got %v", got)
	}
	// State is -5, so z_up = -5 and u=0 lies past the upper boundary.
	if got := m.Step(Scalar(0))[0]; got != 0 {
		t.Errorf("step(0): expected 0, got %v", got)
	}
}

func TestStepDeadZoneLatch(t *testing.T) {
	m, err := New(Scalar(1), Scalar(1), Scalar(1), Scalar(1), Scalar(0))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	// z_lo=-1, z_up=1 initially; u=2 crosses the upper boundary.
	if got := m.Step(Scalar(2))[0]; got != 1 {
		t.Fatalf("step(2): expected 1, got %v", got)
	}

	// Now z_lo=0, z_up=2; everything strictly inside holds the output.
	for _, u := range []float64{1.5, 1.2, 0.8, 0.1} {
		if got := m.Step(Scalar(u))[0]; got != 1 {
			t.Errorf("step(%v): expected latched output 1, got %v", u, got)
		}
	}

	// Crossing the lower boundary releases the latch.
	if got := m.Step(Scalar(-0.5))[0]; got != 0.5 {
		t.Errorf("step(-0.5): expected 0.5, got %v", got)
	}
}

func TestStepDerivedIntersections(t *testing.T) {
	m, err := New(Scalar(2), Scalar(4), Scalar(0.5), Scalar(0.25), Scalar(8))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if got := m.ZLo()[0]; got != 3.5 {
		t.Errorf("z_lo: expected 3.5, got %v", got)
	}
	if got := m.ZUp()[0]; got != 2.25 {
		t.Errorf("z_up: expected 2.25, got %v", got)
	}
}

func TestStepDeterminism(t *testing.T) {
	run := func() []float64 {
		m, err := New(Scalar(2.0), Scalar(1.9), Scalar(2.5), Scalar(2.7), Scalar(0))
		if err != nil {
			t.Fatalf("new failed: %v", err)
		}
		out := make([]float64, 0, 500)
		for i := 0; i < 500; i++ {
			ti := float64(i) * 0.01
			u := 5.0 * (1 - ti/5.0) * math.Sin(2*math.Pi*ti)
			out = append(out, m.Step(Scalar(u))[0])
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d: replay diverged, %v vs %v", i, a[i], b[i])
		}
	}
}

func TestStepChannelsIndependent(t *testing.T) {
	m, err := New(Vec{1, 2}, Vec{1, 2}, Vec{1, 0}, Vec{1, 0}, Vec{0, 0})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	out := m.Step(Vec{0.5, 0.5})
	// Channel 0 has a dead zone (-1, 1) and latches; channel 1 has none.
	if out[0] != 0 {
		t.Errorf("channel 0: expected latched 0, got %v", out[0])
	}
	if out[1] != 1 {
		t.Errorf("channel 1: expected 1, got %v", out[1])
	}
}

func TestString(t *testing.T) {
	m, err := New(Scalar(1.1), Scalar(0.9), Scalar(0.1), Scalar(0.2), Scalar(0))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	s := m.String()
	for _, want := range []string{"m_lo", "m_up", "c_lo", "c_up", "1.1", "0.2"} {
		if !strings.Contains(s, want) {
			t.Errorf("table missing %q:\n%s", want, s)
		}
	}
}
