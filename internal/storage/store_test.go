package storage

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hysterlab/blash/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Times:   []float64{0, 0.1, 0.2},
		Inputs:  [][]float64{{1}, {2}, {3}},
		Outputs: [][]float64{{0.5}, {1.5}, {2.5}},
		ZLo:     [][]float64{{-1}, {0}, {1}},
		ZUp:     [][]float64{{1}, {2}, {3}},
		Metrics: map[string]float64{"latch_fraction": 0.25},
	}
}

func testMeta() RunMetadata {
	return RunMetadata{
		Preset:   "gear_worn",
		Signal:   "decaying_sine",
		Dt:       0.1,
		Duration: 0.3,
		Channels: 1,
		MLo:      []float64{2.0},
		MUp:      []float64{1.9},
		CLo:      []float64{2.5},
		CUp:      []float64{2.7},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(runID, "gear_worn_") {
		t.Errorf("unexpected run id: %s", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.ID != runID {
		t.Errorf("expected id %s, got %s", runID, meta.ID)
	}
	if meta.MLo[0] != 2.0 || meta.CUp[0] != 2.7 {
		t.Errorf("parameters not round-tripped: %+v", meta)
	}
	if got := meta.Metrics["latch_fraction"]; got != 0.25 {
		t.Errorf("expected metric 0.25, got %v", got)
	}
}

func TestLoadSamples(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	want := testResult()
	runID, err := st.Save(testMeta(), want)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples: %v", err)
	}

	if len(got.Times) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got.Times))
	}
	for i := range want.Times {
		if math.Abs(got.Inputs[i][0]-want.Inputs[i][0]) > 1e-9 {
			t.Errorf("sample %d: input %v, want %v", i, got.Inputs[i][0], want.Inputs[i][0])
		}
		if math.Abs(got.Outputs[i][0]-want.Outputs[i][0]) > 1e-9 {
			t.Errorf("sample %d: output %v, want %v", i, got.Outputs[i][0], want.Outputs[i][0])
		}
		if math.Abs(got.ZUp[i][0]-want.ZUp[i][0]) > 1e-9 {
			t.Errorf("sample %d: z_up %v, want %v", i, got.ZUp[i][0], want.ZUp[i][0])
		}
	}
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	if _, err := st.Save(testMeta(), testResult()); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("expected no error for missing dir, got %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, meta, testResult()); err != nil {
		t.Fatalf("export: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.Steps != 3 {
		t.Errorf("expected 3 steps, got %d", data.Steps)
	}
	if data.MLo[0] != 2.0 {
		t.Errorf("expected m_lo 2.0, got %v", data.MLo[0])
	}
}
