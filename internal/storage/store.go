// Package storage persists simulation runs as per-run directories holding
// metadata.json and samples.csv, so runs can be listed, plotted, exported,
// and used as identification data later.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hysterlab/blash/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata records the configuration a run was produced with, including
// the true boundary parameters so fits can be scored against them.
type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Signal    string             `json:"signal"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Channels  int                `json:"channels"`
	MLo       []float64          `json:"m_lo"`
	MUp       []float64          `json:"m_up"`
	CLo       []float64          `json:"c_lo"`
	CUp       []float64          `json:"c_up"`
	Metrics   map[string]float64 `json:"metrics"`
}

func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Metrics = result.Metrics

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "samples.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(result.Times) == 0 {
		return runID, nil
	}

	dim := len(result.Inputs[0])
	header := []string{"time"}
	for _, col := range []string{"u", "x", "z_lo", "z_up"} {
		for d := 0; d < dim; d++ {
			header = append(header, fmt.Sprintf("%s%d", col, d))
		}
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.Times {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, cols := range [][][]float64{result.Inputs, result.Outputs, result.ZLo, result.ZUp} {
			for _, val := range cols[i] {
				row = append(row, strconv.FormatFloat(val, 'f', 9, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads a run's sample table back into a Result. The column
// layout is the one Save writes: time, then u, x, z_lo, z_up blocks of one
// column per channel.
func (s *Store) LoadSamples(runID string) (*sim.Result, error) {
	csvPath := filepath.Join(s.baseDir, runID, "samples.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := &sim.Result{Metrics: make(map[string]float64)}
	if len(records) < 2 {
		return result, nil
	}

	dim := (len(records[0]) - 1) / 4
	if dim < 1 {
		return nil, fmt.Errorf("malformed header in %s", csvPath)
	}

	for _, record := range records[1:] {
		if len(record) != 1+4*dim {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		vals := make([]float64, 0, 4*dim)
		ok := true
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if !ok {
			continue
		}

		result.Times = append(result.Times, t)
		result.Inputs = append(result.Inputs, vals[0:dim])
		result.Outputs = append(result.Outputs, vals[dim:2*dim])
		result.ZLo = append(result.ZLo, vals[2*dim:3*dim])
		result.ZUp = append(result.ZUp, vals[3*dim:4*dim])
	}

	return result, nil
}
