package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/hysterlab/blash/internal/sim"
)

// ExportData is the flat JSON shape external tooling consumes.
type ExportData struct {
	ID       string             `json:"id"`
	Preset   string             `json:"preset"`
	Signal   string             `json:"signal"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	MLo      []float64          `json:"m_lo"`
	MUp      []float64          `json:"m_up"`
	CLo      []float64          `json:"c_lo"`
	CUp      []float64          `json:"c_up"`
	Steps    int                `json:"steps"`
	Times    []float64          `json:"times"`
	Inputs   [][]float64        `json:"inputs"`
	Outputs  [][]float64        `json:"outputs"`
	ZLo      [][]float64        `json:"z_lo"`
	ZUp      [][]float64        `json:"z_up"`
	Metrics  map[string]float64 `json:"metrics"`
}

func ExportJSON(path string, meta *RunMetadata, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return exportJSON(file, meta, result)
}

func ExportJSONStdout(meta *RunMetadata, result *sim.Result) error {
	return exportJSON(os.Stdout, meta, result)
}

func exportJSON(w io.Writer, meta *RunMetadata, result *sim.Result) error {
	data := ExportData{
		ID:       meta.ID,
		Preset:   meta.Preset,
		Signal:   meta.Signal,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		MLo:      meta.MLo,
		MUp:      meta.MUp,
		CLo:      meta.CLo,
		CUp:      meta.CUp,
		Steps:    len(result.Times),
		Times:    result.Times,
		Inputs:   result.Inputs,
		Outputs:  result.Outputs,
		ZLo:      result.ZLo,
		ZUp:      result.ZUp,
		Metrics:  result.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
