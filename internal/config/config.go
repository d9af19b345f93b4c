package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hysterlab/blash/internal/backlash"
)

const (
	DefaultDt        = 0.002
	DefaultDuration  = 5.0
	DefaultAmp       = 4.0
	DefaultFreq      = 1.0
	DefaultFitEpochs = 20
)

type Config struct {
	Channels  int          `yaml:"channels"`
	Model     ModelConfig  `yaml:"model"`
	Signal    SignalConfig `yaml:"signal"`
	Dt        float64      `yaml:"dt"`
	Duration  float64      `yaml:"duration"`
	FitEpochs int          `yaml:"fit_epochs"`
}

// ModelConfig holds one scalar per boundary parameter; multi-channel runs
// broadcast them across channels.
type ModelConfig struct {
	MLo   float64 `yaml:"m_lo"`
	MUp   float64 `yaml:"m_up"`
	CLo   float64 `yaml:"c_lo"`
	CUp   float64 `yaml:"c_up"`
	XInit float64 `yaml:"x_init"`
}

type SignalConfig struct {
	Name string  `yaml:"name"`
	Amp  float64 `yaml:"amp"`
	Freq float64 `yaml:"freq"`
}

func DefaultConfig() *Config {
	return &Config{
		Channels: 1,
		Model: ModelConfig{
			MLo: 1.0, MUp: 1.0, CLo: 0.0, CUp: 0.0, XInit: 0.0,
		},
		Signal: SignalConfig{
			Name: "decaying_sine",
			Amp:  DefaultAmp,
			Freq: DefaultFreq,
		},
		Dt:        DefaultDt,
		Duration:  DefaultDuration,
		FitEpochs: DefaultFitEpochs,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NewModel constructs the backlash model this config describes.
func (c *Config) NewModel() (*backlash.Model, error) {
	n := c.Channels
	if n < 1 {
		n = 1
	}
	return backlash.New(
		vecOf(c.Model.MLo, n),
		vecOf(c.Model.MUp, n),
		vecOf(c.Model.CLo, n),
		vecOf(c.Model.CUp, n),
		vecOf(c.Model.XInit, n),
	)
}

func vecOf(v float64, n int) backlash.Vec {
	out := make(backlash.Vec, n)
	for i := range out {
		out[i] = v
	}
	return out
}
