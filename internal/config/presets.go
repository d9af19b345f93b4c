package config

import "sort"

// Presets are ready-made parameter sets for common backlash shapes. Names
// follow mechanism_condition.
var Presets = map[string]*Config{
	"gear_worn": {
		Channels: 1,
		Model:    ModelConfig{MLo: 2.0, MUp: 1.9, CLo: 2.5, CUp: 2.7},
		Signal:   SignalConfig{Name: "decaying_sine", Amp: 5.0, Freq: 1.0},
		Dt:       0.002, Duration: 4.0, FitEpochs: 20,
	},
	"gear_tight": {
		Channels: 1,
		Model:    ModelConfig{MLo: 1.0, MUp: 1.0, CLo: 0.2, CUp: 0.2},
		Signal:   SignalConfig{Name: "decaying_sine", Amp: 4.0, Freq: 1.0},
		Dt:       0.002, Duration: 5.0, FitEpochs: 20,
	},
	"servo_loose": {
		Channels: 1,
		Model:    ModelConfig{MLo: 1.0, MUp: 1.0, CLo: 1.0, CUp: 1.0},
		Signal:   SignalConfig{Name: "triangle", Amp: 4.0, Freq: 0.5},
		Dt:       0.005, Duration: 6.0, FitEpochs: 20,
	},
	"linkage_skewed": {
		Channels: 1,
		Model:    ModelConfig{MLo: 1.5, MUp: 0.8, CLo: 0.5, CUp: 1.5},
		Signal:   SignalConfig{Name: "chirp", Amp: 5.0, Freq: 0.5},
		Dt:       0.002, Duration: 8.0, FitEpochs: 20,
	},
	"passthrough": {
		Channels: 1,
		Model:    ModelConfig{MLo: 1.0, MUp: 1.0, CLo: 0.0, CUp: 0.0},
		Signal:   SignalConfig{Name: "sine", Amp: 4.0, Freq: 1.0},
		Dt:       0.002, Duration: 5.0, FitEpochs: 20,
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
