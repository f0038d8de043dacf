package config

import "sort"

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"example": {
		Grid:      GridConfig{M: 8},
		Time:      TimeConfig{Dt: 0.01, Steps: 5},
		Params:    ParamsConfig{C0: 0.25, Rho: 0.25, Q: 0.95},
		Initial:   InitialConfig{Kind: "cosine", Amplitude: 0.02, Mode: 1},
		Nonlinear: "rk2",
		DMD:       DMDConfig{Rank: 2},
	},
	"long": {
		Grid:      GridConfig{M: 512},
		Time:      TimeConfig{Dt: 0.05, Steps: 2000},
		Params:    ParamsConfig{C0: 0.25, Rho: 0.25, Q: 0.95},
		Initial:   InitialConfig{Kind: "cosine", Amplitude: 0.02, Mode: 1},
		Nonlinear: "rk2",
		DMD:       DMDConfig{Rank: 20, Start: 1000, Length: 800},
	},
	"diffusive": {
		Grid:      GridConfig{M: 128},
		Time:      TimeConfig{Dt: 0.02, Steps: 300},
		Params:    ParamsConfig{C0: 2.0, Rho: 0.1, Q: 0.5},
		Initial:   InitialConfig{Kind: "noise", Amplitude: 0.1},
		Nonlinear: "rk2",
		DMD:       DMDConfig{Energy: 0.9999},
		Seed:      7,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
