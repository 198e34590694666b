package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val any) error
	Get(key string) (any, error)
}

type preset map[string]any

var presets = map[string]preset{
	"lame-bass": {
		"level":       3.,
		"env.decay":   0.1,
		"env.level":   0.3,
		"env.sustain": 0.01,
		"env.release": 0.05,
		"osc1.wave":   "saw",
		"osc2.wave":   "saw",
		"cutoff":      900.0,
	},
	"pluck": {
		"env.attack":           0.002,
		"env.attack.sharpness": 5.,
		"env.decay":            0.15,
		"env.level":            0.2,
		"env.sustain":          0.01,
		"env.release":          0.3,
		"osc1.wave":            "square",
		"osc2.wave":            "off",
		"cutoff":               2500.0,
	},
	"pad": {
		"env.attack":           1.5,
		"env.attack.sharpness": 20000.,
		"env.decay":            0.8,
		"env.level":            0.7,
		"env.sustain":          0.5,
		"env.release":          3.,
		"osc1.wave":            "saw",
		"osc2.wave":            "sine",
		"cutoff":               1200.0,
	},
	"organ": {
		"env.enabled": false,
		"osc1.wave":   "sine",
		"osc2.wave":   "square",
		"cutoff":      4000.0,
	},
}

// LoadPreset applies the named preset to d.
func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
	}
	return nil
}

func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
