package config

import "sort"

var Presets = map[string]*WorldConfig{
	"earth": {
		Gravity: [2]float64{0, -9.81}, Dt: 1.0 / 60.0, Duration: 5.0,
		VelocityIterations: 8, PositionIterations: 3,
	},
	"moon": {
		Gravity: [2]float64{0, -1.62}, Dt: 1.0 / 60.0, Duration: 10.0,
		VelocityIterations: 8, PositionIterations: 3,
	},
	"zero-g": {
		Gravity: [2]float64{0, 0}, Dt: 1.0 / 60.0, Duration: 5.0,
		VelocityIterations: 8, PositionIterations: 3,
	},
	"precise": {
		Gravity: [2]float64{0, -9.81}, Dt: 1.0 / 240.0, Duration: 5.0,
		VelocityIterations: 20, PositionIterations: 10,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *WorldConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
