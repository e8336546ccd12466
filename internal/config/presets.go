package config

// Presets are named solver configurations: "fast" trades tolerance for
// iteration count, "precise" does the opposite.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"fast": {
		Inner: InnerConfig{
			ConstraintTol: 1e-6,
			GradientTol:   1e-4,
			MaxIterations: 1000,
			InitialMoles:  DefaultInitialMoles,
			MoleFloor:     DefaultMoleFloor,
		},
		Outer: OuterConfig{
			EnthalpyTol:    100.0,
			TemperatureTol: 1e-6,
			MaxIterations:  60,
			BracketMargin:  DefaultBracketMargin,
			BracketScan:    8,
		},
	},
	"precise": {
		Inner: InnerConfig{
			ConstraintTol: 1e-10,
			GradientTol:   1e-8,
			MaxIterations: 20000,
			InitialMoles:  DefaultInitialMoles,
			MoleFloor:     1e-14,
		},
		Outer: OuterConfig{
			EnthalpyTol:    1e-3,
			TemperatureTol: 1e-12,
			MaxIterations:  500,
			BracketMargin:  DefaultBracketMargin,
			BracketScan:    32,
		},
	},
}

// GetPreset returns a copy of the named preset, so callers can adjust
// individual fields without mutating the shared table.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
