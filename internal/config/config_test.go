package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Inner.ConstraintTol <= 0 {
		t.Error("inner constraint tolerance should be positive")
	}
	if cfg.Inner.MaxIterations <= 0 {
		t.Error("inner iteration cap should be positive")
	}
	if cfg.Outer.EnthalpyTol <= 0 {
		t.Error("outer enthalpy tolerance should be positive")
	}
	if cfg.Outer.MaxIterations <= 0 {
		t.Error("outer iteration cap should be positive")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solver.yaml")

	cfg := DefaultConfig()
	cfg.Outer.EnthalpyTol = 42.5
	cfg.Inner.MaxIterations = 123

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Outer.EnthalpyTol != 42.5 {
		t.Errorf("enthalpy_tol = %v, want 42.5", loaded.Outer.EnthalpyTol)
	}
	if loaded.Inner.MaxIterations != 123 {
		t.Errorf("inner max_iterations = %d, want 123", loaded.Inner.MaxIterations)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("outer:\n  enthalpy_tol: 5.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Outer.EnthalpyTol != 5.0 {
		t.Errorf("enthalpy_tol = %v, want 5.0", cfg.Outer.EnthalpyTol)
	}
	if cfg.Inner.ConstraintTol != DefaultConstraintTol {
		t.Errorf("unset field should keep default, got %v", cfg.Inner.ConstraintTol)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("fast")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Outer.EnthalpyTol != 100.0 {
		t.Errorf("fast enthalpy_tol = %v, want 100", cfg.Outer.EnthalpyTol)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	first := GetPreset("fast")
	if first == nil {
		t.Fatal("expected preset, got nil")
	}
	first.Outer.EnthalpyTol = 1e9
	first.Inner.MaxIterations = 1

	second := GetPreset("fast")
	if second.Outer.EnthalpyTol != 100.0 {
		t.Errorf("enthalpy_tol = %v after caller mutation, want 100", second.Outer.EnthalpyTol)
	}
	if second.Inner.MaxIterations != 1000 {
		t.Errorf("inner max_iterations = %d after caller mutation, want 1000", second.Inner.MaxIterations)
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Error("expected at least one preset")
	}
}

func TestSolverOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.SolverOptions()

	if opts.EnthalpyTol != cfg.Outer.EnthalpyTol {
		t.Errorf("EnthalpyTol = %v, want %v", opts.EnthalpyTol, cfg.Outer.EnthalpyTol)
	}
	if opts.Inner.MaxIterations != cfg.Inner.MaxIterations {
		t.Errorf("inner MaxIterations = %d, want %d", opts.Inner.MaxIterations, cfg.Inner.MaxIterations)
	}
}
