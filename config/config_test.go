package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Substrate.Type != ContinuousGradients {
		t.Errorf("default substrate type = %q, want %q", cfg.Substrate.Type, ContinuousGradients)
	}
	off := cfg.Simulation.GCSize
	if cfg.Derived.PaddedCols != cfg.Substrate.Cols+2*off {
		t.Errorf("PaddedCols = %d, want %d", cfg.Derived.PaddedCols, cfg.Substrate.Cols+2*off)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := []byte("gc_count: 12\nsigma: 0.3\ninterim_results: [10, 20]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Simulation.GCCount != 12 {
		t.Errorf("gc_count = %d, want 12", cfg.Simulation.GCCount)
	}
	if cfg.Movement.Sigma != 0.3 {
		t.Errorf("sigma = %g, want 0.3", cfg.Movement.Sigma)
	}
	if !cfg.Derived.InterimMarkers[20] || cfg.Derived.InterimMarkers[15] {
		t.Errorf("interim markers = %v, want {10,20}", cfg.Derived.InterimMarkers)
	}
	// Untouched keys keep their defaults.
	if cfg.Cones.Scope != ScopeFull {
		t.Errorf("gc_scope = %q, want %q", cfg.Cones.Scope, ScopeFull)
	}
}

func TestFromMapErrors(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
	}{
		{"unknown key", map[string]any{"gc_cnt": 3}},
		{"unknown substrate type", map[string]any{KeySubstrateType: "spiral"}},
		{"missing gap parameters", map[string]any{KeySubstrateType: "gap"}},
		{"unknown gc scope", map[string]any{KeyGCScope: "dorsal"}},
		{"unknown substrate scope", map[string]any{KeySubstrateScope: "ventral"}},
		{"probability out of range", map[string]any{KeyXStepPossibility: 1.5}},
		{"bad block type", map[string]any{
			KeySubstrateType: "gap_inv", KeyGapBegin: 0.4, KeyGapEnd: 0.3,
			KeyGapFirstBlock: "neither", KeyGapFirstBlockConc: 1,
		}},
		{"wrong value type", map[string]any{KeyGCCount: "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.m)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}

func TestMissingSubstrateKeys(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Substrate.Type = GapInverted
	missing := cfg.MissingSubstrateKeys()
	want := []string{KeyGapBegin, KeyGapEnd, KeyGapFirstBlock, KeyGapFirstBlockConc}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	derived, err := base.With(map[string]any{KeyGCCount: 7, KeySubstrateScope: ScopePosterior})
	if err != nil {
		t.Fatalf("With error: %v", err)
	}
	if derived.Simulation.GCCount != 7 || derived.Substrate.Scope != ScopePosterior {
		t.Errorf("overrides not applied: %+v", derived.Simulation)
	}
	if base.Simulation.GCCount == 7 || base.Substrate.Scope != ScopeFull {
		t.Error("With mutated the receiver")
	}
	if *derived.Substrate.Gradient.LigandMax != *base.Substrate.Gradient.LigandMax {
		t.Error("pointer parameters lost in copy")
	}
	if derived.Substrate.Gradient.LigandMax == base.Substrate.Gradient.LigandMax {
		t.Error("pointer parameters are shared between copies")
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := Preset(SubstrateType(name))
			if err != nil {
				t.Fatalf("Preset(%s) error: %v", name, err)
			}
			if string(cfg.Substrate.Type) != name {
				t.Errorf("substrate type = %q, want %q", cfg.Substrate.Type, name)
			}
		})
	}

	if _, err := Preset("spiral"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Preset(spiral) error = %v, want ErrConfiguration", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Preset(Stripe)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if loaded.Substrate.Type != Stripe || *loaded.Substrate.Stripe.Width != 12 {
		t.Errorf("round trip lost stripe parameters: %+v", loaded.Substrate.Stripe)
	}
}

func TestSweepCombos(t *testing.T) {
	s := &Sweep{Sweeps: map[string][]any{
		KeySigma:   {0.1, 0.2},
		KeyGCCount: {10, 20, 30},
	}}

	combos := s.Combos()
	if len(combos) != 6 {
		t.Fatalf("len(combos) = %d, want 6", len(combos))
	}
	if got := combos[0].Tag(); got != "gc_count=10__sigma=0.1" {
		t.Errorf("first tag = %q", got)
	}

	s.Selected = [][]any{{20, 0.2}}
	combos = s.Combos()
	if len(combos) != 1 {
		t.Fatalf("selected combos = %d, want 1", len(combos))
	}
	o := combos[0].Overrides()
	if o[KeyGCCount] != 20 || o[KeySigma] != 0.2 {
		t.Errorf("overrides = %v", o)
	}
}
