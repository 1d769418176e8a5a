package main

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/retinotectal/config"
)

func TestParseSets(t *testing.T) {
	m, err := parseSets([]string{"sigma=0.1", "force=true", "gc_count=12", "gc_scope=nasal", "interim_results=[10, 20]"})
	if err != nil {
		t.Fatalf("parseSets: %v", err)
	}
	if v, ok := m["sigma"].(float64); !ok || v != 0.1 {
		t.Errorf("sigma = %#v, want 0.1", m["sigma"])
	}
	if v, ok := m["force"].(bool); !ok || !v {
		t.Errorf("force = %#v, want true", m["force"])
	}
	if v, ok := m["gc_count"].(int); !ok || v != 12 {
		t.Errorf("gc_count = %#v, want 12", m["gc_count"])
	}
	if m["gc_scope"] != "nasal" {
		t.Errorf("gc_scope = %#v, want nasal", m["gc_scope"])
	}
	if v, ok := m["interim_results"].([]any); !ok || len(v) != 2 {
		t.Errorf("interim_results = %#v", m["interim_results"])
	}
}

func TestParseSetsRejectsMalformed(t *testing.T) {
	for _, s := range []string{"sigma", "=0.1", "sigma=[0.1"} {
		t.Run(s, func(t *testing.T) {
			if _, err := parseSets([]string{s}); !errors.Is(err, config.ErrConfiguration) {
				t.Errorf("parseSets(%q) error = %v, want ErrConfiguration", s, err)
			}
		})
	}
}

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("preset", "", "")
	cmd.Flags().StringArray("set", nil, "")
	cmd.Flags().Int64("seed", -1, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoadConfigOverrides(t *testing.T) {
	cmd := testCommand(t, "--set", "sigma=0.25", "--set", "gc_count=9", "--seed", "99")
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Movement.Sigma != 0.25 {
		t.Errorf("Sigma = %v, want 0.25", cfg.Movement.Sigma)
	}
	if cfg.Simulation.GCCount != 9 {
		t.Errorf("GCCount = %d, want 9", cfg.Simulation.GCCount)
	}
	if cfg.Simulation.Seed != 99 {
		t.Errorf("Seed = %d, want 99", cfg.Simulation.Seed)
	}
}

func TestLoadConfigKeepsConfigSeed(t *testing.T) {
	cfg, err := loadConfig(testCommand(t))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Simulation.Seed != 1 {
		t.Errorf("Seed = %d, want the default 1", cfg.Simulation.Seed)
	}
}

func TestLoadConfigTimeSeed(t *testing.T) {
	cfg, err := loadConfig(testCommand(t, "--seed", "0"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Simulation.Seed == 0 || cfg.Simulation.Seed == 1 {
		t.Errorf("Seed = %d, want a time-based seed", cfg.Simulation.Seed)
	}
}

func TestLoadConfigPreset(t *testing.T) {
	names := config.PresetNames()
	if len(names) == 0 {
		t.Fatal("no presets")
	}
	cfg, err := loadConfig(testCommand(t, "--preset", names[0]))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if string(cfg.Substrate.Type) != names[0] {
		t.Errorf("substrate type = %s, want %s", cfg.Substrate.Type, names[0])
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	_, err := loadConfig(testCommand(t, "--set", "no_such_key=1"))
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}
