package main

import (
	"testing"

	"github.com/pthm-cable/retinotectal/config"
)

func TestPotentialMapCoversInterior(t *testing.T) {
	cfg, err := config.FromMap(map[string]any{
		config.KeyGCCount:    4,
		config.KeyRows:       8,
		config.KeyCols:       12,
		config.KeyStepNum:    10,
		config.KeyGCSize:     2,
		config.KeyFFInter:    false,
		config.KeyForwardSig: true,
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	records, err := potentialMap(cfg, 0, 0)
	if err != nil {
		t.Fatalf("potentialMap: %v", err)
	}
	if want := 8 * 12; len(records) != want {
		t.Fatalf("got %d cells, want %d", len(records), want)
	}
	for _, r := range records {
		if r.Row < 2 || r.Row > 9 || r.Col < 2 || r.Col > 13 {
			t.Errorf("cell (%d, %d) outside the interior", r.Col, r.Row)
		}
		if r.Potential < 0 {
			t.Errorf("negative potential %v at (%d, %d)", r.Potential, r.Col, r.Row)
		}
	}
}

func TestPotentialMapRejectsBadIndex(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := potentialMap(cfg, cfg.Simulation.GCCount, 0); err == nil {
		t.Error("expected error for out of range cone index")
	}
}
