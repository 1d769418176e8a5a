package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the population state at one step.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	Seed    int64  `json:"seed"`

	SubstrateType string `json:"substrate_type"`
	Rows          int    `json:"rows"`
	Cols          int    `json:"cols"`
	Offset        int    `json:"offset"`

	Step   int         `json:"step"`
	FFCoef float64     `json:"ff_coef"`
	Cones  []ConeState `json:"cones"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// ConeState holds one cone's state.
type ConeState struct {
	ID     int  `json:"id"`
	Frozen bool `json:"frozen"`
	Marked bool `json:"marked"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	Ligand      float64 `json:"ligand"`
	Receptor    float64 `json:"receptor"`
	Rho         float64 `json:"rho"`
	Potential   float64 `json:"potential"`
	Coefficient float64 `json:"adaptation_coefficient"`
	ResetForce  float64 `json:"reset_force"`

	Lifetime *LifetimeStats `json:"lifetime,omitempty"`
}

// SaveSnapshot writes a snapshot to dir and returns its path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Step)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Step, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
