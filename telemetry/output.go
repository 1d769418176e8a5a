package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/retinotectal/config"
)

// FinalRecord is one cone's end state.
type FinalRecord struct {
	ID        int     `csv:"id"`
	Marked    bool    `csv:"marked"`
	Frozen    bool    `csv:"frozen"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	Rho       float64 `csv:"rho"`
	Potential float64 `csv:"potential"`
}

// TrajectoryRecord is one history entry of one cone.
type TrajectoryRecord struct {
	ID            int     `csv:"id"`
	Step          int     `csv:"step"`
	X             float64 `csv:"x"`
	Y             float64 `csv:"y"`
	Potential     float64 `csv:"potential"`
	Coefficient   float64 `csv:"adaptation_coefficient"`
	Rho           float64 `csv:"rho"`
	ResetForce    float64 `csv:"reset_force"`
	OuterLigand   float64 `csv:"outer_ligand"`
	OuterReceptor float64 `csv:"outer_receptor"`
	InnerLigand   float64 `csv:"inner_ligand"`
	InnerReceptor float64 `csv:"inner_receptor"`
}

// InterimRecord is one cone's position at an interim marker.
type InterimRecord struct {
	Step int     `csv:"step"`
	ID   int     `csv:"id"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
}

// CellRecord is one substrate cell, or a potential map sample.
type CellRecord struct {
	Row      int     `csv:"row"`
	Col      int     `csv:"col"`
	Ligand   float64 `csv:"ligand"`
	Receptor float64 `csv:"receptor"`
}

// PotentialRecord is the potential of a probe cone at one cell.
type PotentialRecord struct {
	Row       int     `csv:"row"`
	Col       int     `csv:"col"`
	Forward   float64 `csv:"forward"`
	Reverse   float64 `csv:"reverse"`
	Potential float64 `csv:"potential"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir          string
	statsFile    *os.File
	perfFile     *os.File
	bookmarkFile *os.File

	// Track if headers have been written
	statsHeaderWritten    bool
	perfHeaderWritten     bool
	bookmarkHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.statsFile, err = os.Create(filepath.Join(dir, "stats.csv")); err != nil {
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	if om.perfFile, err = os.Create(filepath.Join(dir, "perf.csv")); err != nil {
		om.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	if om.bookmarkFile, err = os.Create(filepath.Join(dir, "bookmarks.csv")); err != nil {
		om.Close()
		return nil, fmt.Errorf("creating bookmarks.csv: %w", err)
	}
	return om, nil
}

// appendCSV writes records to f, with headers only on the first call.
func appendCSV(f *os.File, headerWritten *bool, records any) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats appends a window stats record to stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.statsFile, &om.statsHeaderWritten, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WritePerf appends a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.perfFile, &om.perfHeaderWritten, []PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark appends a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.bookmarkFile, &om.bookmarkHeaderWritten, []Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteFinal writes final.csv.
func (om *OutputManager) WriteFinal(records []FinalRecord) error {
	if om == nil {
		return nil
	}
	return WriteCSV(filepath.Join(om.dir, "final.csv"), records)
}

// WriteTrajectories writes trajectories.csv.
func (om *OutputManager) WriteTrajectories(records []TrajectoryRecord) error {
	if om == nil {
		return nil
	}
	return WriteCSV(filepath.Join(om.dir, "trajectories.csv"), records)
}

// WriteInterim writes interim.csv. Nothing is written without markers.
func (om *OutputManager) WriteInterim(records []InterimRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	return WriteCSV(filepath.Join(om.dir, "interim.csv"), records)
}

// WriteSubstrate writes substrate.csv.
func (om *OutputManager) WriteSubstrate(records []CellRecord) error {
	if om == nil {
		return nil
	}
	return WriteCSV(filepath.Join(om.dir, "substrate.csv"), records)
}

// WriteLifetimes writes lifetimes.csv.
func (om *OutputManager) WriteLifetimes(records []LifetimeStats) error {
	if om == nil {
		return nil
	}
	return WriteCSV(filepath.Join(om.dir, "lifetimes.csv"), records)
}

// WriteCSV writes a slice of tagged structs to path, headers included.
func WriteCSV(path string, records any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := gocsv.Marshal(records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.statsFile, om.perfFile, om.bookmarkFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
