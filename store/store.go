// Package store records completed runs so sweeps can be queried afterwards.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunRecord summarizes one completed simulation run.
type RunRecord struct {
	ID        string
	Kind      string // run | sweep | two_phase | expansion
	Tag       string // sweep combination or experiment label
	Seed      int64
	Substrate string
	Steps     int
	Cones     int

	MappingCorrelation float64
	Spread             float64

	OutputDir string
	Config    string // YAML
	CreatedAt time.Time
}

// Store persists run records.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	ListRuns(ctx context.Context, kind string) ([]RunRecord, error)
	Close() error
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open returns a SQLite store at path, or an in-memory store when path is empty.
// The store is initialized.
func Open(ctx context.Context, path string) (Store, error) {
	var s Store
	if path == "" {
		s = NewMemoryStore()
	} else {
		s = NewSQLiteStore(path)
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
