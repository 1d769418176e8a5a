package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if run.ID == "" {
		return errors.New("run id is required")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, tag, seed, substrate, steps, cones,
			mapping_correlation, spread, output_dir, config, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			tag = excluded.tag,
			seed = excluded.seed,
			substrate = excluded.substrate,
			steps = excluded.steps,
			cones = excluded.cones,
			mapping_correlation = excluded.mapping_correlation,
			spread = excluded.spread,
			output_dir = excluded.output_dir,
			config = excluded.config,
			created_at = excluded.created_at
	`, run.ID, run.Kind, run.Tag, run.Seed, run.Substrate, run.Steps, run.Cones,
		run.MappingCorrelation, run.Spread, run.OutputDir, run.Config,
		run.CreatedAt.UTC().UnixNano())
	return err
}

const selectRun = `SELECT id, kind, tag, seed, substrate, steps, cones,
	mapping_correlation, spread, output_dir, config, created_at FROM runs`

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return RunRecord{}, false, err
	}

	run, err := scanRun(db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, false, nil
		}
		return RunRecord{}, false, err
	}
	return run, true, nil
}

// ListRuns returns runs of the given kind (all kinds when empty), oldest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, kind string) ([]RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectRun+` WHERE ? = '' OR kind = ? ORDER BY created_at, id`, kind, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var run RunRecord
	var created int64
	err := row.Scan(&run.ID, &run.Kind, &run.Tag, &run.Seed, &run.Substrate, &run.Steps, &run.Cones,
		&run.MappingCorrelation, &run.Spread, &run.OutputDir, &run.Config, &created)
	if err != nil {
		return RunRecord{}, err
	}
	run.CreatedAt = time.Unix(0, created).UTC()
	return run, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			tag TEXT NOT NULL,
			seed INTEGER NOT NULL,
			substrate TEXT NOT NULL,
			steps INTEGER NOT NULL,
			cones INTEGER NOT NULL,
			mapping_correlation REAL NOT NULL,
			spread REAL NOT NULL,
			output_dir TEXT NOT NULL,
			config TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_kind ON runs (kind, created_at);
	`)
	return err
}
