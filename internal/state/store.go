// Package state persists harvest-run history and the resume cursor in
// a local SQLite database, so consecutive runs can continue the
// listing without the operator re-supplying the cursor.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/msc-search/harvester/internal/core/domain"
	"github.com/msc-search/harvester/internal/state/migrations"
)

// Run is one harvest run's persisted record.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   *time.Time
	PullRequests int
	Documents    int
	Dropped      []int
	FailedUIDs   []int
	LastCursor   string
}

// Store is the SQLite-backed run store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (and migrates) the store at the given data directory.
// An empty dataDir defaults to ~/.msc-harvester.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".msc-harvester")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "harvester.db")
	return open(dbPath)
}

// NewMemoryStore opens an in-memory store. Used by tests.
func NewMemoryStore() (*Store, error) {
	return open(":memory:")
}

func open(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies embedded SQL migrations in file order.
func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(
		"CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)",
	); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	entries, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(entries)

	for _, name := range entries {
		var applied int
		err := s.db.QueryRow(
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(script)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", name,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Begin records the start of a harvest run.
func (s *Store) Begin(ctx context.Context, id string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO harvest_runs (id, started_at) VALUES (?, ?)",
		id, startedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish records a completed run's accounting.
func (s *Store) Finish(ctx context.Context, run Run) error {
	dropped, err := json.Marshal(intsOrEmpty(run.Dropped))
	if err != nil {
		return fmt.Errorf("marshal dropped: %w", err)
	}
	failed, err := json.Marshal(intsOrEmpty(run.FailedUIDs))
	if err != nil {
		return fmt.Errorf("marshal failed uids: %w", err)
	}

	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE harvest_runs
		 SET finished_at = ?, pull_requests = ?, documents = ?,
		     dropped = ?, failed_uids = ?, last_cursor = ?
		 WHERE id = ?`,
		finishedAt, run.PullRequests, run.Documents,
		string(dropped), string(failed), run.LastCursor, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Latest returns the most recently started run.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, pull_requests, documents,
		        dropped, failed_uids, last_cursor
		 FROM harvest_runs
		 ORDER BY started_at DESC, id DESC
		 LIMIT 1`,
	)
	return scanRun(row)
}

// LatestCursor returns the cursor echoed by the most recent finished
// run, or empty when no run has completed yet.
func (s *Store) LatestCursor(ctx context.Context) (string, error) {
	var cursor string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_cursor FROM harvest_runs
		 WHERE finished_at IS NOT NULL AND last_cursor != ''
		 ORDER BY started_at DESC, id DESC
		 LIMIT 1`,
	).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query cursor: %w", err)
	}
	return cursor, nil
}

func scanRun(row *sql.Row) (*Run, error) {
	var (
		run        Run
		finishedAt sql.NullTime
		dropped    string
		failed     string
	)
	err := row.Scan(
		&run.ID, &run.StartedAt, &finishedAt,
		&run.PullRequests, &run.Documents,
		&dropped, &failed, &run.LastCursor,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if err := json.Unmarshal([]byte(dropped), &run.Dropped); err != nil {
		return nil, fmt.Errorf("unmarshal dropped: %w", err)
	}
	if err := json.Unmarshal([]byte(failed), &run.FailedUIDs); err != nil {
		return nil, fmt.Errorf("unmarshal failed uids: %w", err)
	}

	return &run, nil
}

func intsOrEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
