package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/semclone/pypistats-tracker/internal/domain"
	"github.com/semclone/pypistats-tracker/internal/storage"
)

// sqliteHistory implements the History interface for SQLite
type sqliteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory creates a new SQLite history instance
func NewSQLiteHistory(dbPath string) (storage.History, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteHistory{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteHistory) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS fetch_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		packages INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		discrepancies INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetch_runs_started_at ON fetch_runs(started_at);

	CREATE TABLE IF NOT EXISTS package_runs (
		run_id TEXT NOT NULL,
		package TEXT NOT NULL,
		last_day INTEGER,
		last_week INTEGER,
		last_month INTEGER,
		total INTEGER,
		computed INTEGER NOT NULL,
		discrepancies INTEGER NOT NULL,
		PRIMARY KEY (run_id, package)
	);

	CREATE INDEX IF NOT EXISTS idx_package_runs_package ON package_runs(package);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun persists a run summary
func (s *sqliteHistory) SaveRun(ctx context.Context, run *domain.FetchRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fetch_runs (id, started_at, finished_at, packages, failures, discrepancies)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.Packages, run.Failures, run.Discrepancies)
	return err
}

// SavePackageRuns persists the per-package rows of a run
func (s *sqliteHistory) SavePackageRuns(ctx context.Context, rows []*domain.PackageRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO package_runs (run_id, package, last_day, last_week, last_month, total, computed, discrepancies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.RunID, row.Package,
			row.LastDay, row.LastWeek, row.LastMonth, row.Total,
			row.Computed, row.Discrepancies,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first
func (s *sqliteHistory) ListRuns(ctx context.Context, limit int) ([]*domain.FetchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, packages, failures, discrepancies
		FROM fetch_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.FetchRun
	for rows.Next() {
		var run domain.FetchRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Packages, &run.Failures, &run.Discrepancies); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// GetPackageRuns returns the per-package rows of a run
func (s *sqliteHistory) GetPackageRuns(ctx context.Context, runID string) ([]*domain.PackageRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, package, last_day, last_week, last_month, total, computed, discrepancies
		FROM package_runs
		WHERE run_id = ?
		ORDER BY package
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.PackageRun
	for rows.Next() {
		var row domain.PackageRun
		if err := rows.Scan(&row.RunID, &row.Package,
			&row.LastDay, &row.LastWeek, &row.LastMonth, &row.Total,
			&row.Computed, &row.Discrepancies,
		); err != nil {
			return nil, err
		}
		result = append(result, &row)
	}

	return result, rows.Err()
}

// Close closes the database connection
func (s *sqliteHistory) Close() error {
	return s.db.Close()
}
