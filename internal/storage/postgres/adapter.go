package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/semclone/pypistats-tracker/internal/domain"
	"github.com/semclone/pypistats-tracker/internal/storage"
)

// postgresHistory implements the History interface for PostgreSQL
type postgresHistory struct {
	db *sql.DB
}

// NewPostgresHistory creates a new PostgreSQL history instance
func NewPostgresHistory(databaseURL string) (storage.History, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &postgresHistory{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresHistory) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS fetch_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		packages INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		discrepancies INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetch_runs_started_at ON fetch_runs(started_at);

	CREATE TABLE IF NOT EXISTS package_runs (
		run_id TEXT NOT NULL,
		package TEXT NOT NULL,
		last_day BIGINT,
		last_week BIGINT,
		last_month BIGINT,
		total BIGINT,
		computed BOOLEAN NOT NULL,
		discrepancies INTEGER NOT NULL,
		PRIMARY KEY (run_id, package)
	);

	CREATE INDEX IF NOT EXISTS idx_package_runs_package ON package_runs(package);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun persists a run summary
func (s *postgresHistory) SaveRun(ctx context.Context, run *domain.FetchRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_runs (id, started_at, finished_at, packages, failures, discrepancies)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			packages = EXCLUDED.packages,
			failures = EXCLUDED.failures,
			discrepancies = EXCLUDED.discrepancies
	`, run.ID, run.StartedAt, run.FinishedAt, run.Packages, run.Failures, run.Discrepancies)
	return err
}

// SavePackageRuns persists the per-package rows of a run
func (s *postgresHistory) SavePackageRuns(ctx context.Context, rows []*domain.PackageRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO package_runs (run_id, package, last_day, last_week, last_month, total, computed, discrepancies)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, package) DO UPDATE SET
			last_day = EXCLUDED.last_day,
			last_week = EXCLUDED.last_week,
			last_month = EXCLUDED.last_month,
			total = EXCLUDED.total,
			computed = EXCLUDED.computed,
			discrepancies = EXCLUDED.discrepancies
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
func (s *postgresHistory) ListRuns(ctx context.Context, limit int) ([]*domain.FetchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, packages, failures, discrepancies
		FROM fetch_runs
		ORDER BY started_at DESC
		LIMIT $1
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
func (s *postgresHistory) GetPackageRuns(ctx context.Context, runID string) ([]*domain.PackageRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, package, last_day, last_week, last_month, total, computed, discrepancies
		FROM package_runs
		WHERE run_id = $1
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
func (s *postgresHistory) Close() error {
	return s.db.Close()
}
