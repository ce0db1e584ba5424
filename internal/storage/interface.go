package storage

import (
	"context"

	"github.com/semclone/pypistats-tracker/internal/domain"
)

// SnapshotStore persists the unified stats snapshot for the dashboard
type SnapshotStore interface {
	// Save writes the snapshot atomically
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Load reads the most recently saved snapshot
	Load(ctx context.Context) (*domain.Snapshot, error)
}

// History is the abstract interface for the run-history persistence layer
type History interface {
	// Run operations
	SaveRun(ctx context.Context, run *domain.FetchRun) error
	SavePackageRuns(ctx context.Context, rows []*domain.PackageRun) error

	// Run retrieval
	ListRuns(ctx context.Context, limit int) ([]*domain.FetchRun, error)
	GetPackageRuns(ctx context.Context, runID string) ([]*domain.PackageRun, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
