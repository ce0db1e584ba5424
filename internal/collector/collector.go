package collector

import (
	"context"

	"github.com/semclone/pypistats-tracker/internal/domain"
)

// Collector defines the interface for fetching pypistats.org data
type Collector interface {
	// FetchRecent retrieves the recent download summary (day, week, month)
	FetchRecent(ctx context.Context, pkg string) (*domain.RecentResponse, error)

	// FetchOverall retrieves the overall daily download time series
	FetchOverall(ctx context.Context, pkg string) (*domain.OverallResponse, error)

	// FetchPythonVersions retrieves downloads broken down by Python minor version
	FetchPythonVersions(ctx context.Context, pkg string) (*domain.BreakdownResponse, error)

	// FetchSystem retrieves downloads broken down by operating system
	FetchSystem(ctx context.Context, pkg string) (*domain.BreakdownResponse, error)
}
