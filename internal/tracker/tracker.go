package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/semclone/pypistats-tracker/internal/collector"
	"github.com/semclone/pypistats-tracker/internal/domain"
	"github.com/semclone/pypistats-tracker/internal/reconciler"
)

// ProgressCallback is a callback function for reporting progress
type ProgressCallback func(pkg string, progress float64)

// Tracker runs the fetch-and-reconcile pipeline over the tracked packages
type Tracker struct {
	collector collector.Collector
	log       *logrus.Entry
}

// Result bundles the snapshot with the run summary and per-package rows.
type Result struct {
	Snapshot    *domain.Snapshot
	Run         *domain.FetchRun
	PackageRuns []*domain.PackageRun
}

// New creates a new tracker
func New(coll collector.Collector) *Tracker {
	return &Tracker{
		collector: coll,
		log:       logrus.WithField("component", "tracker"),
	}
}

// Run fetches, reconciles and bundles stats for every package, strictly one
// package at a time to stay within the upstream API's informal limits. A
// failing endpoint degrades that package's record; it never aborts the run.
func (t *Tracker) Run(ctx context.Context, packages []string, onProgress ProgressCallback) (*Result, error) {
	run := &domain.FetchRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Packages:  len(packages),
	}

	snapshot := domain.NewSnapshot()
	packageRuns := make([]*domain.PackageRun, 0, len(packages))

	for i, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stats, failures := t.fetchPackage(ctx, pkg)
		snapshot.Packages[pkg] = stats

		run.Failures += failures
		run.Discrepancies += len(stats.Recent.Discrepancies)
		packageRuns = append(packageRuns, packageRun(run.ID, stats))

		if onProgress != nil {
			onProgress(pkg, float64(i+1)/float64(len(packages)))
		}
	}

	run.FinishedAt = time.Now()
	return &Result{
		Snapshot:    snapshot,
		Run:         run,
		PackageRuns: packageRuns,
	}, nil
}

// fetchPackage resolves one package end to end and reports how many of its
// endpoints failed.
func (t *Tracker) fetchPackage(ctx context.Context, pkg string) (*domain.PackageStats, int) {
	failures := 0
	log := t.log.WithField("package", pkg)

	recent, err := t.collector.FetchRecent(ctx, pkg)
	if err != nil {
		log.WithError(err).Warn("recent summary unavailable, falling back to computed metrics")
		recent = nil
		failures++
	}

	overall, err := t.collector.FetchOverall(ctx, pkg)
	if err != nil {
		log.WithError(err).Warn("overall series unavailable")
		overall = &domain.OverallResponse{}
		failures++
	}

	pythonVersions, err := t.collector.FetchPythonVersions(ctx, pkg)
	if err != nil {
		log.WithError(err).Warn("python version breakdown unavailable")
		pythonVersions = &domain.BreakdownResponse{}
		failures++
	}

	system, err := t.collector.FetchSystem(ctx, pkg)
	if err != nil {
		log.WithError(err).Warn("system breakdown unavailable")
		system = &domain.BreakdownResponse{}
		failures++
	}

	totals := reconciler.Aggregate(overall.Data)
	derived := reconciler.DeriveMetrics(totals)
	record, discrepancies := reconciler.Reconcile(recent, derived)

	for field, d := range discrepancies {
		log.WithFields(logrus.Fields{
			"field":    field,
			"reported": d.Reported,
			"derived":  d.Derived,
		}).Warn("summary endpoint disagrees with time series, using derived value")
	}

	return &domain.PackageStats{
		Name:           pkg,
		Recent:         &record,
		Overall:        overall,
		PythonVersions: pythonVersions,
		System:         system,
	}, failures
}

// packageRun flattens a package's combined metrics into a history row.
func packageRun(runID string, stats *domain.PackageStats) *domain.PackageRun {
	row := &domain.PackageRun{
		RunID:         runID,
		Package:       stats.Name,
		Computed:      stats.Recent.Computed,
		Discrepancies: len(stats.Recent.Discrepancies),
	}
	if data := stats.Recent.Data; data != nil {
		row.LastDay = data.LastDay
		row.LastWeek = data.LastWeek
		row.LastMonth = data.LastMonth
		row.Total = data.Total
	}
	return row
}
