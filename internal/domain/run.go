package domain

import "time"

// FetchRun summarizes one execution of the fetch pipeline.
type FetchRun struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Packages      int
	Failures      int
	Discrepancies int
}

// PackageRun records the reconciled combined metrics of a single package
// within a run.
type PackageRun struct {
	RunID         string
	Package       string
	LastDay       *int64
	LastWeek      *int64
	LastMonth     *int64
	Total         *int64
	Computed      bool
	Discrepancies int
}
