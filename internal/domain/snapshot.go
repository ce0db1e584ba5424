package domain

import "time"

// PackageStats bundles everything fetched and reconciled for one package.
type PackageStats struct {
	Name           string             `json:"name"`
	Recent         *RecentMetrics     `json:"recent"`
	Overall        *OverallResponse   `json:"overall"`
	PythonVersions *BreakdownResponse `json:"python_versions"`
	System         *BreakdownResponse `json:"system"`
}

// Snapshot is the persisted artifact consumed by the dashboard.
type Snapshot struct {
	LastUpdated string                   `json:"last_updated"`
	Packages    map[string]*PackageStats `json:"packages"`
}

// NewSnapshot returns a snapshot stamped with the current UTC time.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		LastUpdated: FormatTimestamp(time.Now()),
		Packages:    make(map[string]*PackageStats),
	}
}

// FormatTimestamp renders a time as ISO-8601 UTC with a 'Z' suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
