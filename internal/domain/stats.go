package domain

// Category labels used by the pypistats.org overall time series
const (
	CategoryWithMirrors    = "with_mirrors"
	CategoryWithoutMirrors = "without_mirrors"
)

// DailyDownload represents a single row of the overall time series.
// Several rows may share a date (one per category) and must be summed.
type DailyDownload struct {
	Category  string `json:"category,omitempty"`
	Date      string `json:"date"`
	Downloads int64  `json:"downloads"`
}

// OverallResponse is the raw payload of the overall endpoint. It is carried
// into the snapshot unchanged so the dashboard can plot the full series.
type OverallResponse struct {
	Data    []DailyDownload `json:"data"`
	Package string          `json:"package,omitempty"`
	Type    string          `json:"type,omitempty"`
}

// RecentData holds the windowed download counts for the three scopes.
// A nil field means "no data", which is distinct from a genuine
// zero-download window.
type RecentData struct {
	LastDay   *int64 `json:"last_day,omitempty"`
	LastWeek  *int64 `json:"last_week,omitempty"`
	LastMonth *int64 `json:"last_month,omitempty"`
	Total     *int64 `json:"total,omitempty"`

	LastDayWithMirrors   *int64 `json:"last_day_with_mirrors,omitempty"`
	LastWeekWithMirrors  *int64 `json:"last_week_with_mirrors,omitempty"`
	LastMonthWithMirrors *int64 `json:"last_month_with_mirrors,omitempty"`
	TotalWithMirrors     *int64 `json:"total_with_mirrors,omitempty"`

	LastDayWithoutMirrors   *int64 `json:"last_day_without_mirrors,omitempty"`
	LastWeekWithoutMirrors  *int64 `json:"last_week_without_mirrors,omitempty"`
	LastMonthWithoutMirrors *int64 `json:"last_month_without_mirrors,omitempty"`
	TotalWithoutMirrors     *int64 `json:"total_without_mirrors,omitempty"`
}

// RecentResponse is the raw payload of the recent summary endpoint.
type RecentResponse struct {
	Data    *RecentData `json:"data,omitempty"`
	Package string      `json:"package,omitempty"`
	Type    string      `json:"type,omitempty"`
}

// CategoryTotals maps date to summed downloads, built once per package from
// the overall series. Combined always covers every row; the mirror maps only
// cover rows whose category matched exactly.
type CategoryTotals struct {
	Combined       map[string]int64
	WithMirrors    map[string]int64
	WithoutMirrors map[string]int64
}

// NewCategoryTotals returns empty, non-nil maps for all three scopes.
func NewCategoryTotals() CategoryTotals {
	return CategoryTotals{
		Combined:       make(map[string]int64),
		WithMirrors:    make(map[string]int64),
		WithoutMirrors: make(map[string]int64),
	}
}

// Discrepancy records a disagreement between the summary endpoint and the
// value derived from the time series.
type Discrepancy struct {
	Reported int64 `json:"reported"`
	Derived  int64 `json:"derived"`
}

// RecentMetrics is the reconciled metrics record for a package. Computed is
// set when the summary endpoint was absent or invalid and every value was
// derived from the time series alone.
type RecentMetrics struct {
	Data          *RecentData            `json:"data,omitempty"`
	Package       string                 `json:"package,omitempty"`
	Type          string                 `json:"type,omitempty"`
	Computed      bool                   `json:"computed,omitempty"`
	Discrepancies map[string]Discrepancy `json:"discrepancies,omitempty"`
}

// BreakdownEntry is one row of a python_minor or system breakdown.
type BreakdownEntry struct {
	Category  string `json:"category"`
	Date      string `json:"date,omitempty"`
	Downloads int64  `json:"downloads"`
}

// BreakdownResponse is the raw payload of the python_minor and system
// endpoints, carried into the snapshot unchanged.
type BreakdownResponse struct {
	Data    []BreakdownEntry `json:"data"`
	Package string           `json:"package,omitempty"`
	Type    string           `json:"type,omitempty"`
}
