package reconciler

import (
	"sort"

	"github.com/semclone/pypistats-tracker/internal/domain"
)

// Window sizes over distinct dates, most recent first.
const (
	weekWindow  = 7
	monthWindow = 30
)

// Aggregate sums the raw time series into per-date totals for each scope.
// Every row feeds the combined map; rows whose category matches exactly
// "with_mirrors" or "without_mirrors" additionally feed that scope's map.
// Unrecognized or missing categories contribute only to combined.
func Aggregate(records []domain.DailyDownload) domain.CategoryTotals {
	totals := domain.NewCategoryTotals()

	for _, record := range records {
		totals.Combined[record.Date] += record.Downloads
		switch record.Category {
		case domain.CategoryWithMirrors:
			totals.WithMirrors[record.Date] += record.Downloads
		case domain.CategoryWithoutMirrors:
			totals.WithoutMirrors[record.Date] += record.Downloads
		}
	}

	return totals
}

// DeriveMetrics computes windowed download counts from the per-date totals.
// Dates are ranked by the combined map, most recent first; a date absent from
// a scope's map contributes 0 to that scope's windows. Totals cover every
// entry of the scope's own map, not just the recent window. With no dates at
// all every field stays nil: absence means "no data", not zero.
func DeriveMetrics(totals domain.CategoryTotals) domain.RecentData {
	var derived domain.RecentData

	dates := make([]string, 0, len(totals.Combined))
	for date := range totals.Combined {
		dates = append(dates, date)
	}
	if len(dates) == 0 {
		return derived
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	derived.LastDay, derived.LastWeek, derived.LastMonth, derived.Total = deriveScope(totals.Combined, dates)
	derived.LastDayWithMirrors, derived.LastWeekWithMirrors, derived.LastMonthWithMirrors, derived.TotalWithMirrors = deriveScope(totals.WithMirrors, dates)
	derived.LastDayWithoutMirrors, derived.LastWeekWithoutMirrors, derived.LastMonthWithoutMirrors, derived.TotalWithoutMirrors = deriveScope(totals.WithoutMirrors, dates)

	return derived
}

// deriveScope walks one scope's per-date sums along the shared date ranking.
// dates must be non-empty and sorted most recent first.
func deriveScope(scope map[string]int64, dates []string) (lastDay, lastWeek, lastMonth, total *int64) {
	var day, week, month int64

	day = scope[dates[0]]
	for i, date := range dates {
		if i >= monthWindow {
			break
		}
		if i < weekWindow {
			week += scope[date]
		}
		month += scope[date]
	}

	var lifetime int64
	for _, downloads := range scope {
		lifetime += downloads
	}

	return &day, &week, &month, &lifetime
}

// Reconcile merges the summary endpoint's report with the derived metrics.
// Only the combined last_day, last_week and last_month fields are compared;
// on disagreement the derived value wins and a discrepancy is recorded under
// the field's name. Mirror-scoped fields and the cumulative total are always
// taken from the derived record since the summary endpoint never reports
// them. A missing or malformed report yields the derived record in full,
// marked as computed. Inputs are never mutated.
func Reconcile(reported *domain.RecentResponse, derived domain.RecentData) (domain.RecentMetrics, map[string]domain.Discrepancy) {
	discrepancies := make(map[string]domain.Discrepancy)

	if reported == nil || reported.Data == nil {
		data := derived
		return domain.RecentMetrics{
			Data:     &data,
			Computed: true,
		}, discrepancies
	}

	data := *reported.Data
	data.LastDay = reconcileField("last_day", reported.Data.LastDay, derived.LastDay, discrepancies)
	data.LastWeek = reconcileField("last_week", reported.Data.LastWeek, derived.LastWeek, discrepancies)
	data.LastMonth = reconcileField("last_month", reported.Data.LastMonth, derived.LastMonth, discrepancies)

	// Never reconciled: the summary endpoint has no notion of these.
	data.Total = derived.Total
	data.LastDayWithMirrors = derived.LastDayWithMirrors
	data.LastWeekWithMirrors = derived.LastWeekWithMirrors
	data.LastMonthWithMirrors = derived.LastMonthWithMirrors
	data.TotalWithMirrors = derived.TotalWithMirrors
	data.LastDayWithoutMirrors = derived.LastDayWithoutMirrors
	data.LastWeekWithoutMirrors = derived.LastWeekWithoutMirrors
	data.LastMonthWithoutMirrors = derived.LastMonthWithoutMirrors
	data.TotalWithoutMirrors = derived.TotalWithoutMirrors

	record := domain.RecentMetrics{
		Data:    &data,
		Package: reported.Package,
		Type:    reported.Type,
	}
	if len(discrepancies) > 0 {
		record.Discrepancies = discrepancies
	}
	return record, discrepancies
}

// reconcileField picks between a reported and a derived value. The time
// series is ground truth: a disagreement is resolved in favor of the derived
// value. Without a derived value there is nothing to check against, so the
// reported one stands.
func reconcileField(name string, reported, derived *int64, discrepancies map[string]domain.Discrepancy) *int64 {
	if derived == nil {
		return reported
	}
	if reported == nil {
		value := *derived
		return &value
	}
	if *reported != *derived {
		discrepancies[name] = domain.Discrepancy{
			Reported: *reported,
			Derived:  *derived,
		}
		value := *derived
		return &value
	}
	value := *reported
	return &value
}
