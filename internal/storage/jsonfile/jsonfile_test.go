package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semclone/pypistats-tracker/internal/domain"
)

func i64(v int64) *int64 {
	return &v
}

func sampleSnapshot() *domain.Snapshot {
	snapshot := domain.NewSnapshot()
	snapshot.Packages["ospac"] = &domain.PackageStats{
		Name: "ospac",
		Recent: &domain.RecentMetrics{
			Data: &domain.RecentData{LastDay: i64(10), Total: i64(60)},
		},
		Overall: &domain.OverallResponse{
			Data: []domain.DailyDownload{{Date: "2024-01-12", Downloads: 10}},
		},
		PythonVersions: &domain.BreakdownResponse{},
		System:         &domain.BreakdownResponse{},
	}
	return snapshot
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "stats.json")
	store := New(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded.Packages, "ospac")
	assert.Equal(t, int64(10), *loaded.Packages["ospac"].Recent.Data.LastDay)
	assert.Equal(t, int64(60), *loaded.Packages["ospac"].Recent.Data.Total)
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "data", "stats.json")

	require.NoError(t, New(path).Save(context.Background(), sampleSnapshot()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")

	require.NoError(t, New(path).Save(context.Background(), sampleSnapshot()))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotTimestampIsUTCWithZSuffix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, New(path).Save(context.Background(), sampleSnapshot()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		LastUpdated string `json:"last_updated"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`), doc.LastUpdated)
}

func TestAbsentMetricsStayAbsentInJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	snapshot := domain.NewSnapshot()
	snapshot.Packages["ghost"] = &domain.PackageStats{
		Name:   "ghost",
		Recent: &domain.RecentMetrics{Data: &domain.RecentData{}, Computed: true},
	}

	require.NoError(t, New(path).Save(context.Background(), snapshot))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// Absent must not serialize as 0.
	assert.NotContains(t, string(raw), `"last_day"`)
	assert.NotContains(t, string(raw), `"total"`)
}

func TestLoadMissingFileFails(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing.json"))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}
