package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/semclone/pypistats-tracker/internal/errors"
)

func newTestCollector(baseURL string) Collector {
	return NewPyPIStatsCollector(baseURL,
		WithRateLimiter(NewRateLimiter(0)),
		WithBackoff([]time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}),
	)
}

func TestFetchRecent_ParsesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ospac/recent", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"last_day":12,"last_week":80,"last_month":300},"package":"ospac","type":"recent_downloads"}`))
	}))
	defer server.Close()

	resp, err := newTestCollector(server.URL).FetchRecent(context.Background(), "ospac")

	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.Equal(t, int64(12), *resp.Data.LastDay)
	assert.Equal(t, int64(80), *resp.Data.LastWeek)
	assert.Equal(t, int64(300), *resp.Data.LastMonth)
	assert.Equal(t, "ospac", resp.Package)
}

func TestFetchOverall_ParsesSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vulnq/overall", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"category":"with_mirrors","date":"2024-01-10","downloads":100},
			{"category":"without_mirrors","date":"2024-01-10","downloads":50}
		],"package":"vulnq","type":"overall_downloads"}`))
	}))
	defer server.Close()

	resp, err := newTestCollector(server.URL).FetchOverall(context.Background(), "vulnq")

	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "with_mirrors", resp.Data[0].Category)
	assert.Equal(t, int64(100), resp.Data[0].Downloads)
}

func TestFetch_RetriesOnRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{"last_day":1},"package":"upmex"}`))
	}))
	defer server.Close()

	resp, err := newTestCollector(server.URL).FetchRecent(context.Background(), "upmex")

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(1), *resp.Data.LastDay)
}

func TestFetch_GivesUpAfterBackoffBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestCollector(server.URL).FetchRecent(context.Background(), "upmex")

	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err))
	// Initial attempt plus one retry per backoff step.
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestFetch_DoesNotRetryServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestCollector(server.URL).FetchOverall(context.Background(), "osslili")

	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestCollector(server.URL).FetchSystem(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRateLimiter_EnforcesMinimumDelay(t *testing.T) {
	limiter := NewRateLimiter(20 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))
	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRateLimiter_RespectsContextCancellation(t *testing.T) {
	limiter := NewRateLimiter(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	require.NoError(t, limiter.Wait(context.Background()))
	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
