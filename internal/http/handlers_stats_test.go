package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainstats "github.com/pantrykit/pantry-ui-api/internal/domain/stats"
	"github.com/pantrykit/pantry-ui-api/internal/stats"
)

// staticSource serves a fixed snapshot.
type staticSource struct {
	snap domainstats.Snapshot
}

func (s staticSource) Fetch(context.Context) (domainstats.Snapshot, error) {
	return s.snap, nil
}

// staticFallback is a canned SnapshotFallback.
type staticFallback struct {
	snap  domainstats.Snapshot
	found bool
	err   error
}

func (f staticFallback) Load(context.Context) (domainstats.Snapshot, bool, error) {
	return f.snap, f.found, f.err
}

func dashboardSnapshot() domainstats.Snapshot {
	return domainstats.Snapshot{
		RecipeCount:    12,
		InventoryCount: 48,
		UserCount:      5,
		CuisineCount:   7,
		InventoryValue: 321.5,
	}
}

func newStatsCache(src stats.CacheOptions) *stats.Cache {
	if src.Interval == 0 {
		src.Interval = time.Hour
	}
	return stats.NewCache(src)
}

func TestLatestServesColdCacheFromFallback(t *testing.T) {
	h := &StatsHandlers{
		Cache:    newStatsCache(stats.CacheOptions{Source: staticSource{}}),
		Fallback: staticFallback{snap: dashboardSnapshot(), found: true},
		Logger:   discardLogger(),
	}

	w := httptest.NewRecorder()
	h.Latest(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got domainstats.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, dashboardSnapshot(), got)
}

func TestLatestColdCacheWithoutFallbackIsZero(t *testing.T) {
	h := &StatsHandlers{
		Cache:  newStatsCache(stats.CacheOptions{Source: staticSource{}}),
		Logger: discardLogger(),
	}

	w := httptest.NewRecorder()
	h.Latest(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got domainstats.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domainstats.ZeroSnapshot(), got)
}

func TestLatestFallbackErrorDegradesToZero(t *testing.T) {
	h := &StatsHandlers{
		Cache:    newStatsCache(stats.CacheOptions{Source: staticSource{}}),
		Fallback: staticFallback{err: errors.New("redis down")},
		Logger:   discardLogger(),
	}

	w := httptest.NewRecorder()
	h.Latest(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got domainstats.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domainstats.ZeroSnapshot(), got)
}

func TestLatestPrefersWarmCache(t *testing.T) {
	cache := newStatsCache(stats.CacheOptions{Source: staticSource{snap: dashboardSnapshot()}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the cache through a subscription, then detach.
	updates := cache.Subscribe(ctx)
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first snapshot")
	}

	h := &StatsHandlers{
		Cache:    cache,
		Fallback: staticFallback{snap: domainstats.Snapshot{RecipeCount: 999}, found: true},
		Logger:   discardLogger(),
	}

	w := httptest.NewRecorder()
	h.Latest(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var got domainstats.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, dashboardSnapshot(), got)
}

func TestStreamDeliversSSEEvents(t *testing.T) {
	cache := newStatsCache(stats.CacheOptions{Source: staticSource{snap: dashboardSnapshot()}})
	h := &StatsHandlers{Cache: cache, Logger: discardLogger()}

	srv := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	line := readSSEDataLine(t, resp.Body)
	require.True(t, strings.HasPrefix(line, "data: "), "got %q", line)

	var got domainstats.Snapshot
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &got))
	assert.Equal(t, dashboardSnapshot(), got)
}

func TestStreamEndsWhenClientDisconnects(t *testing.T) {
	cache := newStatsCache(stats.CacheOptions{Source: staticSource{snap: dashboardSnapshot()}})
	h := &StatsHandlers{Cache: cache, Logger: discardLogger()}

	handlerDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Stream(w, r)
		close(handlerDone)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	// Read the first event, then drop the connection.
	readSSEDataLine(t, resp.Body)
	cancel()
	resp.Body.Close()

	select {
	case <-handlerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("stream handler did not return after disconnect")
	}
}

// readSSEDataLine scans the stream until the first "data:" line.
func readSSEDataLine(t *testing.T, body io.Reader) string {
	t.Helper()
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			return line
		}
	}
	t.Fatalf("no data line in stream: %v", scanner.Err())
	return ""
}
