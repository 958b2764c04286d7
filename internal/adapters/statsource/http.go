// Package statsource provides StatsSource adapters for the live
// statistics cache.
package statsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainstats "github.com/pantrykit/pantry-ui-api/internal/domain/stats"
)

// maxResponseBytes bounds how much of the upstream response we will read.
const maxResponseBytes = 1 << 20

// DefaultStatsPath locates the stats object in the upstream envelope.
const DefaultStatsPath = "stats"

// HTTPSourceConfig holds configuration for the HTTP stats source.
type HTTPSourceConfig struct {
	// URL is the stats endpoint, expected to return
	// {success: bool, stats?: {...}, message?: string}.
	URL string
	// StatsPath is a JMESPath expression locating the stats object inside
	// the response envelope. Defaults to DefaultStatsPath. Lets the source
	// adapt to upstreams that nest the payload differently.
	StatsPath string
	// Client is the HTTP client to use. Optional, defaults to a
	// 10s-timeout client.
	Client *http.Client
}

// HTTPSource fetches statistics snapshots from a remote JSON endpoint.
// Any failure (transport error, non-2xx status, success:false, or a
// missing stats object) is reported as a fetch error and the caller
// decides the fallback. Partial snapshots are never produced: the
// stats object is decoded into a complete Snapshot or the fetch fails.
type HTTPSource struct {
	url    string
	expr   string
	client *http.Client
}

// NewHTTPSource creates an HTTPSource and validates the JMESPath expression.
func NewHTTPSource(cfg HTTPSourceConfig) (*HTTPSource, error) {
	if cfg.URL == "" {
		return nil, errors.New("stats source URL is required")
	}
	expr := cfg.StatsPath
	if expr == "" {
		expr = DefaultStatsPath
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid stats path %q: %w", expr, err)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{url: cfg.URL, expr: expr, client: client}, nil
}

// envelope mirrors the upstream response contract.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Fetch retrieves one complete snapshot from the upstream endpoint.
func (s *HTTPSource) Fetch(ctx context.Context) (domainstats.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return domainstats.Snapshot{}, fmt.Errorf("build stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domainstats.Snapshot{}, fmt.Errorf("fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domainstats.Snapshot{}, fmt.Errorf("stats endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domainstats.Snapshot{}, fmt.Errorf("read stats response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domainstats.Snapshot{}, fmt.Errorf("decode stats envelope: %w", err)
	}
	if !env.Success {
		if env.Message != "" {
			return domainstats.Snapshot{}, fmt.Errorf("stats endpoint reported failure: %s", env.Message)
		}
		return domainstats.Snapshot{}, errors.New("stats endpoint reported failure")
	}

	return s.extract(body)
}

// extract locates the stats object via the configured JMESPath expression
// and decodes it into a Snapshot.
func (s *HTTPSource) extract(body []byte) (domainstats.Snapshot, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return domainstats.Snapshot{}, fmt.Errorf("decode stats response: %w", err)
	}

	located, err := jmespath.Search(s.expr, doc)
	if err != nil {
		return domainstats.Snapshot{}, fmt.Errorf("locate stats object: %w", err)
	}
	if located == nil {
		return domainstats.Snapshot{}, errors.New("stats object missing from response")
	}

	// Round-trip through JSON to decode the located object strictly into
	// the snapshot shape.
	raw, err := json.Marshal(located)
	if err != nil {
		return domainstats.Snapshot{}, fmt.Errorf("re-encode stats object: %w", err)
	}
	var snap domainstats.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domainstats.Snapshot{}, fmt.Errorf("decode stats object: %w", err)
	}
	return snap, nil
}
