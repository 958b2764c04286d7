package config

import (
	"strings"
	"time"
)

// StatsConfig contains statistics polling configuration.
type StatsConfig struct {
	// SourceURL is the upstream statistics endpoint.
	SourceURL string `env:"STATS_SOURCE_URL" envDefault:"http://localhost:9000/api/statistics"`

	// StatsPath is the JMESPath expression locating the statistics object
	// inside the upstream response body.
	StatsPath string `env:"STATS_PATH" envDefault:"stats"`

	// RefreshInterval is the fixed polling period while subscribers are attached.
	RefreshInterval time.Duration `env:"STATS_REFRESH_INTERVAL" envDefault:"30s"`

	// CacheTTL is how long the latest snapshot persists in Redis.
	CacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"5m"`
}

// Sanitize applies guardrails to stats configuration values.
func (s *StatsConfig) Sanitize() {
	s.SourceURL = strings.TrimSpace(s.SourceURL)
	if s.StatsPath == "" {
		s.StatsPath = "stats"
	}
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = 30 * time.Second
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = 5 * time.Minute
	}
}
