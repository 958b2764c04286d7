package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/pantrykit/pantry-ui-api/config"
	redisadapter "github.com/pantrykit/pantry-ui-api/internal/adapters/redis"
	"github.com/pantrykit/pantry-ui-api/internal/adapters/statsource"
	httpx "github.com/pantrykit/pantry-ui-api/internal/http"
	"github.com/pantrykit/pantry-ui-api/internal/observability/statsd"
	"github.com/pantrykit/pantry-ui-api/internal/stats"
	"github.com/redis/go-redis/v9"
)

// StatsDeps contains dependencies for the statistics cache.
type StatsDeps struct {
	Config      config.StatsConfig
	RedisClient redis.UniversalClient // optional; enables the persisted snapshot
	Metrics     statsd.Sink           // optional
	Logger      *slog.Logger
}

// BuildStatsCache creates the statistics poll cache and, when Redis is
// available, the persisted snapshot store backing plain JSON reads. Without
// Redis the returned fallback is a nil interface, so handler nil checks
// treat it as absent.
func BuildStatsCache(deps StatsDeps) (*stats.Cache, httpx.SnapshotFallback, error) {
	source, err := statsource.NewHTTPSource(statsource.HTTPSourceConfig{
		URL:       deps.Config.SourceURL,
		StatsPath: deps.Config.StatsPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build stats source: %w", err)
	}

	var snapshots httpx.SnapshotFallback
	var sink stats.SnapshotSink
	if deps.RedisClient != nil {
		sc := redisadapter.NewSnapshotCache(deps.RedisClient, deps.Config.CacheTTL)
		snapshots = sc
		sink = sc
	}

	cache := stats.NewCache(stats.CacheOptions{
		Source:   source,
		Interval: deps.Config.RefreshInterval,
		Sink:     sink,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	})

	return cache, snapshots, nil
}
