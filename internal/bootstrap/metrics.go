package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/pantrykit/pantry-ui-api/config"
	"github.com/pantrykit/pantry-ui-api/internal/observability/statsd"
)

// BuildMetrics creates the StatsD client. A disabled configuration yields a
// client that silently drops metrics, so callers never branch on it.
func BuildMetrics(cfg config.StatsdConfig, logger *slog.Logger) (*statsd.Client, error) {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Enabled,
		Address: cfg.Address,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build statsd client: %w", err)
	}

	if client.Enabled() {
		logger.Info("metrics enabled", "statsd_addr", cfg.Address, "prefix", cfg.Prefix)
	}

	return client, nil
}
