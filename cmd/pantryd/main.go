package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pantrykit/pantry-ui-api/config"
	"github.com/pantrykit/pantry-ui-api/internal/bootstrap"
	httpx "github.com/pantrykit/pantry-ui-api/internal/http"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting pantryd",
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"stats_source", cfg.Stats.SourceURL,
		"dev", cfg.IsDev)

	redisClient, err := bootstrap.ConnectRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	metrics, err := bootstrap.BuildMetrics(cfg.Statsd, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := metrics.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close statsd failed", "error", cerr)
		}
	}()

	authSvc := bootstrap.BuildAuthService(bootstrap.AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if authSvc == nil {
		return errors.New("auth service could not be configured")
	}

	statsCache, snapshots, err := bootstrap.BuildStatsCache(bootstrap.StatsDeps{
		Config:      cfg.Stats,
		RedisClient: redisClient,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		HTTP: cfg.HTTP,
		Services: httpx.RouterServices{
			Auth:         authSvc,
			Stats:        statsCache,
			Snapshots:    snapshots,
			Metrics:      metrics,
			CookieDomain: cfg.HTTP.CookieDomain,
			Logger:       logger,
		},
		Logger: logger,
	})

	return waitForShutdown(ctx, shutdownDeps{cfg: &cfg, server: server, logger: logger})
}

type shutdownDeps struct {
	cfg    *config.AppConfig
	server *http.Server
	logger *slog.Logger
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains the HTTP server.
func waitForShutdown(ctx context.Context, deps shutdownDeps) error {
	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		<-groupCtx.Done()
		deps.logger.Info("shutdown signal received")
		return bootstrap.ShutdownHTTPServer(bootstrap.ShutdownConfig{
			Context: context.WithoutCancel(groupCtx),
			Server:  deps.server,
			Timeout: deps.cfg.HTTP.ShutdownTimeout,
			Logger:  deps.logger,
		})
	})

	return g.Wait()
}
