// cmd/studio-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"content-studio/internal/common/config"
	"content-studio/internal/common/database"
	"content-studio/internal/common/httpclient"
	"content-studio/internal/common/logger"
	"content-studio/internal/common/notify"
	"content-studio/internal/common/observability"
	"content-studio/internal/orchestrator"
	"content-studio/internal/provider/factory"
	"content-studio/internal/server"
	"content-studio/internal/store"
	"content-studio/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting studio server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("studio-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Load provider registry and build fallback chains ---
	descriptors, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("provider registry load failed", zap.Error(err))
	}

	chains := factory.New(cfg.Providers, httpclient.New(), log).Build(descriptors)
	for channel, chain := range chains {
		zapLog.Info("provider chain ready",
			zap.String("channel", string(channel)),
			zap.Int("providers", len(chain)),
		)
	}

	var cache orchestrator.ResultCache
	if cfg.Cache.Enabled {
		cache = store.NewRedisResultCache(rdb, time.Duration(cfg.Cache.TTL)*time.Second, log)
	}

	orch := orchestrator.New(chains, cfg.Channels, cache, log)

	notifier, err := notify.New(ctx, cfg.Notifications)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	var indexer *store.SearchIndexer
	if esClient != nil {
		indexer = store.NewSearchIndexer(esClient, cfg.Database.Elasticsearch.Index, log)
	}

	deps := server.Dependencies{
		Orchestrator: orch,
		History:      store.NewHistoryStore(pg, log),
		Search:       indexer,
		Notifier:     notifier,
		Obs:          obs,
		Ready: func(ctx context.Context) error {
			if err := pg.Ping(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if err := rdb.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	}

	srv := server.New(cfg.Server, cfg.App.Environment, deps, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	case sig := <-stop:
		zapLog.Info("Shutting down...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
