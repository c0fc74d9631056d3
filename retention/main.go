package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/config"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/elasticsearch"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/logger"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/models"
)

type archivePurger interface {
	PurgeArchived(ctx context.Context, kind models.Kind, maxAge time.Duration, batchSize int) (int64, error)
}

func main() {
	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.IndexPrefix, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	if err := waitForCluster(ctx, log, esClient, 10, 2*time.Second); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown signal received during startup")
			return
		}
		log.Error("failed to connect to elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("connected to elasticsearch")

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("archive purge running",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
	)

	// first pass runs immediately; failures wait for the next tick
	runOnce(ctx, log, esClient, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, esClient, cfg)
		}
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// waitForCluster pings until the cluster answers, doubling the delay between
// attempts up to 30s.
func waitForCluster(ctx context.Context, log *slog.Logger, c pinger, attempts int, delay time.Duration) error {
	var err error
	for i := range attempts {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = c.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		log.Warn("elasticsearch ping failed, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", attempts),
			slog.Duration("retry_in", delay),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, 30*time.Second)
	}
	return err
}

func runOnce(ctx context.Context, log *slog.Logger, purger archivePurger, cfg *config.Retention) int64 {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var total int64
	for _, kind := range models.Kinds {
		deleted, err := purger.PurgeArchived(subCtx, kind, cfg.MaxAge, cfg.BatchSize)
		total += deleted
		if err != nil {
			log.Warn("purge failed (will retry on next interval)",
				slog.String("kind", string(kind)),
				slog.Any("err", err),
			)
			continue
		}
		if deleted > 0 {
			log.Info("purged archived records", slog.String("kind", string(kind)), slog.Int64("deleted", deleted))
		}
	}

	if total == 0 {
		log.Debug("purge completed, no archived records expired")
	}
	return total
}
