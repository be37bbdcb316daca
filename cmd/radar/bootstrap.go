package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"news-radar/internal/dedup"
	"news-radar/internal/interfaces"
	"news-radar/internal/logger"
	"news-radar/internal/marketdata"
	"news-radar/internal/opinion"
	"news-radar/internal/opinion/claude"
	"news-radar/internal/opinion/noop"
	"news-radar/internal/opinion/openai"
	"news-radar/internal/opinion/opinionobs"
	"news-radar/internal/pipeline"
	"news-radar/internal/scheduler"
	"news-radar/internal/snapshot"
	"news-radar/internal/store"
	"news-radar/internal/watchlist"
)

// initializeSystem initializes the logger, which brings up the shared
// tracer as part of its config.
func initializeSystem() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initializeDedup builds the two-index deduper; a configured REDIS_ADDR
// promotes the indices from in-memory to redis.
func initializeDedup(ctx context.Context, cfg *store.Config) *dedup.Deduper {
	dcfg := dedup.Config{
		ContentTTL:  time.Duration(cfg.Dedup.ContentTTLHours) * time.Hour,
		TemporalTTL: time.Duration(cfg.Dedup.TemporalTTLMinutes) * time.Minute,
		Shards:      cfg.Dedup.Shards,
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		logger.Info(ctx, "Using redis dedup indices", "addr", addr)
	} else {
		logger.Info(ctx, "Using in-memory dedup indices", "shards", dcfg.Shards)
	}

	return dedup.NewAuto(dcfg)
}

// initializeSources builds the opinion sources: the local lexicon plus the
// configured LLM provider behind the overload guard, each wrapped with
// observability middleware.
func initializeSources(ctx context.Context, cfg *store.Config) []interfaces.Source {
	lexicon := opinion.NewLexiconSource()

	var provider interfaces.Source
	switch cfg.LLM.Provider {
	case "OPENAI":
		provider = openai.NewOpenAISource(cfg)
	case "CLAUDE":
		provider = claude.NewClaudeSource(cfg)
	default:
		provider = noop.NewNoopSource()
		logger.Warn(ctx, "No LLM provider configured - using Noop source (always neutral)")
	}

	guarded := opinion.NewGuard(provider, lexicon, opinion.GuardConfig{
		MaxInFlight: cfg.LLM.MaxInFlight,
		MaxRetries:  cfg.LLM.MaxRetries,
		Backoff:     time.Duration(cfg.LLM.BackoffMs) * time.Millisecond,
	})

	return []interfaces.Source{
		opinionobs.Wrap(lexicon),
		opinionobs.Wrap(guarded),
	}
}

// initializeTracking opens the database and builds the watchlist manager
// and snapshot store over it.
func initializeTracking(cfg *store.Config) (*watchlist.Manager, *snapshot.Store, error) {
	db, err := watchlist.OpenDB(cfg.Watchlist.DBPath)
	if err != nil {
		return nil, nil, err
	}

	snaps := snapshot.NewStore(db)
	manager := watchlist.NewManager(db, watchlist.RulesFromConfig(cfg), snaps)
	return manager, snaps, nil
}

// initializeFetcher picks the market data source: Alpaca in LIVE mode with
// credentials present, the simulated walker otherwise.
func initializeFetcher(ctx context.Context, cfg *store.Config) interfaces.MetricsFetcher {
	if cfg.Mode == "LIVE" {
		fetcher, err := marketdata.NewAlpacaFetcher()
		if err == nil {
			logger.Info(ctx, "Using Alpaca market data")
			return fetcher
		}
		logger.Warn(ctx, "Alpaca unavailable - falling back to simulated market data", "error", err)
	} else {
		logger.Warn(ctx, "Running in DRY_RUN mode - market data is simulated")
	}
	return marketdata.NewSimulatedFetcher()
}

// initializeScheduler builds the check scheduler over the watchlist.
func initializeScheduler(cfg *store.Config, manager *watchlist.Manager, fetcher interfaces.MetricsFetcher, snaps *snapshot.Store) *scheduler.Scheduler {
	scfg := scheduler.DefaultConfig()
	scfg.Workers = cfg.Scheduler.Workers
	scfg.FetchTimeout = time.Duration(cfg.Scheduler.FetchTimeoutSeconds) * time.Second
	scfg.Retention = time.Duration(cfg.Snapshots.RetentionDays) * 24 * time.Hour

	return scheduler.New(scfg, manager, fetcher, snaps)
}

// initializePipeline builds the intake pipeline.
func initializePipeline(cfg *store.Config, deduper *dedup.Deduper, sources []interfaces.Source, manager *watchlist.Manager) *pipeline.Pipeline {
	gate := pipeline.NewThresholdGate(cfg.Sentiment.Threshold, cfg.Sentiment.MinConfidence)

	return pipeline.New(pipeline.Config{
		Bucket:        time.Duration(cfg.Dedup.BucketMinutes) * time.Minute,
		SourceTimeout: time.Duration(cfg.Sentiment.SourceTimeoutSeconds) * time.Second,
		Weights:       cfg.Sentiment.Weights,
	}, deduper, sources, gate, manager)
}
