// Package scheduler drives periodic checks of watchlist entries: each cycle
// it takes whatever is due, fetches fresh market metrics with bounded
// concurrency, and records the results.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"news-radar/internal/interfaces"
	"news-radar/internal/logger"
	"news-radar/internal/snapshot"
	"news-radar/internal/trace"
	"news-radar/internal/watchlist"
)

// Config holds scheduler configuration.
type Config struct {
	TickInterval time.Duration // how often due entries are collected
	Workers      int           // max concurrent metric fetches
	FetchTimeout time.Duration // per-ticker fetch timeout
	BatchLimit   int           // max entries taken per cycle
	Retention    time.Duration // snapshot age before pruning
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 15 * time.Second,
		Workers:      8,
		FetchTimeout: 10 * time.Second,
		BatchLimit:   64,
		Retention:    30 * 24 * time.Hour,
	}
}

// Scheduler periodically checks due watchlist entries.
type Scheduler struct {
	cfg     Config
	manager *watchlist.Manager
	fetcher interfaces.MetricsFetcher
	snaps   *snapshot.Store

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, manager *watchlist.Manager, fetcher interfaces.MetricsFetcher, snaps *snapshot.Store) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 15 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &Scheduler{
		cfg:     cfg,
		manager: manager,
		fetcher: fetcher,
		snaps:   snaps,
	}
}

// Start begins the check loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	logger.Info(ctx, "Scheduler started",
		"tick", s.cfg.TickInterval.String(),
		"workers", s.cfg.Workers,
	)
	return nil
}

// Stop gracefully shuts down, waiting for in-flight checks.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(ctx, "Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	pruner := time.NewTicker(time.Hour)
	defer pruner.Stop()

	// Check immediately on start.
	s.CheckDue(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.CheckDue(s.ctx)
		case <-pruner.C:
			if s.cfg.Retention > 0 {
				if _, err := s.snaps.Prune(s.ctx, time.Now().UTC().Add(-s.cfg.Retention)); err != nil {
					logger.Degraded(s.ctx, "scheduler.prune", err)
				}
			}
		}
	}
}

// CheckDue runs one cycle: collect due entries and check them concurrently.
func (s *Scheduler) CheckDue(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "scheduler.CheckDue")
	defer span.End()

	start := time.Now()

	due, err := s.manager.DueEntries(ctx, time.Now().UTC(), s.cfg.BatchLimit)
	if err != nil {
		logger.Degraded(ctx, "scheduler.due", err)
		return
	}
	if len(due) == 0 {
		return
	}

	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup
	var checked, failed atomic.Int64

	for _, entry := range due {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			if err := s.checkTicker(ctx, ticker); err != nil {
				failed.Add(1)
				return
			}
			checked.Add(1)
		}(entry.Ticker)
	}

	wg.Wait()

	logger.Info(ctx, "Check cycle complete",
		"due", len(due),
		"checked", checked.Load(),
		"failed", failed.Load(),
		"duration", time.Since(start).String(),
	)
}

func (s *Scheduler) checkTicker(ctx context.Context, ticker string) error {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	metrics, err := s.fetcher.Fetch(fctx, ticker)
	if err != nil {
		// The failure path still reschedules the entry so it is retried.
		if rerr := s.manager.RecordCheckFailure(ctx, ticker, err); rerr != nil {
			logger.ErrorWithErr(ctx, "Failed to record check failure", rerr, "ticker", ticker)
		}
		return err
	}

	return s.manager.RecordCheck(ctx, ticker, metrics)
}
