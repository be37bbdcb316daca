package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"news-radar/internal/alertlog"
	"news-radar/internal/feed"
	"news-radar/internal/logger"
	"news-radar/internal/pipeline"
	"news-radar/internal/store"
)

const maxItemsPerTicker = 6

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	if v := os.Getenv("RADAR_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := alertlog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old alert logs", "error", err)
		}
	}

	deduper := initializeDedup(ctx, cfg)
	defer deduper.Close()

	manager, snaps, err := initializeTracking(cfg)
	must(err)

	sources := initializeSources(ctx, cfg)
	intake := initializePipeline(cfg, deduper, sources, manager)
	fetcher := initializeFetcher(ctx, cfg)

	sched := initializeScheduler(cfg, manager, fetcher, snaps)
	must(sched.Start(ctx))

	scraper := feed.NewScraper(time.Duration(cfg.Scheduler.FetchTimeoutSeconds) * time.Second)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Radar started",
		"mode", cfg.Mode,
		"universe", len(cfg.Universe),
		"poll_seconds", cfg.PollSeconds,
	)

	for {
		select {
		case <-tick.C:
			runIntakeCycle(ctx, cfg, scraper, intake)
		case <-sigc:
			logger.Info(ctx, "Shutting down...")
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := sched.Stop(stopCtx); err != nil {
				logger.ErrorWithErr(ctx, "Scheduler stop timed out", err)
			}
			stopCancel()
			_ = logger.Shutdown(context.Background())
			return
		case <-ctx.Done():
			return
		}
	}
}

// runIntakeCycle pulls fresh items for every universe ticker and feeds them
// through the pipeline. Failures are per-ticker; the cycle always finishes.
func runIntakeCycle(ctx context.Context, cfg *store.Config, scraper *feed.Scraper, intake *pipeline.Pipeline) {
	var promoted, duplicates, belowGate int

	for _, ticker := range cfg.Universe {
		items, err := scraper.Fetch(ctx, ticker, maxItemsPerTicker)
		if err != nil {
			logger.ErrorWithErr(ctx, "Feed fetch failed", err, "ticker", ticker)
			continue
		}

		for _, item := range items {
			out, err := intake.Process(ctx, item)
			if err != nil {
				logger.ErrorWithErr(ctx, "Pipeline error", err, "ticker", item.Ticker, "title", item.Title)
				continue
			}
			switch out.Status {
			case pipeline.StatusPromoted:
				promoted++
				if err := alertlog.Append(alertlog.Entry{
					Ticker:     item.Ticker,
					EventID:    out.Entry.TriggerEventID,
					Title:      item.Title,
					Reason:     out.GateReason,
					Value:      out.Score.Value,
					Confidence: out.Score.Confidence,
					Breakdown:  out.Score.Breakdown,
				}); err != nil {
					logger.Warn(ctx, "Failed to append alert log", "error", err)
				}
			case pipeline.StatusDuplicate:
				duplicates++
			case pipeline.StatusBelowGate:
				belowGate++
			}
		}
	}

	logger.Info(ctx, "Intake cycle complete",
		"promoted", promoted,
		"duplicates", duplicates,
		"below_gate", belowGate,
	)
}
