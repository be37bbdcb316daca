package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"news-radar/internal/snapshot"
	"news-radar/internal/types"
	"news-radar/internal/watchlist"
)

type fakeFetcher struct {
	calls atomic.Int64
	err   error
	price float64
}

func (f *fakeFetcher) Fetch(_ context.Context, ticker string) (types.MarketMetrics, error) {
	f.calls.Add(1)
	if f.err != nil {
		return types.MarketMetrics{}, f.err
	}
	return types.MarketMetrics{
		Ticker:    ticker,
		Price:     f.price,
		Volume:    5000,
		Timestamp: time.Now().UTC(),
	}, nil
}

func setup(t *testing.T, fetcher *fakeFetcher) (*Scheduler, *watchlist.Manager) {
	t.Helper()

	db, err := watchlist.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	snaps := snapshot.NewStore(db)
	rules := watchlist.Rules{
		Check: map[types.State]time.Duration{
			types.StateHot:  time.Minute,
			types.StateWarm: 5 * time.Minute,
			types.StateCool: time.Hour,
		},
		Decay: map[types.State]time.Duration{
			types.StateHot:  4 * time.Hour,
			types.StateWarm: 24 * time.Hour,
			types.StateCool: 72 * time.Hour,
		},
	}
	manager := watchlist.NewManager(db, rules, snaps)

	cfg := DefaultConfig()
	cfg.Workers = 4
	return New(cfg, manager, fetcher, snaps), manager
}

func addDue(t *testing.T, m *watchlist.Manager, ticker string) {
	t.Helper()
	if _, err := m.AddOrPromote(context.Background(), ticker, types.TriggerContext{Reason: "test"}); err != nil {
		t.Fatalf("AddOrPromote(%s) failed: %v", ticker, err)
	}
	// Entries are created with a future next check; pull it into the past.
	if err := m.Reschedule(context.Background(), ticker, time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("Reschedule(%s) failed: %v", ticker, err)
	}
}

func TestCheckDueRecordsMetrics(t *testing.T) {
	fetcher := &fakeFetcher{price: 150}
	s, m := setup(t, fetcher)
	ctx := context.Background()

	addDue(t, m, "AAPL")
	addDue(t, m, "MSFT")

	s.CheckDue(ctx)

	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetcher called %d times, want 2", got)
	}

	entry, err := m.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.SnapshotCount != 1 {
		t.Errorf("snapshot_count = %d, want 1", entry.SnapshotCount)
	}
	if entry.LatestPrice != 150 {
		t.Errorf("latest_price = %f, want 150", entry.LatestPrice)
	}
	if !entry.NextCheckAt.After(time.Now().UTC()) {
		t.Error("entry should be rescheduled into the future")
	}
}

func TestCheckDueSkipsNotYetDue(t *testing.T) {
	fetcher := &fakeFetcher{price: 100}
	s, m := setup(t, fetcher)
	ctx := context.Background()

	// Freshly added: next check is a minute out, nothing is due.
	if _, err := m.AddOrPromote(ctx, "AAPL", types.TriggerContext{Reason: "test"}); err != nil {
		t.Fatalf("AddOrPromote failed: %v", err)
	}

	s.CheckDue(ctx)

	if got := fetcher.calls.Load(); got != 0 {
		t.Errorf("fetcher called %d times for a not-due entry, want 0", got)
	}
}

func TestCheckDueFailureReschedules(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("feed down")}
	s, m := setup(t, fetcher)
	ctx := context.Background()

	addDue(t, m, "AAPL")

	s.CheckDue(ctx)

	entry, err := m.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.SnapshotCount != 0 {
		t.Errorf("failed fetch must not record a snapshot, count = %d", entry.SnapshotCount)
	}
	if !entry.NextCheckAt.After(time.Now().UTC()) {
		t.Error("failed entry should still be rescheduled")
	}

	// Once rescheduled, an immediate second cycle finds nothing due.
	before := fetcher.calls.Load()
	s.CheckDue(ctx)
	if fetcher.calls.Load() != before {
		t.Error("rescheduled entry checked again in the same instant")
	}
}

func TestStartStop(t *testing.T) {
	fetcher := &fakeFetcher{price: 100}
	s, m := setup(t, fetcher)
	ctx := context.Background()

	addDue(t, m, "AAPL")

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The startup cycle runs immediately.
	deadline := time.Now().Add(2 * time.Second)
	for fetcher.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fetcher.calls.Load() == 0 {
		t.Error("startup cycle never ran")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
