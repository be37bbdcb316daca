package dedup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// downIndex simulates a lost backing store.
type downIndex struct{}

func (downIndex) InsertIfAbsent(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("index down")
}

func (downIndex) Close() error { return nil }

func testDeduper(contentTTL, temporalTTL time.Duration) *Deduper {
	cfg := Config{ContentTTL: contentTTL, TemporalTTL: temporalTTL, Shards: 4}
	return New(NewMemoryIndex(cfg.Shards), NewMemoryIndex(cfg.Shards), cfg)
}

func TestCheckAndMarkIdempotence(t *testing.T) {
	d := testDeduper(time.Hour, time.Hour)
	defer d.Close()
	ctx := context.Background()

	if got := d.CheckAndMark(ctx, "content-1", "temporal-1"); got != ResultNew {
		t.Fatalf("first call: expected NEW, got %s", got)
	}
	if got := d.CheckAndMark(ctx, "content-1", "temporal-1"); got != ResultDuplicate {
		t.Errorf("second call: expected DUPLICATE, got %s", got)
	}
}

func TestEitherIndexSuppresses(t *testing.T) {
	d := testDeduper(time.Hour, time.Hour)
	defer d.Close()
	ctx := context.Background()

	d.CheckAndMark(ctx, "content-1", "temporal-1")

	// Same temporal bucket, different identity: cross-source republication.
	if got := d.CheckAndMark(ctx, "content-2", "temporal-1"); got != ResultDuplicate {
		t.Errorf("shared temporal key: expected DUPLICATE, got %s", got)
	}

	// Same identity resurfacing in a later bucket.
	if got := d.CheckAndMark(ctx, "content-1", "temporal-2"); got != ResultDuplicate {
		t.Errorf("shared content key: expected DUPLICATE, got %s", got)
	}
}

func TestExpiryReadmits(t *testing.T) {
	d := testDeduper(50*time.Millisecond, 50*time.Millisecond)
	defer d.Close()
	ctx := context.Background()

	d.CheckAndMark(ctx, "content-1", "temporal-1")

	if got := d.CheckAndMark(ctx, "content-1", "temporal-1"); got != ResultDuplicate {
		t.Fatalf("before expiry: expected DUPLICATE, got %s", got)
	}

	time.Sleep(80 * time.Millisecond)

	if got := d.CheckAndMark(ctx, "content-1", "temporal-1"); got != ResultNew {
		t.Errorf("after expiry: expected NEW, got %s", got)
	}
}

func TestAtMostOnceUnderConcurrency(t *testing.T) {
	d := testDeduper(time.Hour, time.Hour)
	defer d.Close()
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan Result, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- d.CheckAndMark(ctx, "content-race", "temporal-race")
		}()
	}
	wg.Wait()
	close(results)

	newCount := 0
	for r := range results {
		if r == ResultNew {
			newCount++
		}
	}

	if newCount != 1 {
		t.Errorf("expected exactly one NEW under concurrency, got %d", newCount)
	}
}

func TestCheckAndMarkFailsOpen(t *testing.T) {
	d := New(downIndex{}, downIndex{}, DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	// With both indices down, nothing can be suppressed: every call must
	// come back NEW so items keep flowing.
	if got := d.CheckAndMark(ctx, "content-1", "temporal-1"); got != ResultNew {
		t.Fatalf("first call with indices down: expected NEW, got %s", got)
	}
	if got := d.CheckAndMark(ctx, "content-1", "temporal-1"); got != ResultNew {
		t.Errorf("repeat call with indices down: expected NEW, got %s", got)
	}
}

func TestCheckAndMarkFailsOpenOneIndex(t *testing.T) {
	cfg := Config{ContentTTL: time.Hour, TemporalTTL: time.Hour, Shards: 4}
	d := New(NewMemoryIndex(cfg.Shards), downIndex{}, cfg)
	defer d.Close()
	ctx := context.Background()

	if got := d.CheckAndMark(ctx, "content-1", "temporal-1"); got != ResultNew {
		t.Fatalf("first call: expected NEW, got %s", got)
	}
	// The healthy content index still suppresses the exact same story.
	if got := d.CheckAndMark(ctx, "content-1", "temporal-1"); got != ResultDuplicate {
		t.Errorf("second call: expected DUPLICATE from the healthy index, got %s", got)
	}
}

func TestMemoryIndexInsertIfAbsent(t *testing.T) {
	idx := NewMemoryIndex(4)
	defer idx.Close()
	ctx := context.Background()

	inserted, err := idx.InsertIfAbsent(ctx, "k", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Error("first insert should report absent")
	}

	inserted, _ = idx.InsertIfAbsent(ctx, "k", time.Hour)
	if inserted {
		t.Error("second insert should report present")
	}
}

func TestMemoryIndexSweep(t *testing.T) {
	idx := NewMemoryIndex(2).(*memoryIndex)
	defer idx.Close()
	ctx := context.Background()

	idx.InsertIfAbsent(ctx, "short", 10*time.Millisecond)
	idx.InsertIfAbsent(ctx, "long", time.Hour)

	time.Sleep(30 * time.Millisecond)
	idx.sweep()

	total := 0
	for _, s := range idx.shards {
		s.mu.Lock()
		total += len(s.m)
		s.mu.Unlock()
	}

	if total != 1 {
		t.Errorf("expected 1 surviving entry after sweep, got %d", total)
	}
}
