package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"news-radar/internal/dedup"
	"news-radar/internal/interfaces"
	"news-radar/internal/snapshot"
	"news-radar/internal/types"
	"news-radar/internal/watchlist"
)

type fixedSource struct {
	name string
	op   types.Opinion
	err  error
}

func (f *fixedSource) Name() string { return f.name }

func (f *fixedSource) Score(_ context.Context, _ types.Item) (types.Opinion, error) {
	if f.err != nil {
		return types.Opinion{}, f.err
	}
	op := f.op
	op.Source = f.name
	return op, nil
}

func newTestPipeline(t *testing.T, sources []interfaces.Source) (*Pipeline, *watchlist.Manager) {
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

	deduper := dedup.New(
		dedup.NewMemoryIndex(4),
		dedup.NewMemoryIndex(4),
		dedup.DefaultConfig(),
	)
	t.Cleanup(func() { deduper.Close() })

	cfg := Config{
		Bucket:        30 * time.Minute,
		SourceTimeout: time.Second,
		Weights:       map[string]float64{"lexicon": 0.25, "llm": 0.25},
	}
	gate := NewThresholdGate(0.5, 0.3)

	return New(cfg, deduper, sources, gate, manager), manager
}

func newsItem(ticker, title, sourceID string) types.Item {
	return types.Item{
		Ticker:    ticker,
		Title:     title,
		Timestamp: time.Now().UTC(),
		SourceID:  sourceID,
		Source:    "test-wire",
	}
}

func TestProcessPromotesQualifyingItem(t *testing.T) {
	p, m := newTestPipeline(t, []interfaces.Source{
		&fixedSource{name: "lexicon", op: types.Opinion{Score: 0.8, Confidence: 0.9}},
		&fixedSource{name: "llm", op: types.Opinion{Score: 0.9, Confidence: 0.8}},
	})
	ctx := context.Background()

	out, err := p.Process(ctx, newsItem("AAPL", "Apple beats estimates", "pr-1"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Status != StatusPromoted {
		t.Fatalf("status = %s, want PROMOTED (%s)", out.Status, out.GateReason)
	}
	if out.Entry == nil || out.Entry.State != types.StateHot {
		t.Error("promoted item should yield a HOT entry")
	}
	if out.Signature == "" {
		t.Error("outcome should carry the content signature")
	}

	entry, err := m.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil || entry.State != types.StateHot {
		t.Error("watchlist should hold the promoted ticker in HOT")
	}
}

func TestProcessSuppressesDuplicate(t *testing.T) {
	p, m := newTestPipeline(t, []interfaces.Source{
		&fixedSource{name: "lexicon", op: types.Opinion{Score: 0.8, Confidence: 0.9}},
	})
	ctx := context.Background()

	item := newsItem("AAPL", "Apple beats estimates", "pr-1")

	first, err := p.Process(ctx, item)
	if err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	if first.Status != StatusPromoted {
		t.Fatalf("first status = %s, want PROMOTED", first.Status)
	}

	second, err := p.Process(ctx, item)
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}
	if second.Status != StatusDuplicate {
		t.Errorf("second status = %s, want DUPLICATE", second.Status)
	}

	entry, _ := m.Get(ctx, "AAPL")
	if entry.PromotedCount != 0 {
		t.Errorf("duplicate must not re-promote, promoted_count = %d", entry.PromotedCount)
	}
}

func TestProcessSuppressesRepublication(t *testing.T) {
	p, _ := newTestPipeline(t, []interfaces.Source{
		&fixedSource{name: "lexicon", op: types.Opinion{Score: 0.8, Confidence: 0.9}},
	})
	ctx := context.Background()

	// Same headline, different wire identity, minutes apart: the temporal
	// index catches what the content index cannot. The timestamps sit
	// mid-bucket so both land in the same 30-minute window.
	at := time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)
	a := newsItem("AAPL", "Apple beats estimates", "reuters-1")
	a.Timestamp = at
	b := newsItem("AAPL", "Apple Beats Estimates!", "bloomberg-7")
	b.Timestamp = at.Add(2 * time.Minute)

	if out, err := p.Process(ctx, a); err != nil || out.Status != StatusPromoted {
		t.Fatalf("first item: status=%v err=%v", out.Status, err)
	}

	out, err := p.Process(ctx, b)
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}
	if out.Status != StatusDuplicate {
		t.Errorf("republished headline status = %s, want DUPLICATE", out.Status)
	}
}

func TestProcessBelowGate(t *testing.T) {
	p, m := newTestPipeline(t, []interfaces.Source{
		&fixedSource{name: "lexicon", op: types.Opinion{Score: 0.1, Confidence: 0.9}},
	})
	ctx := context.Background()

	out, err := p.Process(ctx, newsItem("AAPL", "Apple schedules event", "pr-2"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Status != StatusBelowGate {
		t.Errorf("status = %s, want BELOW_GATE", out.Status)
	}
	if out.GateReason == "" {
		t.Error("below-gate outcome should say why")
	}

	entry, _ := m.Get(ctx, "AAPL")
	if entry != nil {
		t.Error("below-gate item must not touch the watchlist")
	}
}

func TestProcessToleratesBrokenSource(t *testing.T) {
	p, _ := newTestPipeline(t, []interfaces.Source{
		&fixedSource{name: "lexicon", op: types.Opinion{Score: 0.9, Confidence: 0.9}},
		&fixedSource{name: "llm", err: errors.New("provider down")},
	})
	ctx := context.Background()

	out, err := p.Process(ctx, newsItem("AAPL", "Apple beats estimates", "pr-3"))
	if err != nil {
		t.Fatalf("a broken source must not fail the item: %v", err)
	}
	if out.Status != StatusPromoted {
		t.Errorf("status = %s, want PROMOTED from the surviving source", out.Status)
	}
}

func TestProcessRejectsInvalidItem(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	if _, err := p.Process(context.Background(), newsItem("", "no ticker", "x")); err == nil {
		t.Error("expected error for missing ticker")
	}
	if _, err := p.Process(context.Background(), newsItem("AAPL", "", "x")); err == nil {
		t.Error("expected error for missing title")
	}
}
