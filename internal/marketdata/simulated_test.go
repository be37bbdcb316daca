package marketdata

import (
	"context"
	"testing"
)

func TestSimulatedFetcherWalks(t *testing.T) {
	f := NewSimulatedFetcher()
	ctx := context.Background()

	first, err := f.Fetch(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if first.Price <= 0 {
		t.Errorf("price = %f, want > 0", first.Price)
	}
	if first.Ticker != "AAPL" {
		t.Errorf("ticker = %s", first.Ticker)
	}

	second, err := f.Fetch(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	// A step may be tiny but stays within half a percent.
	delta := (second.Price - first.Price) / first.Price
	if delta > 0.005 || delta < -0.005 {
		t.Errorf("step = %f, want within +/-0.5%%", delta)
	}
}

func TestSimulatedFetcherPerTickerState(t *testing.T) {
	f := NewSimulatedFetcher()
	ctx := context.Background()

	a, _ := f.Fetch(ctx, "AAPL")
	b, _ := f.Fetch(ctx, "MSFT")

	if a.Ticker == b.Ticker {
		t.Fatal("distinct tickers expected")
	}
	// Seeded start prices differ across tickers.
	if a.Price == b.Price {
		t.Error("per-ticker seeds should give distinct start prices")
	}
}

func TestSimulatedFetcherRespectsContext(t *testing.T) {
	f := NewSimulatedFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, "AAPL"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
