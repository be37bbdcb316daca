package marketdata

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"news-radar/internal/interfaces"
	"news-radar/internal/types"
)

// SimulatedFetcher random-walks a per-ticker price so dry runs exercise the
// full check path without market data credentials.
type SimulatedFetcher struct {
	mu     sync.Mutex
	prices map[string]float64
	rng    *rand.Rand
}

var _ interfaces.MetricsFetcher = (*SimulatedFetcher)(nil)

func NewSimulatedFetcher() *SimulatedFetcher {
	return &SimulatedFetcher{
		prices: make(map[string]float64),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *SimulatedFetcher) Fetch(ctx context.Context, ticker string) (types.MarketMetrics, error) {
	if err := ctx.Err(); err != nil {
		return types.MarketMetrics{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	price, ok := f.prices[ticker]
	if !ok {
		// Seed the start price from the ticker so runs are comparable.
		h := fnv.New32a()
		h.Write([]byte(ticker))
		price = 50 + float64(h.Sum32()%450)
	}

	// Steps of up to +/-0.5%.
	price *= 1 + (f.rng.Float64()-0.5)/100
	f.prices[ticker] = price

	return types.MarketMetrics{
		Ticker:    ticker,
		Price:     price,
		Volume:    float64(1000 + f.rng.Intn(100000)),
		Timestamp: time.Now().UTC(),
	}, nil
}
