package sentiment

import (
	"context"
	"sync"
	"time"

	"news-radar/internal/interfaces"
	"news-radar/internal/logger"
	"news-radar/internal/trace"
	"news-radar/internal/types"
)

// Collect fans out to every source concurrently and returns the opinions
// that arrived in time. Each source gets its own timeout, so total latency
// is bounded by the configured timeout and not by the slowest source's
// actual response. A failed or timed-out source is simply absent from the
// result; absence degrades confidence rather than failing the item.
func Collect(ctx context.Context, item types.Item, sources []interfaces.Source, timeout time.Duration) map[string]*types.Opinion {
	ctx, span := trace.StartSpan(ctx, "sentiment.collect")
	defer span.End()

	var mu sync.Mutex
	var wg sync.WaitGroup
	opinions := make(map[string]*types.Opinion, len(sources))

	for _, src := range sources {
		wg.Add(1)
		go func(src interfaces.Source) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			op, err := src.Score(callCtx, item)
			if err != nil {
				logger.Warn(ctx, "Opinion source unavailable for item",
					"source", src.Name(), "ticker", item.Ticker, "error", err)
				return
			}

			mu.Lock()
			opinions[src.Name()] = &op
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return opinions
}
