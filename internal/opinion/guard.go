package opinion

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"news-radar/internal/interfaces"
	"news-radar/internal/logger"
	"news-radar/internal/types"
)

// Guard wraps an expensive, rate-limited source (the LLM providers) with
// bounded concurrency, bounded retries with exponential backoff, and a
// circuit breaker. When the breaker is open or retries are exhausted, the
// configured fallback source answers instead so overload never cascades
// into the aggregator.
type Guard struct {
	primary  interfaces.Source
	fallback interfaces.Source
	sem      chan struct{}
	retries  int
	backoff  time.Duration
	breaker  *gobreaker.CircuitBreaker
}

// GuardConfig bounds the guarded source.
type GuardConfig struct {
	MaxInFlight int
	MaxRetries  int
	Backoff     time.Duration
}

// NewGuard wraps primary; fallback may be nil.
func NewGuard(primary, fallback interfaces.Source, cfg GuardConfig) *Guard {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 2
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}

	st := gobreaker.Settings{Name: primary.Name()}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}

	return &Guard{
		primary:  primary,
		fallback: fallback,
		sem:      make(chan struct{}, cfg.MaxInFlight),
		retries:  cfg.MaxRetries,
		backoff:  cfg.Backoff,
		breaker:  gobreaker.NewCircuitBreaker(st),
	}
}

func (g *Guard) Name() string { return g.primary.Name() }

func (g *Guard) Score(ctx context.Context, item types.Item) (types.Opinion, error) {
	select {
	case g.sem <- struct{}{}:
		defer func() { <-g.sem }()
	case <-ctx.Done():
		return types.Opinion{}, ctx.Err()
	}

	op, err := g.scoreWithRetry(ctx, item)
	if err == nil {
		return op, nil
	}

	if g.fallback == nil {
		return types.Opinion{}, err
	}

	logger.Degraded(ctx, "opinion."+g.primary.Name(), err,
		"ticker", item.Ticker, "fallback", g.fallback.Name())

	op, ferr := g.fallback.Score(ctx, item)
	if ferr != nil {
		return types.Opinion{}, err
	}
	// Keep the guarded source's slot in the breakdown; the answer just came
	// from a cheaper place this time.
	op.Source = g.primary.Name()
	return op, nil
}

func (g *Guard) scoreWithRetry(ctx context.Context, item types.Item) (types.Opinion, error) {
	var lastErr error
	wait := g.backoff

	for attempt := 0; attempt < g.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
				wait *= 2
			case <-ctx.Done():
				return types.Opinion{}, ctx.Err()
			}
		}

		res, err := g.breaker.Execute(func() (any, error) {
			return g.primary.Score(ctx, item)
		})
		if err == nil {
			return res.(types.Opinion), nil
		}
		lastErr = err

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			break
		}
		if !IsTransient(err) {
			break
		}
		if ctx.Err() != nil {
			return types.Opinion{}, ctx.Err()
		}
	}

	return types.Opinion{}, lastErr
}
