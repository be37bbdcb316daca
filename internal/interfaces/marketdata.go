package interfaces

import (
	"context"

	"news-radar/internal/types"
)

// MetricsFetcher supplies live market metrics for scheduled re-checks.
type MetricsFetcher interface {
	Fetch(ctx context.Context, ticker string) (types.MarketMetrics, error)
}
