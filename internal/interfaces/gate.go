package interfaces

import (
	"context"

	"news-radar/internal/types"
)

// Gate decides whether a scored item qualifies for watchlist tracking.
// The alerting layer behind it is external; the pipeline only needs the
// yes/no plus a reason string.
type Gate interface {
	Qualify(ctx context.Context, item types.Item, score types.CompositeScore) (bool, string)
}
