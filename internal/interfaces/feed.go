package interfaces

import (
	"context"

	"news-radar/internal/types"
)

// ItemSource yields announcement items for a symbol.
type ItemSource interface {
	Fetch(ctx context.Context, ticker string, max int) ([]types.Item, error)
}
