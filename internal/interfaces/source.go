package interfaces

import (
	"context"

	"news-radar/internal/types"
)

// Source is one opinion provider. Implementations must be safe for
// concurrent use and honor ctx cancellation.
type Source interface {
	Name() string
	Score(ctx context.Context, item types.Item) (types.Opinion, error)
}
