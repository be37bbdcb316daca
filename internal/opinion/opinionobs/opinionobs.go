package opinionobs

import (
	"context"

	"news-radar/internal/interfaces"
	"news-radar/internal/logger"
	"news-radar/internal/trace"
	"news-radar/internal/types"
)

// observableSource wraps a Source with observability (logging & tracing)
type observableSource struct {
	source interfaces.Source
}

// Compile-time interface check
var _ interfaces.Source = (*observableSource)(nil)

// Wrap wraps an opinion source with observability middleware
func Wrap(source interfaces.Source) interfaces.Source {
	return &observableSource{
		source: source,
	}
}

func (os *observableSource) Name() string { return os.source.Name() }

// Score scores an item with observability
func (os *observableSource) Score(ctx context.Context, item types.Item) (types.Opinion, error) {
	ctx, span := trace.StartSpan(ctx, "opinion.Score")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting opinion",
		"source", os.source.Name(),
		"ticker", item.Ticker,
		"title", item.Title,
	)

	op, err := os.source.Score(ctx, item)
	if err != nil {
		// Use ErrorWithErrSkip(1) to report the actual caller
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get opinion", err,
			"source", os.source.Name(),
			"ticker", item.Ticker,
		)
		return types.Opinion{}, err
	}

	// Log opinion result - use InfoSkip(1) to report the actual caller
	logger.InfoSkip(ctx, 1, "Opinion received",
		"source", op.Source,
		"ticker", item.Ticker,
		"score", op.Score,
		"confidence", op.Confidence,
	)

	return op, nil
}
