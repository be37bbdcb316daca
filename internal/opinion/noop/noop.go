// Package noop provides a neutral opinion source for paper mode and tests.
package noop

import (
	"context"

	"news-radar/internal/types"
)

type NoopSource struct{}

func NewNoopSource() *NoopSource { return &NoopSource{} }

func (s *NoopSource) Name() string { return "llm" }

func (s *NoopSource) Score(_ context.Context, _ types.Item) (types.Opinion, error) {
	return types.Opinion{
		Source:     s.Name(),
		Score:      0,
		Confidence: 0.1,
		Reasoning:  "noop source, no model configured",
	}, nil
}
