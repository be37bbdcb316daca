package pipeline

import (
	"context"
	"fmt"

	"news-radar/internal/interfaces"
	"news-radar/internal/types"
)

// ThresholdGate qualifies items whose composite sentiment clears both the
// score threshold and the confidence floor. Everything below falls through
// silently; the gate decides, it never acts.
type ThresholdGate struct {
	Threshold     float64
	MinConfidence float64
}

var _ interfaces.Gate = (*ThresholdGate)(nil)

func NewThresholdGate(threshold, minConfidence float64) *ThresholdGate {
	return &ThresholdGate{Threshold: threshold, MinConfidence: minConfidence}
}

func (g *ThresholdGate) Qualify(_ context.Context, item types.Item, score types.CompositeScore) (bool, string) {
	if score.Confidence < g.MinConfidence {
		return false, fmt.Sprintf("confidence %.3f below floor %.3f", score.Confidence, g.MinConfidence)
	}
	if score.Value < g.Threshold {
		return false, fmt.Sprintf("sentiment %.3f below threshold %.3f", score.Value, g.Threshold)
	}
	return true, fmt.Sprintf("sentiment %.3f >= %.3f (confidence %.3f)", score.Value, g.Threshold, score.Confidence)
}
