// Package sentiment combines heterogeneous opinion sources into one
// confidence-weighted composite score.
package sentiment

import (
	"fmt"
	"sort"
	"strings"

	"news-radar/internal/types"
)

// Aggregate combines the available opinions into a composite score.
//
// Each present opinion contributes score * (base_weight * confidence); the
// overall confidence is the contributed weight as a share of the weight all
// configured sources could have contributed, so missing or low-confidence
// sources lower confidence instead of failing the call. Accumulation is a
// sum, so iteration order never changes the result.
func Aggregate(opinions map[string]*types.Opinion, weights map[string]float64) types.CompositeScore {
	var num, effSum, baseSum float64
	breakdown := make(map[string]float64)

	for name, base := range weights {
		if base < 0 {
			base = 0
		}
		baseSum += base

		op, ok := opinions[name]
		if !ok || op == nil {
			continue
		}

		score := clamp(op.Score, -1, 1)
		conf := clamp(op.Confidence, 0, 1)

		eff := base * conf
		if eff == 0 {
			continue
		}

		num += score * eff
		effSum += eff
		breakdown[name] = score
	}

	if effSum == 0 || baseSum == 0 {
		return types.CompositeScore{Breakdown: breakdown}
	}

	return types.CompositeScore{
		Value:      clamp(num/effSum, -1, 1),
		Confidence: clamp(effSum/baseSum, 0, 1),
		Breakdown:  breakdown,
	}
}

// FormatBreakdown renders a breakdown in canonical (alphabetical) source
// order for logs and tests.
func FormatBreakdown(cs types.CompositeScore) string {
	names := make([]string, 0, len(cs.Breakdown))
	for name := range cs.Breakdown {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.3f", name, cs.Breakdown[name]))
	}
	return strings.Join(parts, " ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
