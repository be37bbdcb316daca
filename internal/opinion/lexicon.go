package opinion

import (
	"context"
	"strings"

	"news-radar/internal/signature"
	"news-radar/internal/types"
)

// LexiconSource scores headlines against local positive/negative finance
// word lists. It is cheap, always available, and serves as the fallback when
// the LLM source is degraded.
type LexiconSource struct{}

func NewLexiconSource() *LexiconSource {
	return &LexiconSource{}
}

func (s *LexiconSource) Name() string { return "lexicon" }

var positiveTerms = map[string]bool{
	"beat": true, "beats": true, "record": true, "surge": true, "surges": true,
	"soar": true, "soars": true, "upgrade": true, "upgraded": true, "raises": true,
	"raised": true, "growth": true, "profit": true, "profitable": true, "strong": true,
	"approval": true, "approved": true, "wins": true, "win": true, "buyback": true,
	"dividend": true, "expands": true, "partnership": true, "breakthrough": true,
	"exceeds": true, "outperform": true, "rally": true, "gains": true,
}

var negativeTerms = map[string]bool{
	"miss": true, "misses": true, "missed": true, "fall": true, "falls": true,
	"plunge": true, "plunges": true, "downgrade": true, "downgraded": true,
	"cuts": true, "cut": true, "loss": true, "losses": true, "weak": true,
	"lawsuit": true, "probe": true, "investigation": true, "recall": true,
	"recalls": true, "bankruptcy": true, "layoffs": true, "warns": true,
	"warning": true, "decline": true, "declines": true, "fraud": true,
	"halts": true, "delisting": true, "underperform": true, "slump": true,
}

func (s *LexiconSource) Score(_ context.Context, item types.Item) (types.Opinion, error) {
	text := item.Title
	if item.Content != "" {
		text += " " + item.Content
	}

	var pos, neg int
	for _, word := range strings.Fields(signature.Normalize(text)) {
		if positiveTerms[word] {
			pos++
		}
		if negativeTerms[word] {
			neg++
		}
	}

	total := pos + neg
	op := types.Opinion{Source: s.Name()}
	if total == 0 {
		// No signal words at all: neutral, but with a floor confidence so a
		// genuinely bland headline still counts as an observation.
		op.Confidence = 0.2
		op.Reasoning = "no lexicon matches"
		return op, nil
	}

	op.Score = float64(pos-neg) / float64(total)

	// Confidence rises with the number of matched terms.
	switch {
	case total >= 6:
		op.Confidence = 0.8
	case total >= 3:
		op.Confidence = 0.6
	default:
		op.Confidence = 0.4
	}

	return op, nil
}
