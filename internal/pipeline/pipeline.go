// Package pipeline runs the intake path for one news item: fingerprint,
// dedup, sentiment, gate, watchlist. Degraded stages log and fall through;
// only an invalid item or a storage failure surfaces as an error.
package pipeline

import (
	"context"
	"time"

	"news-radar/internal/dedup"
	"news-radar/internal/interfaces"
	"news-radar/internal/logger"
	"news-radar/internal/sentiment"
	"news-radar/internal/signature"
	"news-radar/internal/trace"
	"news-radar/internal/types"
	"news-radar/internal/watchlist"
)

// Status says where an item's journey through the pipeline ended.
type Status int

const (
	StatusDuplicate Status = iota // suppressed by dedup
	StatusBelowGate               // scored but did not qualify
	StatusPromoted                // qualified, watchlist updated
)

func (s Status) String() string {
	switch s {
	case StatusDuplicate:
		return "DUPLICATE"
	case StatusBelowGate:
		return "BELOW_GATE"
	case StatusPromoted:
		return "PROMOTED"
	default:
		return "UNKNOWN"
	}
}

// Outcome reports what the pipeline did with one item.
type Outcome struct {
	Status     Status
	Signature  string
	Score      types.CompositeScore
	GateReason string
	Entry      *types.WatchlistEntry // set when Status is StatusPromoted
}

// Config holds the per-item knobs the pipeline needs.
type Config struct {
	Bucket        time.Duration // temporal dedup bucket width
	SourceTimeout time.Duration // per-opinion-source deadline
	Weights       map[string]float64
}

type Pipeline struct {
	cfg     Config
	deduper *dedup.Deduper
	sources []interfaces.Source
	gate    interfaces.Gate
	watch   *watchlist.Manager
}

func New(cfg Config, deduper *dedup.Deduper, sources []interfaces.Source, gate interfaces.Gate, watch *watchlist.Manager) *Pipeline {
	if cfg.Bucket <= 0 {
		cfg.Bucket = 30 * time.Minute
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 20 * time.Second
	}
	return &Pipeline{
		cfg:     cfg,
		deduper: deduper,
		sources: sources,
		gate:    gate,
		watch:   watch,
	}
}

// Process takes one item through the full intake path.
func (p *Pipeline) Process(ctx context.Context, item types.Item) (Outcome, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Process")
	defer span.End()

	contentSig, err := signature.Content(item.Ticker, item.Title, item.SourceID, item.Extra)
	if err != nil {
		return Outcome{}, err
	}

	ts := item.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	temporalSig, err := signature.TemporalKey(item.Ticker, item.Title, ts, p.cfg.Bucket)
	if err != nil {
		return Outcome{}, err
	}

	if p.deduper.CheckAndMark(ctx, contentSig, temporalSig) == dedup.ResultDuplicate {
		logger.Dedup(ctx, item.Ticker, contentSig, "content|temporal", "title", item.Title)
		return Outcome{Status: StatusDuplicate, Signature: contentSig}, nil
	}

	opinions := sentiment.Collect(ctx, item, p.sources, p.cfg.SourceTimeout)
	score := sentiment.Aggregate(opinions, p.cfg.Weights)

	logger.Debug(ctx, "Item scored",
		"ticker", item.Ticker,
		"signature", contentSig,
		"value", score.Value,
		"confidence", score.Confidence,
		"breakdown", sentiment.FormatBreakdown(score),
	)

	ok, reason := p.gate.Qualify(ctx, item, score)
	if !ok {
		return Outcome{Status: StatusBelowGate, Signature: contentSig, Score: score, GateReason: reason}, nil
	}

	entry, err := p.watch.AddOrPromote(ctx, item.Ticker, types.TriggerContext{
		Reason:    reason,
		Score:     score,
		ItemTitle: item.Title,
	})
	if err != nil {
		return Outcome{}, err
	}

	logger.Alert(ctx, item.Ticker, score.Value, score.Confidence, reason,
		"signature", contentSig,
		"event_id", entry.TriggerEventID,
	)

	return Outcome{
		Status:     StatusPromoted,
		Signature:  contentSig,
		Score:      score,
		GateReason: reason,
		Entry:      entry,
	}, nil
}
