package dedup

import (
	"context"
	"os"
	"time"

	"news-radar/internal/logger"
)

// Result of a check-and-mark call.
type Result int

const (
	ResultNew Result = iota
	ResultDuplicate
)

func (r Result) String() string {
	if r == ResultDuplicate {
		return "DUPLICATE"
	}
	return "NEW"
}

// Deduper combines the long-TTL content index and the short-TTL temporal
// index into one check-and-mark operation.
type Deduper struct {
	content     Index
	temporal    Index
	contentTTL  time.Duration
	temporalTTL time.Duration
}

// Config holds dedup windows.
type Config struct {
	ContentTTL  time.Duration // how long an exact identity suppresses re-acceptance
	TemporalTTL time.Duration // how long a temporal bucket suppresses republications
	Shards      int
}

// DefaultConfig returns the default dedup windows.
func DefaultConfig() Config {
	return Config{
		ContentTTL:  72 * time.Hour,
		TemporalTTL: 2 * time.Hour,
		Shards:      16,
	}
}

// New creates a Deduper over the given indices.
func New(content, temporal Index, cfg Config) *Deduper {
	return &Deduper{
		content:     content,
		temporal:    temporal,
		contentTTL:  cfg.ContentTTL,
		temporalTTL: cfg.TemporalTTL,
	}
}

// NewAuto builds a Deduper from config, backed by Redis when REDIS_ADDR is
// set and by the in-memory sharded index otherwise.
func NewAuto(cfg Config) *Deduper {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return New(NewRedisIndex(addr, "dedup:content:"), NewRedisIndex(addr, "dedup:temporal:"), cfg)
	}
	return New(NewMemoryIndex(cfg.Shards), NewMemoryIndex(cfg.Shards), cfg)
}

// CheckAndMark reports whether the pair of signatures has been seen inside
// either window and marks both as seen in the same call. The insert into each
// index is atomic, so two concurrent calls with the same signatures cannot
// both observe ResultNew.
//
// Both keys are marked even when the call returns ResultDuplicate. Gating
// the inserts on the combined outcome would need a check before the insert
// and reopen the race the insert-if-absent primitive closes; the cost is
// only that a story suppressed through one window keeps the other window
// fresh as well.
//
// Backing-store failures fail open: losing one duplicate-suppression
// opportunity beats silently dropping a legitimate alert.
func (d *Deduper) CheckAndMark(ctx context.Context, contentSig, temporalSig string) Result {
	contentInserted, err := d.content.InsertIfAbsent(ctx, contentSig, d.contentTTL)
	if err != nil {
		logger.Degraded(ctx, "dedup.content", err, "signature", contentSig)
		contentInserted = true
	}

	temporalInserted, err := d.temporal.InsertIfAbsent(ctx, temporalSig, d.temporalTTL)
	if err != nil {
		logger.Degraded(ctx, "dedup.temporal", err, "signature", temporalSig)
		temporalInserted = true
	}

	if contentInserted && temporalInserted {
		return ResultNew
	}
	return ResultDuplicate
}

// Close releases both indices.
func (d *Deduper) Close() error {
	if err := d.content.Close(); err != nil {
		return err
	}
	return d.temporal.Close()
}
