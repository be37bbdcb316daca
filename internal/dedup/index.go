// Package dedup suppresses duplicate and near-duplicate republications.
//
// Two TTL-scoped indices back the check: a long-lived index keyed by content
// signature (same story, same source identity) and a short-lived index keyed
// by temporal-bucket signature (same story republished across sources within
// one bucket). An item is a duplicate if either index already holds its key.
package dedup

import (
	"context"
	"time"
)

// Index is an atomic insert-if-absent set with per-key TTL. The atomicity of
// InsertIfAbsent is what makes the at-most-once guarantee structural: two
// concurrent callers with the same key cannot both observe an insert.
type Index interface {
	// InsertIfAbsent inserts key with the given TTL and reports whether the
	// key was absent (true = inserted now, false = already present).
	InsertIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}
