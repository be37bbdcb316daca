// Package snapshot persists the append-only performance history of tracked
// tickers. Rows are never updated; pruning old rows is the only delete path.
package snapshot

import (
	"context"
	"time"

	"gorm.io/gorm"

	"news-radar/internal/logger"
	"news-radar/internal/types"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Record appends one observation.
func (s *Store) Record(ctx context.Context, snap types.PerformanceSnapshot) error {
	return s.RecordTx(s.db.WithContext(ctx), snap)
}

// RecordTx appends within a caller-held transaction, so a snapshot and the
// watchlist fields derived from it land atomically.
func (s *Store) RecordTx(tx *gorm.DB, snap types.PerformanceSnapshot) error {
	return tx.Create(&snap).Error
}

// Latest returns the most recent snapshot for a ticker, or nil if none exist.
func (s *Store) Latest(ctx context.Context, ticker string) (*types.PerformanceSnapshot, error) {
	var snap types.PerformanceSnapshot
	err := s.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("snapshot_at DESC").
		First(&snap).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// History returns snapshots for a ticker since the given time, newest first,
// capped at limit (0 means no cap).
func (s *Store) History(ctx context.Context, ticker string, since time.Time, limit int) ([]types.PerformanceSnapshot, error) {
	q := s.db.WithContext(ctx).
		Where("ticker = ? AND snapshot_at >= ?", ticker, since).
		Order("snapshot_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var snaps []types.PerformanceSnapshot
	if err := q.Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}

// Prune deletes snapshots older than the cutoff and returns how many rows
// went. Watchlist counters are untouched: snapshot_count means "observations
// ever recorded", not "rows currently retained".
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("snapshot_at < ?", olderThan).
		Delete(&types.PerformanceSnapshot{})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		logger.Info(ctx, "Pruned old snapshots",
			"deleted", res.RowsAffected,
			"older_than", olderThan.Format(time.RFC3339),
		)
	}
	return res.RowsAffected, nil
}
