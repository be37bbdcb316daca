// Package watchlist tracks which tickers the radar is paying attention to
// and at what intensity. Entries move HOT -> WARM -> COOL as time passes
// without a re-trigger; a qualifying item snaps any entry back to HOT.
package watchlist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"news-radar/internal/logger"
	"news-radar/internal/snapshot"
	"news-radar/internal/types"
)

// ErrNotTracked is returned when an operation targets a ticker with no
// active watchlist entry.
var ErrNotTracked = errors.New("ticker not tracked")

type Manager struct {
	db    *gorm.DB
	rules Rules
	snaps *snapshot.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(db *gorm.DB, rules Rules, snaps *snapshot.Store) *Manager {
	return &Manager{
		db:    db,
		rules: rules,
		snaps: snaps,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockTicker serializes all writes for one ticker. The scheduler and the
// intake pipeline can both touch the same entry at once; per-ticker locks
// keep check-and-update sequences atomic without a global writer lock.
func (m *Manager) lockTicker(ticker string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[ticker]
	if !ok {
		l = &sync.Mutex{}
		m.locks[ticker] = l
	}
	return l
}

// AddOrPromote ensures the ticker is tracked in HOT. A new ticker gets a
// fresh entry; an existing one (any state, including soft-removed) snaps
// back to HOT with its history intact and promoted_count incremented.
func (m *Manager) AddOrPromote(ctx context.Context, ticker string, trig types.TriggerContext) (*types.WatchlistEntry, error) {
	l := m.lockTicker(ticker)
	l.Lock()
	defer l.Unlock()

	now := time.Now().UTC()
	var entry types.WatchlistEntry

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("ticker = ?", ticker).First(&entry).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}

		fresh := err == gorm.ErrRecordNotFound
		if fresh {
			entry = types.WatchlistEntry{Ticker: ticker}
		} else {
			entry.PromotedCount++
		}

		entry.State = types.StateHot
		entry.TriggerReason = trig.Reason
		entry.TriggerEventID = uuid.NewString()
		entry.TriggerAt = now
		entry.StateChangedAt = now
		entry.NextCheckAt = now.Add(m.rules.Check[types.StateHot])
		entry.MonitoringEnabled = true
		entry.RemovedAt = nil
		// Re-anchor the change baseline at the next check.
		entry.BaselinePrice = 0
		entry.PriceChangePct = 0

		return tx.Save(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Watchlist promotion",
		"ticker", ticker,
		"reason", trig.Reason,
		"event_id", entry.TriggerEventID,
		"score", trig.Score.Value,
		"confidence", trig.Score.Confidence,
		"promoted_count", entry.PromotedCount,
	)
	return &entry, nil
}

// Remove soft-deletes a ticker: the row stays for history, scheduling stops.
// Removing an untracked or already-removed ticker is a no-op.
func (m *Manager) Remove(ctx context.Context, ticker, reason string) error {
	l := m.lockTicker(ticker)
	l.Lock()
	defer l.Unlock()

	now := time.Now().UTC()

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry types.WatchlistEntry
		err := tx.Where("ticker = ?", ticker).First(&entry).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if entry.State == types.StateRemoved {
			return nil
		}

		entry.State = types.StateRemoved
		entry.StateChangedAt = now
		entry.RemovedAt = &now
		entry.MonitoringEnabled = false
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		logger.Info(ctx, "Watchlist removal", "ticker", ticker, "reason", reason)
		return nil
	})
}

// Get returns the entry for a ticker, or nil if it was never tracked.
func (m *Manager) Get(ctx context.Context, ticker string) (*types.WatchlistEntry, error) {
	var entry types.WatchlistEntry
	err := m.db.WithContext(ctx).Where("ticker = ?", ticker).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByState lists entries in one state, most recently changed first.
func (m *Manager) GetByState(ctx context.Context, state types.State) ([]types.WatchlistEntry, error) {
	var entries []types.WatchlistEntry
	err := m.db.WithContext(ctx).
		Where("state = ?", state).
		Order("state_changed_at DESC").
		Find(&entries).Error
	return entries, err
}

// DueEntries returns active entries whose next check is at or before now,
// most overdue first, capped at limit (0 means no cap).
func (m *Manager) DueEntries(ctx context.Context, now time.Time, limit int) ([]types.WatchlistEntry, error) {
	q := m.db.WithContext(ctx).
		Where("monitoring_enabled = ? AND state != ? AND next_check_at <= ?",
			true, types.StateRemoved, now).
		Order("next_check_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []types.WatchlistEntry
	err := q.Find(&entries).Error
	return entries, err
}

// Reschedule overrides when an entry is next checked. Passing a past time
// forces a check on the scheduler's next cycle.
func (m *Manager) Reschedule(ctx context.Context, ticker string, at time.Time) error {
	l := m.lockTicker(ticker)
	l.Lock()
	defer l.Unlock()

	res := m.db.WithContext(ctx).
		Model(&types.WatchlistEntry{}).
		Where("ticker = ? AND state != ?", ticker, types.StateRemoved).
		Update("next_check_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotTracked
	}
	return nil
}

// RecordCheck stores one market observation for a tracked ticker: the
// snapshot row, the entry's denormalized latest fields, any decay the entry
// is due, and the next check time all land in a single transaction.
func (m *Manager) RecordCheck(ctx context.Context, ticker string, metrics types.MarketMetrics) error {
	l := m.lockTicker(ticker)
	l.Lock()
	defer l.Unlock()

	now := time.Now().UTC()
	snapAt := metrics.Timestamp
	if snapAt.IsZero() {
		snapAt = now
	}

	var from, to types.State

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry types.WatchlistEntry
		err := tx.Where("ticker = ?", ticker).First(&entry).Error
		if err == gorm.ErrRecordNotFound {
			return ErrNotTracked
		}
		if err != nil {
			return err
		}
		if entry.State == types.StateRemoved {
			return ErrNotTracked
		}

		if entry.BaselinePrice == 0 {
			entry.BaselinePrice = metrics.Price
		}
		changePct := 0.0
		if entry.BaselinePrice != 0 {
			changePct = (metrics.Price - entry.BaselinePrice) / entry.BaselinePrice * 100
		}

		if err := m.snaps.RecordTx(tx, types.PerformanceSnapshot{
			Ticker:     ticker,
			SnapshotAt: snapAt,
			Price:      metrics.Price,
			Volume:     metrics.Volume,
			ChangePct:  changePct,
		}); err != nil {
			return err
		}

		entry.LastCheckAt = &now
		entry.LatestPrice = metrics.Price
		entry.PriceChangePct = changePct
		entry.SnapshotCount++

		from = entry.State
		entry.State, entry.StateChangedAt = m.rules.applyDecay(entry.State, entry.StateChangedAt, now)
		to = entry.State

		if entry.State == types.StateRemoved {
			entry.RemovedAt = &now
			entry.MonitoringEnabled = false
		} else {
			entry.NextCheckAt = now.Add(m.rules.Check[entry.State])
		}

		return tx.Save(&entry).Error
	})
	if err != nil {
		return err
	}

	if from != to {
		logger.Info(ctx, "Watchlist decay",
			"ticker", ticker,
			"from", string(from),
			"to", string(to),
		)
	}
	return nil
}

// RecordCheckFailure reschedules an entry after a failed metrics fetch.
// Decay still applies; the retry comes on the hottest cadence so a feed
// outage doesn't stall a slow-cadence entry for a full interval.
func (m *Manager) RecordCheckFailure(ctx context.Context, ticker string, cause error) error {
	l := m.lockTicker(ticker)
	l.Lock()
	defer l.Unlock()

	now := time.Now().UTC()

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry types.WatchlistEntry
		err := tx.Where("ticker = ?", ticker).First(&entry).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if entry.State == types.StateRemoved {
			return nil
		}

		entry.State, entry.StateChangedAt = m.rules.applyDecay(entry.State, entry.StateChangedAt, now)
		if entry.State == types.StateRemoved {
			entry.RemovedAt = &now
			entry.MonitoringEnabled = false
		} else {
			entry.NextCheckAt = now.Add(m.rules.Check[types.StateHot])
		}

		return tx.Save(&entry).Error
	})
	if err != nil {
		return err
	}

	logger.Degraded(ctx, "watchlist.check", cause, "ticker", ticker)
	return nil
}
