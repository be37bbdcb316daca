package types

import "time"

// Item is one incoming news/filing announcement tied to a tradable symbol.
// Items are ephemeral: nothing beyond their fingerprint outlives the pipeline.
type Item struct {
	Ticker    string            `json:"ticker"`
	Title     string            `json:"title"`
	Timestamp time.Time         `json:"timestamp"`
	SourceID  string            `json:"source_id"` // accession/article identity
	Source    string            `json:"source"`
	URL       string            `json:"url,omitempty"`
	Content   string            `json:"content,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Opinion is a single source's sentiment estimate for an item.
// Confidence is a reliability weight in [0,1], not a probability.
type Opinion struct {
	Source     string  `json:"source"`
	Score      float64 `json:"score"`      // [-1,1]
	Confidence float64 `json:"confidence"` // [0,1]
	Reasoning  string  `json:"reasoning,omitempty"`
}

// CompositeScore is the aggregator's combined output. Immutable once built.
type CompositeScore struct {
	Value      float64            `json:"value"`      // [-1,1]
	Confidence float64            `json:"confidence"` // [0,1]
	Breakdown  map[string]float64 `json:"breakdown"`
}

// State is a watchlist entry's lifecycle position.
type State string

const (
	StateHot     State = "HOT"
	StateWarm    State = "WARM"
	StateCool    State = "COOL"
	StateRemoved State = "REMOVED"
)

// WatchlistEntry is one tracked ticker. REMOVED is a soft delete: the row
// stays for history but is excluded from scheduling.
type WatchlistEntry struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	Ticker            string     `json:"ticker" gorm:"uniqueIndex"`
	State             State      `json:"state" gorm:"index"`
	TriggerReason     string     `json:"trigger_reason"`
	TriggerEventID    string     `json:"trigger_event_id"`
	TriggerAt         time.Time  `json:"trigger_at"`
	StateChangedAt    time.Time  `json:"state_changed_at"`
	NextCheckAt       time.Time  `json:"next_check_at" gorm:"index"`
	LastCheckAt       *time.Time `json:"last_check_at,omitempty"`
	BaselinePrice     float64    `json:"baseline_price"` // first observed price after (re)promotion
	LatestPrice       float64    `json:"latest_price"`
	PriceChangePct    float64    `json:"price_change_pct"`
	SnapshotCount     int64      `json:"snapshot_count"`
	PromotedCount     int64      `json:"promoted_count"`
	MonitoringEnabled bool       `json:"monitoring_enabled"`
	RemovedAt         *time.Time `json:"removed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// PerformanceSnapshot is one observation of a tracked ticker. Append-only:
// rows are never mutated after insert.
type PerformanceSnapshot struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Ticker     string    `json:"ticker" gorm:"index:idx_snap_ticker_at"`
	SnapshotAt time.Time `json:"snapshot_at" gorm:"index:idx_snap_ticker_at"`
	Price      float64   `json:"price"`
	Volume     float64   `json:"volume"`
	ChangePct  float64   `json:"change_pct"` // vs. price at trigger
}

// MarketMetrics is what the market-data supplier returns for one fetch.
type MarketMetrics struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// TriggerContext carries why a ticker was added or re-promoted.
type TriggerContext struct {
	Reason    string         `json:"reason"`
	Score     CompositeScore `json:"score"`
	ItemTitle string         `json:"item_title,omitempty"`
}
