package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string   `yaml:"mode"`
	PollSeconds int      `yaml:"poll_seconds"`
	Universe    []string `yaml:"universe"`

	Dedup struct {
		ContentTTLHours    int `yaml:"content_ttl_hours"`
		TemporalTTLMinutes int `yaml:"temporal_ttl_minutes"`
		BucketMinutes      int `yaml:"bucket_minutes"`
		Shards             int `yaml:"shards"`
	} `yaml:"dedup"`

	Sentiment struct {
		Threshold            float64            `yaml:"threshold"`
		MinConfidence        float64            `yaml:"min_confidence"`
		SourceTimeoutSeconds int                `yaml:"source_timeout_seconds"`
		Weights              map[string]float64 `yaml:"weights"`
	} `yaml:"sentiment"`

	LLM struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
		MaxInFlight int     `yaml:"max_in_flight"`
		MaxRetries  int     `yaml:"max_retries"`
		BackoffMs   int     `yaml:"backoff_ms"`
	} `yaml:"llm"`

	Watchlist struct {
		DBPath string `yaml:"db_path"`
		States struct {
			Hot  StateRule `yaml:"hot"`
			Warm StateRule `yaml:"warm"`
			Cool StateRule `yaml:"cool"`
		} `yaml:"states"`
		CoolAutoRemove bool `yaml:"cool_auto_remove"`
	} `yaml:"watchlist"`

	Snapshots struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"snapshots"`

	Scheduler struct {
		Workers             int `yaml:"workers"`
		FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
	} `yaml:"scheduler"`
}

// StateRule drives the watchlist state table: how often a state is
// re-checked and how long without a re-trigger before it decays.
type StateRule struct {
	CheckSeconds int `yaml:"check_seconds"`
	DecayMinutes int `yaml:"decay_minutes"`
}

func (r StateRule) CheckInterval() time.Duration {
	return time.Duration(r.CheckSeconds) * time.Second
}

func (r StateRule) DecayAfter() time.Duration {
	return time.Duration(r.DecayMinutes) * time.Minute
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if len(c.Universe) == 0 {
		return errors.New("universe cannot be empty")
	}
	if c.Dedup.ContentTTLHours <= 0 || c.Dedup.TemporalTTLMinutes <= 0 {
		return errors.New("dedup TTLs must be positive")
	}
	if c.Dedup.BucketMinutes <= 0 {
		return errors.New("dedup.bucket_minutes must be positive")
	}
	if c.Sentiment.Threshold < -1 || c.Sentiment.Threshold > 1 {
		return fmt.Errorf("sentiment.threshold must be in [-1,1], got %.2f", c.Sentiment.Threshold)
	}
	if len(c.Sentiment.Weights) == 0 {
		return errors.New("sentiment.weights cannot be empty")
	}
	for name, w := range c.Sentiment.Weights {
		if w < 0 {
			return fmt.Errorf("sentiment.weights[%s] must be non-negative, got %.3f", name, w)
		}
	}
	hot, warm, cool := c.Watchlist.States.Hot, c.Watchlist.States.Warm, c.Watchlist.States.Cool
	if hot.CheckSeconds <= 0 || warm.CheckSeconds <= 0 || cool.CheckSeconds <= 0 {
		return errors.New("watchlist check intervals must be positive")
	}
	if !(hot.CheckSeconds < warm.CheckSeconds && warm.CheckSeconds < cool.CheckSeconds) {
		return errors.New("watchlist check intervals must increase with decay tier")
	}
	if !(hot.DecayMinutes < warm.DecayMinutes && warm.DecayMinutes < cool.DecayMinutes) {
		return errors.New("watchlist decay windows must increase with decay tier")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.PollSeconds == 0 {
		c.PollSeconds = 30
	}
	if c.Dedup.ContentTTLHours == 0 {
		c.Dedup.ContentTTLHours = 72
	}
	if c.Dedup.TemporalTTLMinutes == 0 {
		c.Dedup.TemporalTTLMinutes = 120
	}
	if c.Dedup.BucketMinutes == 0 {
		c.Dedup.BucketMinutes = 30
	}
	if c.Dedup.Shards == 0 {
		c.Dedup.Shards = 16
	}
	if c.Sentiment.SourceTimeoutSeconds == 0 {
		c.Sentiment.SourceTimeoutSeconds = 20
	}
	if c.LLM.MaxInFlight == 0 {
		c.LLM.MaxInFlight = 2
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}
	if c.LLM.BackoffMs == 0 {
		c.LLM.BackoffMs = 500
	}
	if c.Watchlist.DBPath == "" {
		c.Watchlist.DBPath = "radar.db"
	}
	if c.Watchlist.States.Hot.CheckSeconds == 0 {
		c.Watchlist.States.Hot = StateRule{CheckSeconds: 60, DecayMinutes: 240}
	}
	if c.Watchlist.States.Warm.CheckSeconds == 0 {
		c.Watchlist.States.Warm = StateRule{CheckSeconds: 300, DecayMinutes: 1440}
	}
	if c.Watchlist.States.Cool.CheckSeconds == 0 {
		c.Watchlist.States.Cool = StateRule{CheckSeconds: 3600, DecayMinutes: 4320}
	}
	if c.Snapshots.RetentionDays == 0 {
		c.Snapshots.RetentionDays = 30
	}
	if c.Scheduler.Workers == 0 {
		c.Scheduler.Workers = 8
	}
	if c.Scheduler.FetchTimeoutSeconds == 0 {
		c.Scheduler.FetchTimeoutSeconds = 10
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
