// Package alertlog keeps a daily JSONL record of every promotion the gate
// lets through, independent of the database, so alert history survives
// database resets and is easy to grep.
package alertlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var mu sync.Mutex

// Entry is one promoted alert.
type Entry struct {
	Time       string             `json:"time"`
	Ticker     string             `json:"ticker"`
	EventID    string             `json:"event_id"`
	Title      string             `json:"title"`
	Reason     string             `json:"reason"`
	Value      float64            `json:"value"`
	Confidence float64            `json:"confidence"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"`
}

func logDir() string {
	if v := os.Getenv("RADAR_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".jsonl")
}

// Append writes one alert to today's file.
func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	e.Time = now.Format(time.RFC3339)

	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips daily files older than retentionDays and removes the
// originals. A zero or negative retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			return os.Remove(p)
		}

		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()

		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 != nil {
			_ = gw.Close()
			_ = out.Close()
			return nil
		}
		if err := gw.Close(); err != nil {
			_ = out.Close()
			return nil
		}
		if err := out.Close(); err != nil {
			return nil
		}
		return os.Remove(p)
	})
}
