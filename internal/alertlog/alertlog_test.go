package alertlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RADAR_LOG_DIR", dir)

	entries := []Entry{
		{Ticker: "AAPL", EventID: "ev-1", Title: "Apple beats", Value: 0.7, Confidence: 0.8},
		{Ticker: "MSFT", EventID: "ev-2", Title: "Microsoft wins", Value: 0.6, Confidence: 0.9},
	}
	for _, e := range entries {
		if err := Append(e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	p := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	f, err := os.Open(p)
	if err != nil {
		t.Fatalf("daily file missing: %v", err)
	}
	defer f.Close()

	var got []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad JSONL line: %v", err)
		}
		got = append(got, e)
	}

	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}
	if got[0].Ticker != "AAPL" || got[1].Ticker != "MSFT" {
		t.Errorf("entries out of order: %+v", got)
	}
	if got[0].Time == "" {
		t.Error("entries should be timestamped on append")
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RADAR_LOG_DIR", dir)

	old := filepath.Join(dir, "2020-01-01.jsonl")
	if err := os.WriteFile(old, []byte(`{"ticker":"AAPL"}`+"\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	stale := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}

	recent := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	if err := os.WriteFile(recent, []byte(`{"ticker":"MSFT"}`+"\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("CompressOlder failed: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old file should be removed after compression")
	}
	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Error("old file should be gzipped")
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("recent file must be left alone")
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RADAR_LOG_DIR", dir)

	if err := CompressOlder(0); err != nil {
		t.Fatalf("disabled retention should be a no-op, got: %v", err)
	}
}
