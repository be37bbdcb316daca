package signature

import (
	"testing"
	"time"
)

func TestContentDeterministic(t *testing.T) {
	extra := map[string]string{"form": "8-K", "cik": "0000320193"}

	a, err := Content("AAPL", "Apple announces record quarter", "acc-123", extra)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Content("AAPL", "Apple announces record quarter", "acc-123", extra)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Errorf("identical inputs produced different signatures: %s vs %s", a, b)
	}
	if len(a) != HexLen {
		t.Errorf("expected %d hex chars, got %d", HexLen, len(a))
	}
}

func TestContentExtraFieldOrderIndependent(t *testing.T) {
	// Maps iterate in random order; build two with reversed insertion order
	// to make sure canonicalization handles it.
	e1 := map[string]string{}
	e1["a"] = "1"
	e1["b"] = "2"
	e1["c"] = "3"

	e2 := map[string]string{}
	e2["c"] = "3"
	e2["b"] = "2"
	e2["a"] = "1"

	s1, _ := Content("TSLA", "Tesla recalls vehicles", "id-9", e1)
	s2, _ := Content("TSLA", "Tesla recalls vehicles", "id-9", e2)

	if s1 != s2 {
		t.Errorf("extra field order changed signature: %s vs %s", s1, s2)
	}
}

func TestContentNormalization(t *testing.T) {
	s1, _ := Content("MSFT", "Microsoft Beats  Estimates!", "x", nil)
	s2, _ := Content("msft", "microsoft beats estimates", "x", nil)

	if s1 != s2 {
		t.Errorf("cosmetic differences should not change signature: %s vs %s", s1, s2)
	}
}

func TestContentDifferentIdentity(t *testing.T) {
	s1, _ := Content("MSFT", "Microsoft beats estimates", "article-1", nil)
	s2, _ := Content("MSFT", "Microsoft beats estimates", "article-2", nil)

	if s1 == s2 {
		t.Error("different source identities must produce different content signatures")
	}
}

func TestContentErrors(t *testing.T) {
	if _, err := Content("", "title", "id", nil); err != ErrMissingTicker {
		t.Errorf("expected ErrMissingTicker, got %v", err)
	}
	if _, err := Content("AAPL", "  !!! ", "id", nil); err != ErrMissingTitle {
		t.Errorf("expected ErrMissingTitle, got %v", err)
	}
}

func TestTemporalBucketing(t *testing.T) {
	base := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	bucket := 1800 * time.Second

	s1, err := TemporalKey("AAPL", "Apple announces record quarter", base, bucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, _ := TemporalKey("AAPL", "Apple announces record quarter", base.Add(60*time.Second), bucket)

	if s1 != s2 {
		t.Error("items 60s apart should share a 1800s bucket")
	}

	s3, _ := TemporalKey("AAPL", "Apple announces record quarter", base.Add(1801*time.Second), bucket)
	if s1 == s3 {
		t.Error("items 1801s apart must not share a 1800s bucket")
	}
}

func TestTemporalDifferentStory(t *testing.T) {
	ts := time.Date(2026, 3, 2, 14, 5, 0, 0, time.UTC)

	s1, _ := TemporalKey("AAPL", "Apple announces record quarter", ts, 30*time.Minute)
	s2, _ := TemporalKey("AAPL", "Apple faces antitrust probe", ts, 30*time.Minute)

	if s1 == s2 {
		t.Error("different stories in the same bucket must differ")
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Apple, Inc. Beats Q4 Estimates!", "apple inc beats q4 estimates"},
		{"  spaced   out\ttitle ", "spaced out title"},
		{"ALL-CAPS: HEADLINE", "all caps headline"},
		{"", ""},
	}

	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
