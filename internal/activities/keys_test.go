package activities

import (
	"testing"
	"time"
)

func TestCategorySlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Caregiver Support Resources", "caregiver_support_resources"},
		{"  spaced   out  ", "spaced_out"},
		{"single", "single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := categorySlug(tt.in); got != tt.want {
			t.Errorf("categorySlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordsWithin(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	items := []map[string]any{
		{"title": "fresh", "timestamp": now.Add(-30 * time.Minute).Format(time.RFC3339)},
		{"title": "stale", "timestamp": now.Add(-3 * time.Hour).Format(time.RFC3339)},
		{"title": "broken", "timestamp": "not-a-time"},
		{"title": "missing"},
	}

	got := recordsWithin(items, time.Hour, now)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0]["title"] != "fresh" {
		t.Errorf("kept %v, want fresh", got[0]["title"])
	}
}

func TestAnyFieldEquals(t *testing.T) {
	items := []map[string]any{
		{"text": "one"},
		{"text": "two"},
		{"other": "three"},
	}
	if !anyFieldEquals(items, "text", "two") {
		t.Error("expected match for two")
	}
	if anyFieldEquals(items, "text", "three") {
		t.Error("value under a different field must not match")
	}
}

func TestPromoteEligibility(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	a := &PromoteContent{now: func() time.Time { return now }}

	history := []map[string]any{
		{
			"url":           "https://example.com/capped",
			"count":         float64(promoteMaxPerArticle),
			"last_promoted": now.Add(-30 * 24 * time.Hour).Format(time.RFC3339),
		},
		{
			"url":           "https://example.com/recent",
			"count":         float64(1),
			"last_promoted": now.Add(-24 * time.Hour).Format(time.RFC3339),
		},
		{
			"url":           "https://example.com/due",
			"count":         float64(1),
			"last_promoted": now.Add(-8 * 24 * time.Hour).Format(time.RFC3339),
		},
	}

	if a.eligible(history, "https://example.com/capped", now) {
		t.Error("article at the promotion cap must be ineligible")
	}
	if a.eligible(history, "https://example.com/recent", now) {
		t.Error("article promoted inside the repost interval must be ineligible")
	}
	if !a.eligible(history, "https://example.com/due", now) {
		t.Error("article past the repost interval must be eligible")
	}
	if !a.eligible(history, "https://example.com/new", now) {
		t.Error("never-promoted article must be eligible")
	}
}

func TestParseScores(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"[0.9, 0.5, 0.8]", 3},
		{"Here are the scores:\n```json\n[0.7, 0.1]\n```", 2},
		{"no scores here", 0},
		{"[not json]", 0},
	}
	for _, tt := range tests {
		if got := parseScores(tt.in); len(got) != tt.want {
			t.Errorf("parseScores(%q) = %v, want %d scores", tt.in, got, tt.want)
		}
	}
}
