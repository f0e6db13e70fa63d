package activities

import (
	"strings"
	"time"
)

// Shared memory keys and retention windows. Several activities cooperate
// through these: fetch_news fills the share queue, the posting activities
// drain it, and the recent_* lists drive deduplication.
const (
	keyRecentNews   = "recent_news"
	keyShareQueue   = "social_share_queue"
	keyRecentTweets = "recent_tweets"
	keyPromoted     = "promoted_articles"

	recentNewsTTL = 24 * time.Hour
	shareQueueTTL = 12 * time.Hour
)

// categorySlug turns a free-form topic into a memory key segment.
func categorySlug(topic string) string {
	s := strings.ToLower(strings.TrimSpace(topic))
	s = strings.Join(strings.Fields(s), "_")
	return s
}

// recordTimestamp reads the RFC3339 "timestamp" field of a record.
func recordTimestamp(rec map[string]any) (time.Time, bool) {
	s, _ := rec["timestamp"].(string)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// recordsWithin filters records to those whose timestamp falls inside the
// window ending at now. Records without a parseable timestamp are dropped.
func recordsWithin(items []map[string]any, window time.Duration, now time.Time) []map[string]any {
	var out []map[string]any
	cutoff := now.Add(-window)
	for _, rec := range items {
		ts, ok := recordTimestamp(rec)
		if !ok {
			continue
		}
		if ts.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// anyFieldEquals reports whether any record's string field matches value.
func anyFieldEquals(items []map[string]any, field, value string) bool {
	for _, rec := range items {
		if s, _ := rec[field].(string); s == value {
			return true
		}
	}
	return false
}
