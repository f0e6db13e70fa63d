package activities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beinghq/being/internal/apikeys"
	"github.com/beinghq/being/internal/config"
	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/skills"
)

// fakeXServer stands in for the X API and records the posted text.
func fakeXServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var posted string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		posted = body.Text
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "99"}})
	}))
	t.Cleanup(server.Close)
	return server, &posted
}

func newTweetFixture(t *testing.T) (*PostTweet, *SharedData) {
	t.Helper()
	t.Setenv("X_BEARER_TOKEN", "test-token")

	server, _ := fakeXServer(t)

	store, err := memory.OpenSQL(filepath.Join(t.TempDir(), "memory.db"), 0)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	keys := apikeys.NewManager("")
	sreg := skills.NewRegistry()
	sreg.Register(skills.NewXSkill(config.XConfig{BaseURL: server.URL}, keys))

	a := NewPostTweet(sreg, persona.DefaultPersona())
	return a, &SharedData{Values: map[string]any{}, Memory: store}
}

func TestPostTweetFromQueue(t *testing.T) {
	ctx := context.Background()
	a, shared := newTweetFixture(t)

	article := map[string]any{
		"type":      "news",
		"category":  "emotional_support",
		"title":     "Respite grants expand statewide",
		"url":       "https://example.com/grants",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := memory.Append(ctx, shared.Memory, keyShareQueue, article, 0, shareQueueTTL); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	res := a.Execute(ctx, shared)
	if !res.Success || res.Skipped {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Data["type"] != "news" {
		t.Errorf("type: got %v, want news", res.Data["type"])
	}
	if res.Data["tweet_id"] != "99" {
		t.Errorf("tweet_id: got %v", res.Data["tweet_id"])
	}

	// The drained queue key must be gone.
	keys, err := shared.Memory.Keys(ctx, keyShareQueue)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("queue key must be deleted after draining, found %v", keys)
	}

	// The tweet must be recorded for deduplication.
	recent, err := memory.GetList(ctx, shared.Memory, keyRecentTweets)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent tweets: got %d, want 1", len(recent))
	}
}

func TestPostTweetDirectText(t *testing.T) {
	ctx := context.Background()
	a, shared := newTweetFixture(t)
	shared.Values["tweet_text"] = "checking in on everyone today"

	res := a.Execute(ctx, shared)
	if !res.Success || res.Skipped {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Data["type"] != "direct" {
		t.Errorf("type: got %v, want direct", res.Data["type"])
	}
}

func TestPostTweetNoContent(t *testing.T) {
	ctx := context.Background()
	a, shared := newTweetFixture(t)

	res := a.Execute(ctx, shared)
	if res.Success {
		t.Fatal("expected failure with empty queue and no text")
	}
	if res.Error != "No tweet content provided" {
		t.Errorf("error: got %q, want %q", res.Error, "No tweet content provided")
	}
}

func TestPostTweetDedupWindow(t *testing.T) {
	ctx := context.Background()
	a, shared := newTweetFixture(t)
	shared.Values["tweet_text"] = "fresh text"

	recent := map[string]any{
		"id":        "1",
		"text":      "an earlier tweet",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := memory.Append(ctx, shared.Memory, keyRecentTweets, recent, 0, 0); err != nil {
		t.Fatalf("seed recent tweets: %v", err)
	}

	res := a.Execute(ctx, shared)
	if !res.Success || !res.Skipped {
		t.Fatalf("expected skip inside dedup window, got %+v", res)
	}
}

func TestPostTweetIdenticalTextSkipped(t *testing.T) {
	ctx := context.Background()
	a, shared := newTweetFixture(t)
	shared.TriggerType = "manual"
	shared.Values["tweet_text"] = "same words"

	recent := map[string]any{
		"id":        "1",
		"text":      "same words",
		"timestamp": time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339),
	}
	if err := memory.Append(ctx, shared.Memory, keyRecentTweets, recent, 0, 0); err != nil {
		t.Fatalf("seed recent tweets: %v", err)
	}

	res := a.Execute(ctx, shared)
	if !res.Success || !res.Skipped {
		t.Fatalf("expected identical text skip, got %+v", res)
	}
}

func TestPostTweetFailureRestoresQueue(t *testing.T) {
	ctx := context.Background()
	t.Setenv("X_BEARER_TOKEN", "test-token")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	store, err := memory.OpenSQL(filepath.Join(t.TempDir(), "memory.db"), 0)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sreg := skills.NewRegistry()
	sreg.Register(skills.NewXSkill(config.XConfig{BaseURL: server.URL}, apikeys.NewManager("")))
	a := NewPostTweet(sreg, persona.DefaultPersona())
	shared := &SharedData{Values: map[string]any{}, Memory: store}

	article := map[string]any{
		"type":      "news",
		"title":     "Caregiver tax credit clears committee",
		"url":       "https://example.com/credit",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := memory.Append(ctx, shared.Memory, keyShareQueue, article, 0, shareQueueTTL); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	res := a.Execute(ctx, shared)
	if res.Success {
		t.Fatalf("expected failure from the API, got %+v", res)
	}

	// The popped article must be back at the head for the next attempt.
	queue, err := memory.GetList(ctx, shared.Memory, keyShareQueue)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("queue after failed post: got %d entries, want 1", len(queue))
	}
	if queue[0]["title"] != article["title"] {
		t.Errorf("restored article: got %v", queue[0])
	}
}

func TestPostTweetIdenticalSkipRestoresQueue(t *testing.T) {
	ctx := context.Background()
	a, shared := newTweetFixture(t)

	article := map[string]any{
		"type":      "promotion",
		"text":      "same words",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := memory.Append(ctx, shared.Memory, keyShareQueue, article, 0, shareQueueTTL); err != nil {
		t.Fatalf("seed queue: %v", err)
	}
	recent := map[string]any{
		"id":        "1",
		"text":      "same words",
		"timestamp": time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339),
	}
	if err := memory.Append(ctx, shared.Memory, keyRecentTweets, recent, 0, 0); err != nil {
		t.Fatalf("seed recent tweets: %v", err)
	}

	res := a.Execute(ctx, shared)
	if !res.Success || !res.Skipped {
		t.Fatalf("expected identical text skip, got %+v", res)
	}

	queue, err := memory.GetList(ctx, shared.Memory, keyShareQueue)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("queue after skip: got %d entries, want 1", len(queue))
	}
}

func TestPostTweetMissingSkill(t *testing.T) {
	store, err := memory.OpenSQL(filepath.Join(t.TempDir(), "memory.db"), 0)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	a := NewPostTweet(skills.NewRegistry(), persona.DefaultPersona())
	res := a.Execute(context.Background(), &SharedData{Memory: store})
	if res.Success {
		t.Fatal("expected failure without the x_api skill")
	}
	if !strings.Contains(res.Error, "x_api") {
		t.Errorf("error must name the missing skill, got %q", res.Error)
	}
}
