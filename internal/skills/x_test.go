package skills

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beinghq/being/internal/apikeys"
	"github.com/beinghq/being/internal/config"
)

func TestXSkillPostTweet(t *testing.T) {
	var gotPath, gotAuth, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotText = body.Text

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "12345"}})
	}))
	defer server.Close()

	t.Setenv("X_BEARER_TOKEN", "test-token")

	keys := apikeys.NewManager("")
	x := NewXSkill(config.XConfig{BaseURL: server.URL}, keys)

	ctx := context.Background()
	if err := x.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	post, err := x.PostTweet(ctx, "hello caregivers", nil)
	if err != nil {
		t.Fatalf("PostTweet: %v", err)
	}

	if gotPath != "/2/tweets" {
		t.Errorf("path: got %s, want /2/tweets", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth: got %q", gotAuth)
	}
	if gotText != "hello caregivers" {
		t.Errorf("text: got %q", gotText)
	}
	if post.ID != "12345" {
		t.Errorf("id: got %s, want 12345", post.ID)
	}
	if post.URL == "" {
		t.Error("expected a post URL")
	}
}

func TestXSkillMediaURLCountsAgainstLimit(t *testing.T) {
	var gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotText = body.Text

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "1"}})
	}))
	defer server.Close()

	t.Setenv("X_BEARER_TOKEN", "test-token")

	keys := apikeys.NewManager("")
	x := NewXSkill(config.XConfig{BaseURL: server.URL}, keys)
	ctx := context.Background()
	if err := x.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	long := strings.Repeat("a", MaxTweetLength)
	if _, err := x.PostTweet(ctx, long, []string{"https://example.com/img.png"}); err != nil {
		t.Fatalf("PostTweet: %v", err)
	}

	if got := len([]rune(gotText)); got > MaxTweetLength {
		t.Errorf("posted text length: got %d, want at most %d", got, MaxTweetLength)
	}
}

func TestXSkillRequiresInitialize(t *testing.T) {
	keys := apikeys.NewManager("")
	x := NewXSkill(config.XConfig{}, keys)

	if _, err := x.PostTweet(context.Background(), "hi", nil); err != ErrNotInitialized {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestXSkillEmptyText(t *testing.T) {
	t.Setenv("X_BEARER_TOKEN", "test-token")

	keys := apikeys.NewManager("")
	x := NewXSkill(config.XConfig{}, keys)
	ctx := context.Background()
	if err := x.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, err := x.PostTweet(ctx, "", nil); err == nil {
		t.Error("expected error for empty text")
	}
}
