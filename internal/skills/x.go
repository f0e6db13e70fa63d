package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/beinghq/being/internal/apikeys"
	"github.com/beinghq/being/internal/config"
)

// SkillX is the registry name of the X (Twitter) posting skill.
const SkillX = "x_api"

const (
	defaultXBaseURL = "https://api.twitter.com"
	defaultXTimeout = 30 * time.Second

	// MaxTweetLength is the platform limit for standard accounts.
	MaxTweetLength = 280
)

// Post identifies a published tweet.
type Post struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// XSkill posts tweets through the X API v2.
type XSkill struct {
	cfg  config.XConfig
	keys *apikeys.Manager

	client *http.Client

	mu     sync.Mutex
	bearer string
}

// NewXSkill creates the X posting skill.
func NewXSkill(cfg config.XConfig, keys *apikeys.Manager) *XSkill {
	keys.RegisterRequired(SkillX, "X_BEARER_TOKEN")
	if cfg.BearerToken != "" {
		keys.SetValue("X_BEARER_TOKEN", cfg.BearerToken)
	}
	timeout := cfg.Timeout.Duration()
	if timeout == 0 {
		timeout = defaultXTimeout
	}
	return &XSkill{
		cfg:    cfg,
		keys:   keys,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Skill.
func (s *XSkill) Name() string { return SkillX }

// Initialize resolves the bearer token. Idempotent.
func (s *XSkill) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bearer != "" {
		return nil
	}
	token, err := s.keys.Resolve(SkillX, "X_BEARER_TOKEN")
	if err != nil {
		return fmt.Errorf("initialize x skill: %w", err)
	}
	s.bearer = token
	return nil
}

func (s *XSkill) baseURL() string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}
	return defaultXBaseURL
}

// PostTweet publishes a tweet. Text over the platform limit is truncated
// with an ellipsis rather than rejected.
func (s *XSkill) PostTweet(ctx context.Context, text string, mediaURLs []string) (*Post, error) {
	s.mu.Lock()
	bearer := s.bearer
	s.mu.Unlock()

	if bearer == "" {
		return nil, ErrNotInitialized
	}
	if text == "" {
		return nil, fmt.Errorf("post tweet: empty text")
	}
	if len(mediaURLs) > 0 {
		// The v2 endpoint takes media IDs, not URLs. Remote URLs are
		// appended to the text so the link is still shared.
		text = text + "\n" + mediaURLs[0]
	}
	// Truncate after composing so the final text never exceeds the limit.
	text = TruncateTweet(text)

	payload := map[string]any{"text": text}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL()+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("post tweet: read body: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post tweet: status %d: %s", resp.StatusCode, truncateBody(data))
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("post tweet: decode: %w", err)
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("post tweet: response carried no tweet id")
	}

	post := &Post{
		ID:  out.Data.ID,
		URL: "https://x.com/i/status/" + out.Data.ID,
	}
	slog.Info("tweet posted", "id", post.ID)
	return post, nil
}

// TruncateTweet shortens text to the platform limit, rune-safe.
func TruncateTweet(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxTweetLength {
		return text
	}
	return string(runes[:MaxTweetLength-3]) + "..."
}
