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

// SkillLinkedIn is the registry name of the LinkedIn posting skill.
const SkillLinkedIn = "linkedin"

const (
	defaultLinkedInBaseURL = "https://api.linkedin.com"
	defaultLinkedInTimeout = 30 * time.Second
)

// LinkedInSkill posts updates to a company page through the LinkedIn UGC API.
type LinkedInSkill struct {
	cfg  config.LinkedInConfig
	keys *apikeys.Manager

	client *http.Client

	mu    sync.Mutex
	token string
}

// NewLinkedInSkill creates the LinkedIn posting skill.
func NewLinkedInSkill(cfg config.LinkedInConfig, keys *apikeys.Manager) *LinkedInSkill {
	keys.RegisterRequired(SkillLinkedIn, "LINKEDIN_ACCESS_TOKEN")
	if cfg.AccessToken != "" {
		keys.SetValue("LINKEDIN_ACCESS_TOKEN", cfg.AccessToken)
	}
	timeout := cfg.Timeout.Duration()
	if timeout == 0 {
		timeout = defaultLinkedInTimeout
	}
	return &LinkedInSkill{
		cfg:    cfg,
		keys:   keys,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Skill.
func (s *LinkedInSkill) Name() string { return SkillLinkedIn }

// Initialize resolves the access token and checks the organization URN is
// configured. Idempotent.
func (s *LinkedInSkill) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return nil
	}
	if s.cfg.OrganizationURN == "" {
		return fmt.Errorf("initialize linkedin skill: organization_urn not configured")
	}
	token, err := s.keys.Resolve(SkillLinkedIn, "LINKEDIN_ACCESS_TOKEN")
	if err != nil {
		return fmt.Errorf("initialize linkedin skill: %w", err)
	}
	s.token = token
	return nil
}

func (s *LinkedInSkill) baseURL() string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}
	return defaultLinkedInBaseURL
}

// PostUpdate publishes a text update on the configured organization page,
// optionally sharing an image by URL. It returns the created post's URN.
func (s *LinkedInSkill) PostUpdate(ctx context.Context, text, imageURL string) (string, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return "", ErrNotInitialized
	}
	if text == "" {
		return "", fmt.Errorf("post linkedin update: empty text")
	}

	content := map[string]any{
		"shareCommentary":    map[string]any{"text": text},
		"shareMediaCategory": "NONE",
	}
	if imageURL != "" {
		content["shareMediaCategory"] = "ARTICLE"
		content["media"] = []map[string]any{{
			"status":      "READY",
			"originalUrl": imageURL,
		}}
	}

	body, err := json.Marshal(map[string]any{
		"author":         s.cfg.OrganizationURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": content,
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL()+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post linkedin update: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("post linkedin update: read body: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("post linkedin update: status %d: %s", resp.StatusCode, truncateBody(data))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("post linkedin update: decode: %w", err)
	}
	if out.ID == "" {
		// Some deployments return the URN only in the header.
		out.ID = resp.Header.Get("X-Restli-Id")
	}
	if out.ID == "" {
		return "", fmt.Errorf("post linkedin update: response carried no post id")
	}

	slog.Info("linkedin update posted", "id", out.ID)
	return out.ID, nil
}
