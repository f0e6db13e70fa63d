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

	"github.com/cloudwego/eino-ext/components/tool/bingsearch"
	duckduckgo "github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino-ext/components/tool/googlesearch"
	"github.com/cloudwego/eino/components/tool"

	"github.com/beinghq/being/internal/apikeys"
	"github.com/beinghq/being/internal/config"
)

// SkillNews is the registry name of the news search skill.
const SkillNews = "news"

const (
	serperBaseURL      = "https://google.serper.dev"
	defaultNewsTimeout = 30 * time.Second
)

// Article is a single news search result in the being's standard shape.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// NewsSkill searches news via the configured provider: "serper" (default),
// or "duckduckgo"/"google"/"bing" through their eino-ext search tools.
type NewsSkill struct {
	cfg  config.NewsConfig
	keys *apikeys.Manager

	client *http.Client

	mu          sync.Mutex
	apiKey      string             // serper
	searchTool  tool.InvokableTool // non-serper providers
	initialized bool
}

// NewNewsSkill creates the news skill.
func NewNewsSkill(cfg config.NewsConfig, keys *apikeys.Manager) *NewsSkill {
	timeout := cfg.Timeout.Duration()
	if timeout == 0 {
		timeout = defaultNewsTimeout
	}
	switch cfg.Provider {
	case "", "serper":
		keys.RegisterRequired(SkillNews, "SERPER_API_KEY")
		if cfg.APIKey != "" {
			keys.SetValue("SERPER_API_KEY", cfg.APIKey)
		}
	case "google":
		keys.RegisterRequired(SkillNews, "GOOGLE_SEARCH_API_KEY")
		if cfg.APIKey != "" {
			keys.SetValue("GOOGLE_SEARCH_API_KEY", cfg.APIKey)
		}
	case "bing":
		keys.RegisterRequired(SkillNews, "BING_SEARCH_API_KEY")
		if cfg.APIKey != "" {
			keys.SetValue("BING_SEARCH_API_KEY", cfg.APIKey)
		}
	}
	return &NewsSkill{
		cfg:    cfg,
		keys:   keys,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Skill.
func (s *NewsSkill) Name() string { return SkillNews }

// Initialize resolves credentials and builds the provider tool. Idempotent.
func (s *NewsSkill) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	switch s.cfg.Provider {
	case "", "serper":
		key, err := s.keys.Resolve(SkillNews, "SERPER_API_KEY")
		if err != nil {
			return fmt.Errorf("initialize news skill: %w", err)
		}
		s.apiKey = key

	case "duckduckgo":
		t, err := duckduckgo.NewTextSearchTool(ctx, &duckduckgo.Config{
			MaxResults: s.cfg.MaxResults,
			Timeout:    s.client.Timeout,
		})
		if err != nil {
			return fmt.Errorf("initialize news skill: duckduckgo: %w", err)
		}
		s.searchTool = t

	case "google":
		key, err := s.keys.Resolve(SkillNews, "GOOGLE_SEARCH_API_KEY")
		if err != nil {
			return fmt.Errorf("initialize news skill: %w", err)
		}
		t, err := googlesearch.NewTool(ctx, &googlesearch.Config{
			APIKey:         key,
			SearchEngineID: s.cfg.GoogleCX,
			Num:            s.cfg.MaxResults,
		})
		if err != nil {
			return fmt.Errorf("initialize news skill: google: %w", err)
		}
		s.searchTool = t

	case "bing":
		key, err := s.keys.Resolve(SkillNews, "BING_SEARCH_API_KEY")
		if err != nil {
			return fmt.Errorf("initialize news skill: %w", err)
		}
		t, err := bingsearch.NewTool(ctx, &bingsearch.Config{
			APIKey:     key,
			MaxResults: s.cfg.MaxResults,
			Timeout:    s.client.Timeout,
		})
		if err != nil {
			return fmt.Errorf("initialize news skill: bing: %w", err)
		}
		s.searchTool = t

	default:
		return fmt.Errorf("initialize news skill: unknown provider %q", s.cfg.Provider)
	}

	s.initialized = true
	slog.Debug("news skill initialized", "provider", s.providerName())
	return nil
}

func (s *NewsSkill) providerName() string {
	if s.cfg.Provider == "" {
		return "serper"
	}
	return s.cfg.Provider
}

// SearchNews returns up to n articles for the query.
func (s *NewsSkill) SearchNews(ctx context.Context, query string, n int) ([]Article, error) {
	s.mu.Lock()
	initialized := s.initialized
	searchTool := s.searchTool
	apiKey := s.apiKey
	s.mu.Unlock()

	if !initialized {
		return nil, ErrNotInitialized
	}
	if n <= 0 {
		n = s.cfg.MaxResults
	}

	if searchTool != nil {
		return s.searchViaTool(ctx, searchTool, query, n)
	}
	return s.searchSerper(ctx, apiKey, query, n)
}

// searchSerper queries Serper.dev's news endpoint.
func (s *NewsSkill) searchSerper(ctx context.Context, apiKey, query string, n int) ([]Article, error) {
	body, err := json.Marshal(map[string]any{"q": query, "num": n})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperBaseURL+"/news", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper news search: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("serper news search: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper news search: status %d: %s", resp.StatusCode, truncateBody(data))
	}

	var payload struct {
		News []struct {
			Title    string `json:"title"`
			Snippet  string `json:"snippet"`
			Link     string `json:"link"`
			Source   string `json:"source"`
			Date     string `json:"date"`
			ImageURL string `json:"imageUrl"`
		} `json:"news"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("serper news search: decode: %w", err)
	}

	articles := make([]Article, 0, len(payload.News))
	for _, item := range payload.News {
		articles = append(articles, Article{
			Title:       item.Title,
			Description: item.Snippet,
			URL:         item.Link,
			Source:      item.Source,
			PublishedAt: item.Date,
			ImageURL:    item.ImageURL,
		})
	}
	return articles, nil
}

// searchViaTool runs an eino-ext search tool and maps its JSON output to
// articles. The tools disagree on field names, so the decoder is permissive.
func (s *NewsSkill) searchViaTool(ctx context.Context, t tool.InvokableTool, query string, n int) ([]Article, error) {
	args, err := json.Marshal(map[string]any{"query": query})
	if err != nil {
		return nil, err
	}

	out, err := t.InvokableRun(ctx, string(args))
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", s.providerName(), err)
	}

	type rawResult struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Link        string `json:"link"`
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Snippet     string `json:"snippet"`
	}
	var payload struct {
		Results []rawResult `json:"results"`
		Items   []rawResult `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return nil, fmt.Errorf("%s search: decode: %w", s.providerName(), err)
	}

	raw := payload.Results
	if len(raw) == 0 {
		raw = payload.Items
	}

	articles := make([]Article, 0, len(raw))
	for _, r := range raw {
		if len(articles) >= n {
			break
		}
		url := r.URL
		if url == "" {
			url = r.Link
		}
		desc := r.Description
		if desc == "" {
			desc = r.Summary
		}
		if desc == "" {
			desc = r.Snippet
		}
		articles = append(articles, Article{
			Title:       r.Title,
			Description: desc,
			URL:         url,
		})
	}
	return articles, nil
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
