package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beinghq/being/internal/apikeys"
	"github.com/beinghq/being/internal/config"
	"github.com/beinghq/being/internal/memory"
)

// SkillImage is the registry name of the image generation skill.
const SkillImage = "image_generation"

const (
	openaiImagesURL     = "https://api.openai.com/v1/images/generations"
	defaultImageTimeout = 120 * time.Second

	// quotaTTL keeps yesterday's counter around briefly for inspection but
	// guarantees old counters are swept.
	quotaTTL = 48 * time.Hour
)

// ErrQuotaExceeded is returned when the daily generation limit is reached.
var ErrQuotaExceeded = fmt.Errorf("daily image generation limit reached")

// GenerateRequest describes one image to generate.
type GenerateRequest struct {
	Prompt string
	Format string // defaults to the first supported format
	Width  int    // defaults to 1024
	Height int    // defaults to 1024
}

// Image is the result of a successful generation.
type Image struct {
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	Seed         int64  `json:"seed"`
	GenerationID string `json:"generation_id"`
}

// ImageSkill generates images through the OpenAI images API. A daily
// counter persisted in the memory store enforces the generation budget
// across restarts.
type ImageSkill struct {
	cfg   config.ImageConfig
	keys  *apikeys.Manager
	store memory.Store

	client *http.Client

	mu     sync.Mutex
	apiKey string

	now func() time.Time // test hook
}

// NewImageSkill creates the image generation skill.
func NewImageSkill(cfg config.ImageConfig, keys *apikeys.Manager, store memory.Store) *ImageSkill {
	keys.RegisterRequired(SkillImage, "OPENAI_API_KEY")
	if cfg.APIKey != "" {
		keys.SetValue("OPENAI_API_KEY", cfg.APIKey)
	}
	timeout := cfg.Timeout.Duration()
	if timeout == 0 {
		timeout = defaultImageTimeout
	}
	return &ImageSkill{
		cfg:    cfg,
		keys:   keys,
		store:  store,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Name implements Skill.
func (s *ImageSkill) Name() string { return SkillImage }

// Initialize resolves the API key. Idempotent.
func (s *ImageSkill) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.apiKey != "" {
		return nil
	}
	if !s.cfg.Enabled {
		return fmt.Errorf("initialize image skill: disabled in config")
	}

	key, err := s.keys.Resolve(SkillImage, "OPENAI_API_KEY")
	if err != nil {
		return fmt.Errorf("initialize image skill: %w", err)
	}
	s.apiKey = key
	slog.Debug("image skill initialized", "model", s.model(), "max_per_day", s.cfg.MaxPerDay)
	return nil
}

func (s *ImageSkill) model() string {
	if s.cfg.Model == "" {
		return "dall-e-3"
	}
	return s.cfg.Model
}

func (s *ImageSkill) quotaKey() string {
	return "quota:image_generation:" + s.now().UTC().Format("2006-01-02")
}

// UsedToday returns how many images were generated today.
func (s *ImageSkill) UsedToday(ctx context.Context) (int, error) {
	var used int
	if _, err := s.store.Get(ctx, s.quotaKey(), &used); err != nil {
		return 0, fmt.Errorf("read image quota: %w", err)
	}
	return used, nil
}

// CanGenerate reports whether the skill is enabled and under today's quota.
func (s *ImageSkill) CanGenerate(ctx context.Context) (bool, error) {
	if !s.cfg.Enabled {
		return false, nil
	}
	if s.cfg.MaxPerDay <= 0 {
		return true, nil
	}
	used, err := s.UsedToday(ctx)
	if err != nil {
		return false, err
	}
	return used < s.cfg.MaxPerDay, nil
}

// Generate creates one image. The daily counter is incremented only after
// a successful generation, so failed calls do not consume quota.
func (s *ImageSkill) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	s.mu.Lock()
	apiKey := s.apiKey
	s.mu.Unlock()

	if apiKey == "" {
		return nil, ErrNotInitialized
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("generate image: empty prompt")
	}

	format := req.Format
	if format == "" && len(s.cfg.SupportedFormats) > 0 {
		format = s.cfg.SupportedFormats[0]
	}
	if format == "" {
		format = "png"
	}
	if len(s.cfg.SupportedFormats) > 0 && !slices.Contains(s.cfg.SupportedFormats, format) {
		return nil, fmt.Errorf("generate image: unsupported format %q (supported: %v)", format, s.cfg.SupportedFormats)
	}

	width, height := req.Width, req.Height
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}

	ok, err := s.CanGenerate(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generate image: %w (%d/day)", ErrQuotaExceeded, s.cfg.MaxPerDay)
	}

	url, err := s.callOpenAI(ctx, apiKey, req.Prompt, width, height)
	if err != nil {
		return nil, err
	}

	if err := s.incrementQuota(ctx); err != nil {
		slog.Warn("image generated but quota counter not updated", "error", err)
	}

	img := &Image{
		URL:          url,
		Width:        width,
		Height:       height,
		Format:       format,
		Seed:         s.now().UnixNano(),
		GenerationID: uuid.NewString(),
	}
	slog.Info("image generated", "generation_id", img.GenerationID, "size", fmt.Sprintf("%dx%d", width, height))
	return img, nil
}

func (s *ImageSkill) incrementQuota(ctx context.Context) error {
	key := s.quotaKey()
	defer lockQuota(key)()

	var used int
	if _, err := s.store.Get(ctx, key, &used); err != nil {
		return err
	}
	return s.store.Set(ctx, key, used+1, quotaTTL)
}

func (s *ImageSkill) callOpenAI(ctx context.Context, apiKey, prompt string, width, height int) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":  s.model(),
		"prompt": prompt,
		"n":      1,
		"size":   fmt.Sprintf("%dx%d", width, height),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiImagesURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("image generation: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image generation: status %d: %s", resp.StatusCode, truncateBody(data))
	}

	var payload struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("image generation: decode: %w", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].URL == "" {
		return "", fmt.Errorf("image generation: response carried no image URL")
	}
	return payload.Data[0].URL, nil
}

// lockQuota serializes the read-increment-write on the quota counter within
// this process.
var quotaLocks = struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}{m: make(map[string]*sync.Mutex)}

func lockQuota(key string) func() {
	quotaLocks.mu.Lock()
	l, ok := quotaLocks.m[key]
	if !ok {
		l = &sync.Mutex{}
		quotaLocks.m[key] = l
	}
	quotaLocks.mu.Unlock()

	l.Lock()
	return l.Unlock
}
