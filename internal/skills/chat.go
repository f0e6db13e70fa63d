package skills

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	claudemodel "github.com/cloudwego/eino-ext/components/model/claude"
	ollamamodel "github.com/cloudwego/eino-ext/components/model/ollama"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/beinghq/being/internal/apikeys"
	"github.com/beinghq/being/internal/config"
)

// SkillChat is the registry name of the chat completion skill.
const SkillChat = "chat"

const defaultChatTimeout = 60 * time.Second

// ChatSkill wraps a chat completion model behind the Skill interface.
type ChatSkill struct {
	cfg  config.ChatConfig
	keys *apikeys.Manager

	mu    sync.Mutex
	model model.ToolCallingChatModel // nil until Initialize succeeds
}

// NewChatSkill creates the chat skill. No credentials are touched here.
func NewChatSkill(cfg config.ChatConfig, keys *apikeys.Manager) *ChatSkill {
	if name := chatKeyName(cfg.Driver); name != "" {
		keys.RegisterRequired(SkillChat, name)
		if cfg.APIKey != "" {
			keys.SetValue(name, cfg.APIKey)
		}
	}
	return &ChatSkill{cfg: cfg, keys: keys}
}

// Name implements Skill.
func (s *ChatSkill) Name() string { return SkillChat }

// Initialize resolves the API key and constructs the underlying chat model.
// It is idempotent: once the model exists, it returns immediately.
func (s *ChatSkill) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return nil
	}

	m, err := s.buildModel(ctx)
	if err != nil {
		return fmt.Errorf("initialize chat skill: %w", err)
	}
	s.model = m
	slog.Debug("chat skill initialized", "driver", s.cfg.Driver, "model", s.cfg.Model)
	return nil
}

func (s *ChatSkill) buildModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	timeout := s.cfg.Timeout.Duration()
	if timeout == 0 {
		timeout = defaultChatTimeout
	}

	switch s.cfg.Driver {
	case "", "openai":
		key, err := s.keys.Resolve(SkillChat, chatKeyName("openai"))
		if err != nil {
			return nil, err
		}
		mc := &openaimodel.ChatModelConfig{
			APIKey:  key,
			Model:   s.cfg.Model,
			Timeout: timeout,
		}
		if s.cfg.BaseURL != "" {
			mc.BaseURL = s.cfg.BaseURL
		}
		if s.cfg.MaxTokens > 0 {
			maxTokens := s.cfg.MaxTokens
			mc.MaxCompletionTokens = &maxTokens
		}
		return openaimodel.NewChatModel(ctx, mc)

	case "anthropic":
		key, err := s.keys.Resolve(SkillChat, chatKeyName("anthropic"))
		if err != nil {
			return nil, err
		}
		maxTokens := s.cfg.MaxTokens
		if maxTokens == 0 {
			maxTokens = 4096
		}
		mc := &claudemodel.Config{
			APIKey:    key,
			Model:     s.cfg.Model,
			MaxTokens: maxTokens,
		}
		if s.cfg.BaseURL != "" {
			baseURL := s.cfg.BaseURL
			mc.BaseURL = &baseURL
		}
		return claudemodel.NewChatModel(ctx, mc)

	case "ollama":
		baseURL := s.cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollamamodel.NewChatModel(ctx, &ollamamodel.ChatModelConfig{
			BaseURL: baseURL,
			Model:   s.cfg.Model,
			Timeout: timeout,
		})

	default:
		return nil, fmt.Errorf("unknown chat driver %q", s.cfg.Driver)
	}
}

// Complete sends a single-turn prompt and returns the model's text reply.
func (s *ChatSkill) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	m := s.model
	s.mu.Unlock()

	if m == nil {
		return "", ErrNotInitialized
	}

	out, err := m.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}

func chatKeyName(driver string) string {
	switch driver {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "ollama":
		return "" // local daemon, no credential
	default:
		return "OPENAI_API_KEY"
	}
}
