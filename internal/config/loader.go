package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/marcozac/go-jsonc"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, strips comments, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before stripping, since templates are in strings)
	expanded := expandEnvTemplates(string(data))

	var cfg Config
	if err := jsonc.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with all defaults applied, used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Memory.Backend == "" {
		cfg.Memory.Backend = "sqlite"
	}
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = MemoryDBPath()
	}
	if cfg.Memory.SweepInterval.Duration() == 0 {
		cfg.Memory.SweepInterval = Duration(time.Minute)
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if cfg.Skills.Chat.Driver == "" {
		cfg.Skills.Chat.Driver = "openai"
	}
	if cfg.Skills.Chat.Model == "" {
		cfg.Skills.Chat.Model = "gpt-4o-mini"
	}
	if cfg.Skills.News.Provider == "" {
		cfg.Skills.News.Provider = "serper"
	}
	if cfg.Skills.News.MaxResults == 0 {
		cfg.Skills.News.MaxResults = 5
	}
	if cfg.Skills.Image.Model == "" {
		cfg.Skills.Image.Model = "dall-e-3"
	}
	if cfg.Skills.Image.MaxPerDay == 0 {
		cfg.Skills.Image.MaxPerDay = 50
	}
	if len(cfg.Skills.Image.SupportedFormats) == 0 {
		cfg.Skills.Image.SupportedFormats = []string{"png", "jpg"}
	}
	if cfg.Scheduler.Tick.Duration() == 0 {
		cfg.Scheduler.Tick = Duration(30 * time.Second)
	}
	if cfg.Scheduler.MaxEnergy == 0 {
		cfg.Scheduler.MaxEnergy = 1.0
	}
	if cfg.Scheduler.EnergyRegen == 0 {
		cfg.Scheduler.EnergyRegen = 0.1
	}
	if cfg.Persona.Path == "" {
		cfg.Persona.Path = PersonaPath()
	}
}
