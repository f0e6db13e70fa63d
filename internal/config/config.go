package config

import "time"

// Config is the root configuration for the digital being.
type Config struct {
	Memory     MemoryConfig              `json:"memory"`
	Skills     SkillsConfig              `json:"skills"`
	Activities map[string]ActivityConfig `json:"activities"`
	Scheduler  SchedulerConfig           `json:"scheduler"`
	Persona    PersonaConfig             `json:"persona"`
	Events     EventsConfig              `json:"events"`
}

// MemoryConfig selects and configures the shared memory store backend.
type MemoryConfig struct {
	Backend string      `json:"backend"` // "sqlite" (default) or "redis"
	Path    string      `json:"path,omitempty"`
	Redis   RedisConfig `json:"redis,omitempty"`
	// SweepInterval controls how often expired records are purged (sqlite only).
	SweepInterval Duration `json:"sweep_interval,omitempty"`
}

// RedisConfig holds connection settings for the redis memory backend.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

// SkillsConfig configures the skill clients.
type SkillsConfig struct {
	Chat     ChatConfig     `json:"chat"`
	News     NewsConfig     `json:"news"`
	Image    ImageConfig    `json:"image"`
	X        XConfig        `json:"x"`
	LinkedIn LinkedInConfig `json:"linkedin"`
}

// ChatConfig configures the chat completion skill.
type ChatConfig struct {
	Driver    string   `json:"driver"` // "openai", "anthropic", "ollama"
	Model     string   `json:"model"`
	BaseURL   string   `json:"base_url,omitempty"`
	APIKey    string   `json:"api_key,omitempty"` // direct value, ${{ .Env.VAR }} template, or ENC[age:...]
	MaxTokens int      `json:"max_tokens,omitempty"`
	Timeout   Duration `json:"timeout,omitempty"`
}

// NewsConfig configures the news search skill.
type NewsConfig struct {
	Provider   string   `json:"provider"` // "serper" (default), "duckduckgo", "google", "bing"
	APIKey     string   `json:"api_key,omitempty"`
	GoogleCX   string   `json:"google_cx,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
	Timeout    Duration `json:"timeout,omitempty"`
}

// ImageConfig configures the image generation skill.
type ImageConfig struct {
	Enabled          bool     `json:"enabled"`
	APIKey           string   `json:"api_key,omitempty"`
	Model            string   `json:"model,omitempty"` // default "dall-e-3"
	MaxPerDay        int      `json:"max_per_day,omitempty"`
	SupportedFormats []string `json:"supported_formats,omitempty"`
	Timeout          Duration `json:"timeout,omitempty"`
}

// XConfig configures posting to X (Twitter).
type XConfig struct {
	BearerToken string   `json:"bearer_token,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"`
	Timeout     Duration `json:"timeout,omitempty"`
}

// LinkedInConfig configures posting to a LinkedIn company page.
type LinkedInConfig struct {
	AccessToken     string   `json:"access_token,omitempty"`
	OrganizationURN string   `json:"organization_urn,omitempty"`
	BaseURL         string   `json:"base_url,omitempty"`
	Timeout         Duration `json:"timeout,omitempty"`
}

// ActivityConfig overrides the declarative metadata of a single activity.
type ActivityConfig struct {
	Enabled  *bool    `json:"enabled,omitempty"`
	Cooldown Duration `json:"cooldown,omitempty"` // overrides the activity's declared cooldown
	Cron     string   `json:"cron,omitempty"`     // optional cron trigger
}

// SchedulerConfig holds the activity loop settings.
type SchedulerConfig struct {
	Tick        Duration `json:"tick,omitempty"`         // eligibility check interval
	MaxEnergy   float64  `json:"max_energy,omitempty"`   // energy budget ceiling
	EnergyRegen float64  `json:"energy_regen,omitempty"` // energy restored per minute
}

// PersonaConfig points at the persona/branding definition.
type PersonaConfig struct {
	Path string `json:"path,omitempty"` // default $BEING_PATH/persona.yaml
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
