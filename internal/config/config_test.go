package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadStripsCommentsAndAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		// comment survives jsonc parsing
		"skills": {
			"chat": {
				"driver": "anthropic",
				"model": "claude-sonnet-4-20250514"
			}
		}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Skills.Chat.Driver != "anthropic" {
		t.Errorf("driver: got %s", cfg.Skills.Chat.Driver)
	}
	if cfg.Memory.Backend != "sqlite" {
		t.Errorf("default backend: got %s", cfg.Memory.Backend)
	}
	if cfg.Scheduler.Tick.Duration() != 30*time.Second {
		t.Errorf("default tick: got %s", cfg.Scheduler.Tick.Duration())
	}
	if cfg.Skills.Image.MaxPerDay != 50 {
		t.Errorf("default image quota: got %d", cfg.Skills.Image.MaxPerDay)
	}
	if cfg.Scheduler.MaxEnergy != 1.0 {
		t.Errorf("default max energy: got %v", cfg.Scheduler.MaxEnergy)
	}
}

func TestLoadExpandsEnvTemplates(t *testing.T) {
	t.Setenv("TEST_BEING_KEY", "sk-from-env")

	path := writeConfig(t, `{
		"skills": {
			"chat": {
				"api_key": "${{ .Env.TEST_BEING_KEY }}"
			}
		}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Skills.Chat.APIKey != "sk-from-env" {
		t.Errorf("api_key: got %q, want sk-from-env", cfg.Skills.Chat.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.jsonc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte(`"1h30m"`)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if d.Duration() != 90*time.Minute {
		t.Errorf("got %s, want 1h30m", d.Duration())
	}

	out, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(out) != `"1h30m0s"` {
		t.Errorf("marshal: got %s", out)
	}

	if err := d.UnmarshalJSON([]byte(`"bogus"`)); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `# a comment
PLAIN=value
QUOTED="quoted value"
SINGLE='single value'
export EXPORTED=also works
EXISTING=from-file

malformed line without equals
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("EXISTING", "from-env")
	for _, k := range []string{"PLAIN", "QUOTED", "SINGLE", "EXPORTED"} {
		os.Unsetenv(k)
		t.Cleanup(func() { os.Unsetenv(k) })
	}

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}

	if got := os.Getenv("PLAIN"); got != "value" {
		t.Errorf("PLAIN: got %q", got)
	}
	if got := os.Getenv("QUOTED"); got != "quoted value" {
		t.Errorf("QUOTED: got %q", got)
	}
	if got := os.Getenv("SINGLE"); got != "single value" {
		t.Errorf("SINGLE: got %q", got)
	}
	if got := os.Getenv("EXPORTED"); got != "also works" {
		t.Errorf("EXPORTED: got %q", got)
	}
	if got := os.Getenv("EXISTING"); got != "from-env" {
		t.Errorf("existing env var was overridden: %q", got)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("missing .env must be ignored, got %v", err)
	}
}

func TestBeingPathEnvOverride(t *testing.T) {
	t.Setenv("BEING_PATH", "/tmp/custom-being")
	if got := BeingPath(); got != "/tmp/custom-being" {
		t.Errorf("BeingPath: got %s", got)
	}
	if got := ConfigPath(); got != "/tmp/custom-being/config.jsonc" {
		t.Errorf("ConfigPath: got %s", got)
	}
}
