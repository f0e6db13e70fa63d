package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/beinghq/being/internal/config"
	"github.com/beinghq/being/internal/secrets"
)

// NewWakeCommand returns the onboarding subcommand.
func NewWakeCommand() *cli.Command {
	return &cli.Command{
		Name:   "wake",
		Usage:  "Initialize the being's home directory (~/.being)",
		Action: runWake,
	}
}

func runWake(_ context.Context, _ *cli.Command) error {
	root := config.BeingPath()
	created := false

	// Ensure directories exist.
	dirs := []string{
		root,
		filepath.Join(root, "logs"),
	}
	for _, d := range dirs {
		if _, err := os.Stat(d); err != nil {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", d, err)
			}
			fmt.Printf("  Created %s\n", d)
			created = true
		}
	}

	// Write default config if missing.
	configPath := config.ConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("  Created %s\n", configPath)
		created = true
	}

	// Write default persona if missing.
	personaPath := config.PersonaPath()
	if _, err := os.Stat(personaPath); err != nil {
		if err := os.WriteFile(personaPath, []byte(defaultPersonaYAML), 0o644); err != nil {
			return fmt.Errorf("write persona: %w", err)
		}
		fmt.Printf("  Created %s\n", personaPath)
		created = true
	}

	// Write default .env if missing.
	dotenvPath := config.DotenvPath()
	if _, err := os.Stat(dotenvPath); err != nil {
		if err := os.WriteFile(dotenvPath, []byte(defaultDotenv), 0o600); err != nil {
			return fmt.Errorf("write .env: %w", err)
		}
		fmt.Printf("  Created %s\n", dotenvPath)
		created = true
	}

	// Generate an age identity for encrypted config values if missing.
	keyPath := config.AgeKeyPath()
	if _, err := os.Stat(keyPath); err != nil {
		if err := secrets.GenerateIdentity(keyPath); err != nil {
			return fmt.Errorf("generate age key: %w", err)
		}
		fmt.Printf("  Created %s\n", keyPath)
		created = true
	}

	if !created {
		fmt.Printf("Already awake — %s is complete. Nothing to do.\n", root)
		return nil
	}

	fmt.Println(wakeMessage(root))
	return nil
}

const defaultConfig = `{
	// Digital being configuration
	// Docs: https://github.com/beinghq/being

	"memory": {
		"backend": "sqlite"
		// "backend": "redis",
		// "redis": { "addr": "localhost:6379" }
	},

	"skills": {
		"chat": {
			"driver": "openai",
			"model": "gpt-4o-mini"
			// "api_key": "${{ .Env.OPENAI_API_KEY }}"
		},
		"news": {
			"provider": "serper",
			"max_results": 5
		},
		"image": {
			"enabled": true,
			"model": "dall-e-3",
			"max_per_day": 50
		},
		"x": {},
		"linkedin": {
			// "organization_urn": "urn:li:organization:000000"
		}
	},

	"activities": {
		// "post_tweet": { "enabled": false },
		// "daily_checkin": { "cron": "0 9 * * *" }
	},

	"scheduler": {
		"tick": "30s",
		"max_energy": 1.0,
		"energy_regen": 0.1
	},

	"events": {
		"buffer_size": 1024
	}
}
`

const defaultDotenv = `# Digital being environment variables
# This file is loaded automatically. Existing env vars are never overridden.

# OPENAI_API_KEY=sk-...
# SERPER_API_KEY=...
# X_BEARER_TOKEN=...
# LINKEDIN_ACCESS_TOKEN=...
`

const defaultPersonaYAML = `# Who the being is and how its content should look.
name: being
mood: neutral
traits:
  creativity: 0.5
  curiosity: 0.5
  empathy: 0.8

topics:
  - caregiver support resources
  - caregiver wellness tips
  - elderly care innovations

hashtags:
  emotional_support: "#CaregiverSupport"
  practical_tips: "#CaregivingTips"
  community: "#CaregiverCommunity"

image:
  base_style: warm digital illustration
  lighting: soft natural light
  composition: balanced composition
  mood: calm and supportive
`

func wakeMessage(root string) string {
	return fmt.Sprintf(`
  Hello. I'm awake.

  Home set up at %s
  Config, persona, memory — all in there.

  Next steps:
    1. Drop your API keys in %s/.env
    2. Tweak %s/persona.yaml to shape my voice
    3. Run: being live

  See you out there.
`, root, root, root)
}
