package config

import (
	"os"
	"path/filepath"
)

// BeingPath returns the root directory for the being's data.
// It uses $BEING_PATH if set, otherwise defaults to ~/.being.
func BeingPath() string {
	if v := os.Getenv("BEING_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".being")
	}
	return filepath.Join(home, ".being")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(BeingPath(), "config.jsonc")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(BeingPath(), ".env")
}

// MemoryDBPath returns the default sqlite memory store path.
func MemoryDBPath() string {
	return filepath.Join(BeingPath(), "memory.db")
}

// PersonaPath returns the default persona definition path.
func PersonaPath() string {
	return filepath.Join(BeingPath(), "persona.yaml")
}

// AgeKeyPath returns the default age key file path.
func AgeKeyPath() string {
	return filepath.Join(BeingPath(), ".age-key")
}
