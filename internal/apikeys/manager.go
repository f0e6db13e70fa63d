// Package apikeys resolves API credentials for skills.
//
// Resolution order for a key: explicit config value (decrypting ENC[age:...]
// blobs when an identity is available), then BEING_<NAME>, then <NAME> from
// the environment. Skills declare required keys up front so a missing
// credential surfaces at Initialize, not mid-action.
package apikeys

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"filippo.io/age"

	"github.com/beinghq/being/internal/secrets"
)

// ErrKeyMissing is returned when no source yields a value for a key.
var ErrKeyMissing = errors.New("api key not configured")

// Manager resolves named credentials for skills.
type Manager struct {
	mu       sync.RWMutex
	values   map[string]string   // explicit values from config, keyed by name
	required map[string][]string // skill name -> required key names
	identity *age.X25519Identity // nil when no key file exists
}

// NewManager creates a Manager. identityPath may point at a missing file;
// encrypted values then fail to resolve with a descriptive error.
func NewManager(identityPath string) *Manager {
	m := &Manager{
		values:   make(map[string]string),
		required: make(map[string][]string),
	}

	if identityPath != "" {
		id, err := secrets.LoadIdentity(identityPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("apikeys: could not load age identity", "path", identityPath, "error", err)
			}
		} else {
			m.identity = id
		}
	}
	return m
}

// SetValue registers an explicit config-sourced value for a key name.
// Empty values are ignored.
func (m *Manager) SetValue(name, value string) {
	if value == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[strings.ToUpper(name)] = value
}

// RegisterRequired declares the keys a skill needs. Used by `being status`
// to report which skills are usable before anything runs.
func (m *Manager) RegisterRequired(skill string, names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.required[skill] = append(m.required[skill], names...)
}

// Required returns the declared key names for a skill.
func (m *Manager) Required(skill string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.required[skill]...)
}

// Resolve returns the credential value for name, for use by the named skill.
func (m *Manager) Resolve(skill, name string) (string, error) {
	name = strings.ToUpper(name)

	m.mu.RLock()
	v, ok := m.values[name]
	identity := m.identity
	m.mu.RUnlock()

	if ok {
		if secrets.IsEncrypted(v) {
			if identity == nil {
				return "", fmt.Errorf("%s for %s is encrypted but no age key is available", name, skill)
			}
			plain, err := secrets.Decrypt(v, identity)
			if err != nil {
				return "", fmt.Errorf("decrypt %s for %s: %w", name, skill, err)
			}
			return plain, nil
		}
		return v, nil
	}

	if v := os.Getenv("BEING_" + name); v != "" {
		return v, nil
	}
	if v := os.Getenv(name); v != "" {
		return v, nil
	}

	return "", fmt.Errorf("%w: %s (skill %s)", ErrKeyMissing, name, skill)
}
