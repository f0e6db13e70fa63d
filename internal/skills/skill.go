// Package skills wraps each external API behind a uniform client interface
// and provides the registry activities resolve them from.
package skills

import (
	"context"
	"errors"
)

// Skill is a named client for one external API. Construction must be
// side-effect-light: credentials and connectivity are resolved in
// Initialize, which is idempotent and safe to call before every use.
type Skill interface {
	Name() string
	Initialize(ctx context.Context) error
}

var (
	// ErrSkillNotFound is returned by registry lookups for unknown names.
	ErrSkillNotFound = errors.New("skill not found")
	// ErrNotInitialized is returned by action methods called before a
	// successful Initialize.
	ErrNotInitialized = errors.New("skill not initialized")
)
