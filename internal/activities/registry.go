package activities

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the installed activities by name. Unlike the skill
// registry, registration here is strict: two activities competing for one
// name is a programming error, not a runtime condition to tolerate.
type Registry struct {
	mu         sync.RWMutex
	activities map[string]Activity
}

// NewRegistry creates an empty activity registry.
func NewRegistry() *Registry {
	return &Registry{
		activities: make(map[string]Activity),
	}
}

// Register adds an activity after validating its metadata. Duplicate names
// are rejected.
func (r *Registry) Register(a Activity) error {
	meta := a.Meta()
	if meta.Name == "" {
		return fmt.Errorf("activity has no name")
	}
	if meta.EnergyCost < 0 {
		return fmt.Errorf("activity %s: negative energy cost %v", meta.Name, meta.EnergyCost)
	}
	if meta.Cooldown < 0 {
		return fmt.Errorf("activity %s: negative cooldown %v", meta.Name, meta.Cooldown)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.activities[meta.Name]; exists {
		return fmt.Errorf("activity %s already registered", meta.Name)
	}
	r.activities[meta.Name] = a
	return nil
}

// Get returns the activity registered under name.
func (r *Registry) Get(name string) (Activity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.activities[name]
	return a, ok
}

// All returns every registered activity sorted by name.
func (r *Registry) All() []Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.activities))
	for name := range r.activities {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Activity, 0, len(names))
	for _, name := range names {
		out = append(out, r.activities[name])
	}
	return out
}
