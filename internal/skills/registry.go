package skills

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry maps skill names to singleton client instances. Registration is
// tolerant: a skill whose constructor fails is logged and skipped, so the
// being keeps running with whatever skills are available.
type Registry struct {
	mu          sync.RWMutex
	skills      map[string]Skill
	initialized map[string]bool

	// OnInitialized, when set, is called once per skill the first time its
	// Initialize succeeds. Aliases count as their underlying skill.
	OnInitialized func(name string)
}

// NewRegistry creates an empty skill registry.
func NewRegistry() *Registry {
	return &Registry{
		skills:      make(map[string]Skill),
		initialized: make(map[string]bool),
	}
}

// Register adds a constructed skill under its own name. Re-registering a
// name replaces the previous instance.
func (r *Registry) Register(s Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[s.Name()] = s
}

// RegisterFunc builds a skill and registers it. A build error is logged as
// a warning and the skill is skipped; an optional skill being unavailable is
// not fatal and does not affect other registrations.
func (r *Registry) RegisterFunc(name string, build func() (Skill, error)) {
	s, err := build()
	if err != nil {
		slog.Warn("skills: could not register skill", "name", name, "error", err)
		return
	}
	r.Register(s)
}

// Alias makes alias resolve to the same instance as original. Aliases bind
// to the instance, not the name: re-registering original later does not
// re-point existing aliases, and only one level of indirection is
// guaranteed. A missing original is logged and skipped.
func (r *Registry) Alias(alias, original string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.skills[original]
	if !ok {
		slog.Warn("skills: cannot create alias, original not registered", "alias", alias, "original", original)
		return
	}
	r.skills[alias] = s
}

// Get returns the skill registered under name.
func (r *Registry) Get(name string) (Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.skills[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	return s, nil
}

// Initialize resolves name and runs the skill's Initialize, notifying
// OnInitialized the first time a skill comes up.
func (r *Registry) Initialize(ctx context.Context, name string) (Skill, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	first := !r.initialized[s.Name()]
	r.initialized[s.Name()] = true
	notify := r.OnInitialized
	r.mu.Unlock()

	if first && notify != nil {
		notify(s.Name())
	}
	return s, nil
}

// Has reports whether every named skill is registered.
func (r *Registry) Has(names ...string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range names {
		if _, ok := r.skills[name]; !ok {
			return false
		}
	}
	return true
}

// Names returns all registered skill names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// As resolves a skill by name and asserts its concrete type.
func As[T Skill](r *Registry, name string) (T, error) {
	var zero T

	s, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := s.(T)
	if !ok {
		return zero, fmt.Errorf("skill %s is %T, not %T", name, s, zero)
	}
	return t, nil
}
