// Package activities defines the units of autonomous behavior the scheduler
// runs. Every activity declares its metadata up front and returns a single
// Result shape regardless of how it finished.
package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/skills"
)

// Metadata is the declarative description of an activity: what it costs,
// how often it may run, and which skills it needs.
type Metadata struct {
	Name           string
	Description    string
	EnergyCost     float64
	Cooldown       time.Duration
	RequiredSkills []string
	Triggers       []string // external trigger types this activity accepts
}

// SharedData carries per-run inputs and the shared memory store into an
// activity execution.
type SharedData struct {
	TriggerType    string
	TriggerContext map[string]any
	Values         map[string]any // ad-hoc inputs, e.g. tweet_text
	Memory         memory.Store
}

// Value returns a string input by key, or "" when absent.
func (d *SharedData) Value(key string) string {
	if d == nil || d.Values == nil {
		return ""
	}
	s, _ := d.Values[key].(string)
	return s
}

// Result is the uniform outcome of an activity run. A skipped run is a
// successful run that chose to do nothing; Reason says why.
type Result struct {
	Success bool           `json:"success"`
	Skipped bool           `json:"skipped,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Meta    map[string]any `json:"metadata,omitempty"`
}

// Ok returns a successful result carrying data.
func Ok(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// Skip returns a successful result that performed no work.
func Skip(reason string) Result {
	return Result{Success: true, Skipped: true, Reason: reason}
}

// Fail returns a failed result carrying the error text.
func Fail(err error) Result {
	return Result{Error: err.Error()}
}

// Failf returns a failed result with a formatted error.
func Failf(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// WithMeta attaches a metadata entry to the result.
func (r Result) WithMeta(key string, value any) Result {
	if r.Meta == nil {
		r.Meta = make(map[string]any)
	}
	r.Meta[key] = value
	return r
}

// Activity is one unit of behavior.
type Activity interface {
	Meta() Metadata
	Execute(ctx context.Context, shared *SharedData) Result
}

// Safe runs an activity and converts panics and nil inputs into failed
// results, so a single broken activity never takes the being down.
func Safe(ctx context.Context, a Activity, shared *SharedData) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("activity panicked",
				"activity", a.Meta().Name,
				"panic", r,
				"stack", string(debug.Stack()))
			res = Failf("activity %s panicked: %v", a.Meta().Name, r)
		}
	}()

	if shared == nil {
		shared = &SharedData{}
	}
	if shared.Values == nil {
		shared.Values = make(map[string]any)
	}
	return a.Execute(ctx, shared)
}

// initSkills initializes every named skill, returning a failed result
// naming the first skill that could not come up. A nil error means all
// skills are ready.
func initSkills(ctx context.Context, reg *skills.Registry, names ...string) *Result {
	for _, name := range names {
		if _, err := reg.Initialize(ctx, name); err != nil {
			if errors.Is(err, skills.ErrSkillNotFound) {
				r := Failf("required skill %s is not registered", name)
				return &r
			}
			r := Failf("skill %s failed to initialize: %v", name, err)
			return &r
		}
	}
	return nil
}
