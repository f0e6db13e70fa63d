// Package scheduler decides when activities run. Eligibility combines the
// activity's declared cooldown and energy cost with per-activity config
// overrides; an energy budget with linear regeneration spaces the runs out.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/beinghq/being/internal/activities"
	"github.com/beinghq/being/internal/config"
	"github.com/beinghq/being/internal/events"
	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/skills"
)

// ErrActivityRunning is returned by Trigger when the activity is already
// executing.
var ErrActivityRunning = errors.New("activity is already running")

// ErrUnknownActivity is returned by Trigger for names not in the registry.
var ErrUnknownActivity = errors.New("unknown activity")

// ErrTriggerNotAccepted is returned by Trigger when the activity does not
// declare the requested trigger type.
var ErrTriggerNotAccepted = errors.New("trigger type not accepted")

const lastRunKeyPrefix = "last_run:"

// entry is the scheduler's view of one registered activity.
type entry struct {
	activity activities.Activity
	meta     activities.Metadata
	enabled  bool
	cooldown time.Duration
	cron     *CronExpr // nil when the activity is purely cooldown-driven
}

// acceptsTrigger reports whether the activity declared the trigger type.
// "manual" is the operator override and is always accepted.
func (e *entry) acceptsTrigger(triggerType string) bool {
	if triggerType == "" || triggerType == "manual" {
		return true
	}
	for _, tag := range e.meta.Triggers {
		if tag == triggerType {
			return true
		}
	}
	return false
}

// ActivityStatus is a snapshot of one activity's scheduling state.
type ActivityStatus struct {
	Name     string        `json:"name"`
	Enabled  bool          `json:"enabled"`
	Running  bool          `json:"running"`
	Cooldown time.Duration `json:"cooldown"`
	Cron     string        `json:"cron,omitempty"`
	LastRun  time.Time     `json:"last_run,omitzero"`
}

// Status is a snapshot of the whole scheduler.
type Status struct {
	Energy     float64          `json:"energy"`
	MaxEnergy  float64          `json:"max_energy"`
	Activities []ActivityStatus `json:"activities"`
}

// Scheduler runs activities on a tick loop.
type Scheduler struct {
	cfg    config.SchedulerConfig
	skills *skills.Registry
	store  memory.Store
	bus    *events.Bus

	entries map[string]*entry

	mu        sync.Mutex
	energy    float64
	lastRegen time.Time
	lastRun   map[string]time.Time
	running   map[string]bool

	wg  sync.WaitGroup
	now func() time.Time
}

// New builds a scheduler over the registered activities, applying the
// per-activity config overrides. Invalid cron expressions are rejected here
// rather than discovered mid-loop.
func New(cfg config.SchedulerConfig, overrides map[string]config.ActivityConfig, reg *activities.Registry, sreg *skills.Registry, store memory.Store, bus *events.Bus) (*Scheduler, error) {
	s := &Scheduler{
		cfg:     cfg,
		skills:  sreg,
		store:   store,
		bus:     bus,
		entries: make(map[string]*entry),
		energy:  cfg.MaxEnergy,
		lastRun: make(map[string]time.Time),
		running: make(map[string]bool),
		now:     time.Now,
	}

	for _, a := range reg.All() {
		meta := a.Meta()
		e := &entry{
			activity: a,
			meta:     meta,
			enabled:  true,
			cooldown: meta.Cooldown,
		}
		if ov, ok := overrides[meta.Name]; ok {
			if ov.Enabled != nil {
				e.enabled = *ov.Enabled
			}
			if ov.Cooldown.Duration() > 0 {
				e.cooldown = ov.Cooldown.Duration()
			}
			if ov.Cron != "" {
				expr, err := ParseCron(ov.Cron)
				if err != nil {
					return nil, fmt.Errorf("activity %s: %w", meta.Name, err)
				}
				e.cron = expr
			}
		}
		s.entries[meta.Name] = e
	}
	return s, nil
}

// Run executes the tick loop until ctx is canceled, then waits for in-flight
// activities to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.loadLastRuns(ctx)

	s.mu.Lock()
	s.lastRegen = s.now()
	s.mu.Unlock()

	tick := s.cfg.Tick.Duration()
	if tick <= 0 {
		tick = 30 * time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	slog.Info("scheduler started", "tick", tick, "activities", len(s.entries))

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping, waiting for running activities")
			s.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Restore loads persisted scheduling state from the memory store. Run does
// this itself; inspection commands call it before reading Status.
func (s *Scheduler) Restore(ctx context.Context) {
	s.loadLastRuns(ctx)
}

// loadLastRuns restores cooldown state from the memory store, so restarts
// do not re-run everything at once.
func (s *Scheduler) loadLastRuns(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name := range s.entries {
		var ts string
		ok, err := s.store.Get(ctx, lastRunKeyPrefix+name, &ts)
		if err != nil {
			slog.Warn("could not restore last run", "activity", name, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			s.lastRun[name] = t
		}
	}
}

// tick regenerates energy and launches every eligible activity.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	s.regenerate(now)

	for name, e := range s.entries {
		if !s.claim(e, now) {
			continue
		}
		s.wg.Add(1)
		go func(name string, e *entry) {
			defer s.wg.Done()
			s.execute(ctx, e, &activities.SharedData{
				TriggerType: "schedule",
				Memory:      s.store,
			})
		}(name, e)
	}
}

func (s *Scheduler) regenerate(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := now.Sub(s.lastRegen)
	if elapsed <= 0 {
		return
	}
	s.lastRegen = now
	s.energy += s.cfg.EnergyRegen * elapsed.Minutes()
	if s.energy > s.cfg.MaxEnergy {
		s.energy = s.cfg.MaxEnergy
	}
}

// claim checks eligibility and, when eligible, marks the activity running
// and deducts its energy cost in one critical section. The single-flight
// guarantee lives here: a running activity is never claimed again.
func (s *Scheduler) claim(e *entry, now time.Time) bool {
	if !e.enabled {
		return false
	}
	if !s.skills.Has(e.meta.RequiredSkills...) {
		return false
	}
	if e.cron != nil && !e.cron.Matches(now) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running[e.meta.Name] {
		return false
	}
	if last, ok := s.lastRun[e.meta.Name]; ok && now.Sub(last) < e.cooldown {
		return false
	}
	if s.energy < e.meta.EnergyCost {
		return false
	}

	s.energy -= e.meta.EnergyCost
	s.running[e.meta.Name] = true
	return true
}

// execute runs one claimed activity and publishes its lifecycle events.
func (s *Scheduler) execute(ctx context.Context, e *entry, shared *activities.SharedData) activities.Result {
	name := e.meta.Name
	start := s.now()

	s.bus.Publish(events.NewEvent(events.EventActivityStarted, events.SourceScheduler, map[string]any{
		"activity": name,
		"trigger":  shared.TriggerType,
	}))

	result := activities.Safe(ctx, e.activity, shared)
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	s.running[name] = false
	s.lastRun[name] = start
	s.mu.Unlock()

	if err := s.store.Set(ctx, lastRunKeyPrefix+name, start.UTC().Format(time.RFC3339), 0); err != nil {
		slog.Warn("could not persist last run", "activity", name, "error", err)
	}

	switch {
	case result.Skipped:
		slog.Info("activity skipped", "activity", name, "reason", result.Reason)
		s.bus.Publish(events.NewEvent(events.EventActivitySkipped, events.SourceActivity, map[string]any{
			"activity": name,
			"reason":   result.Reason,
		}))
	case result.Success:
		slog.Info("activity completed", "activity", name, "elapsed", elapsed)
		s.bus.Publish(events.NewEvent(events.EventActivityCompleted, events.SourceActivity, map[string]any{
			"activity": name,
			"elapsed":  elapsed.String(),
			"data":     result.Data,
		}))
	default:
		slog.Error("activity failed", "activity", name, "error", result.Error, "elapsed", elapsed)
		s.bus.Publish(events.NewEvent(events.EventActivityFailed, events.SourceActivity, map[string]any{
			"activity": name,
			"error":    result.Error,
		}))
	}
	return result
}

// Trigger runs one activity immediately, bypassing cooldown and energy but
// not the single-flight guard. The trigger type must be one the activity
// declares; "manual" is always accepted. It blocks until the run finishes.
func (s *Scheduler) Trigger(ctx context.Context, name, triggerType string, triggerCtx map[string]any) (activities.Result, error) {
	e, ok := s.entries[name]
	if !ok {
		return activities.Result{}, fmt.Errorf("%w: %s", ErrUnknownActivity, name)
	}
	if !e.acceptsTrigger(triggerType) {
		return activities.Result{}, fmt.Errorf("%w: %s does not accept %q (accepts %v)",
			ErrTriggerNotAccepted, name, triggerType, e.meta.Triggers)
	}

	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		return activities.Result{}, fmt.Errorf("%w: %s", ErrActivityRunning, name)
	}
	s.running[name] = true
	s.mu.Unlock()

	if triggerType == "" {
		triggerType = "manual"
	}

	// Manual runs are rare and their events matter for inspection, so block
	// on the bus instead of dropping when the buffer is full.
	if err := s.bus.PublishAsync(ctx, events.NewEvent(events.EventScheduleTrigger, events.SourceScheduler, map[string]any{
		"activity": name,
		"trigger":  triggerType,
	})); err != nil {
		slog.Debug("trigger event not published", "activity", name, "error", err)
	}
	// Trigger context doubles as run inputs, so callers can pass values
	// like tweet_text without a second map.
	return s.execute(ctx, e, &activities.SharedData{
		TriggerType:    triggerType,
		TriggerContext: triggerCtx,
		Values:         triggerCtx,
		Memory:         s.store,
	}), nil
}

// Status returns a snapshot for inspection.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Energy:    s.energy,
		MaxEnergy: s.cfg.MaxEnergy,
	}
	for name, e := range s.entries {
		as := ActivityStatus{
			Name:     name,
			Enabled:  e.enabled,
			Running:  s.running[name],
			Cooldown: e.cooldown,
			LastRun:  s.lastRun[name],
		}
		if e.cron != nil {
			as.Cron = e.cron.String()
		}
		st.Activities = append(st.Activities, as)
	}
	sort.Slice(st.Activities, func(i, j int) bool {
		return st.Activities[i].Name < st.Activities[j].Name
	})
	return st
}
