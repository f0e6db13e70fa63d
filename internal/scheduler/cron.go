package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// CronExpr wraps a parsed standard cron expression with minute-granularity
// matching, so the scheduler can ask "does this minute fire?" on every tick
// without drift.
type CronExpr struct {
	spec     string
	schedule cron.Schedule
}

// ParseCron parses a standard 5-field cron expression.
func ParseCron(spec string) (*CronExpr, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	return &CronExpr{spec: spec, schedule: schedule}, nil
}

// Matches reports whether the expression fires during t's minute.
func (c *CronExpr) Matches(t time.Time) bool {
	minute := t.Truncate(time.Minute)
	return c.schedule.Next(minute.Add(-time.Second)).Equal(minute)
}

// String returns the original expression.
func (c *CronExpr) String() string { return c.spec }
