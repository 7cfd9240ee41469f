// Package scheduler gates and triggers pipeline runs: a blackout-window
// checker (adapted from the teacher's MaintenanceWindowChecker), a
// run-health circuit breaker (adapted from the teacher's safety.CircuitBreaker),
// and a cron-driven Runner. All three are grounded in
// pkg/scheduler/maintenance_window.go and pkg/safety/circuit_breaker.go,
// generalized away from the teacher's Kubernetes OptimizerConfig CRD
// toward plain Go structs a batch pipeline can own directly.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"retail-assortment-optimizer/pkg/logger"
)

// BlackoutWindow names a recurring period during which the pipeline must
// not run — e.g. peak sales weeks, or a retailer's own maintenance
// window. Schedule is a standard 5-field cron expression naming the
// window's start; Duration is how long the window lasts from each
// matched start.
type BlackoutWindow struct {
	Name     string
	Schedule string
	Duration string
	Timezone string
}

// BlackoutChecker evaluates BlackoutWindows against the wall clock.
type BlackoutChecker struct {
	parser cron.Parser
	log    *logger.Logger
}

// NewBlackoutChecker returns a checker using the standard 5-field cron parser.
func NewBlackoutChecker() *BlackoutChecker {
	return &BlackoutChecker{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		log:    logger.WithComponent("scheduler"),
	}
}

// IsRunAllowed reports whether now falls outside every blackout window.
// An empty window list always allows the run.
func (c *BlackoutChecker) IsRunAllowed(windows []BlackoutWindow, now time.Time) bool {
	for _, w := range windows {
		if c.inWindow(w, now) {
			return false
		}
	}
	return true
}

// NextAllowedRun returns the earliest time at or after now when no
// blackout window is active, scanning forward in 15-minute steps up to
// a week out.
func (c *BlackoutChecker) NextAllowedRun(windows []BlackoutWindow, now time.Time) time.Time {
	candidate := now
	deadline := now.Add(7 * 24 * time.Hour)
	for candidate.Before(deadline) {
		if c.IsRunAllowed(windows, candidate) {
			return candidate
		}
		candidate = candidate.Add(15 * time.Minute)
	}
	return deadline
}

func (c *BlackoutChecker) inWindow(w BlackoutWindow, now time.Time) bool {
	location, err := c.location(w.Timezone)
	if err != nil {
		c.log.Warnf("blackout window %s: invalid timezone %s, using UTC: %v", w.Name, w.Timezone, err)
		location = time.UTC
	}
	nowInTz := now.In(location)

	schedule, err := c.parser.Parse(w.Schedule)
	if err != nil {
		c.log.Warnf("blackout window %s: invalid cron schedule %s: %v", w.Name, w.Schedule, err)
		return false
	}

	duration, err := time.ParseDuration(w.Duration)
	if err != nil {
		c.log.Warnf("blackout window %s: invalid duration %s: %v", w.Name, w.Duration, err)
		return false
	}

	lastStart := schedule.Next(nowInTz.Add(-duration - time.Minute))
	for lastStart.Before(nowInTz) {
		windowEnd := lastStart.Add(duration)
		if nowInTz.After(lastStart) && nowInTz.Before(windowEnd) {
			return true
		}
		lastStart = schedule.Next(lastStart)
	}
	return false
}

func (c *BlackoutChecker) location(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(timezone)
}

// Validate checks a BlackoutWindow's schedule, duration, and timezone
// parse cleanly, without evaluating it against the clock.
func (c *BlackoutChecker) Validate(w BlackoutWindow) error {
	if _, err := c.parser.Parse(w.Schedule); err != nil {
		return fmt.Errorf("blackout window %s: invalid cron schedule %s: %w", w.Name, w.Schedule, err)
	}
	if _, err := time.ParseDuration(w.Duration); err != nil {
		return fmt.Errorf("blackout window %s: invalid duration %s: %w", w.Name, w.Duration, err)
	}
	if w.Timezone != "" {
		if _, err := time.LoadLocation(w.Timezone); err != nil {
			return fmt.Errorf("blackout window %s: invalid timezone %s: %w", w.Name, w.Timezone, err)
		}
	}
	return nil
}
