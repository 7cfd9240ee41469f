package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBlackoutChecker_EmptyWindowsAlwaysAllows(t *testing.T) {
	c := NewBlackoutChecker()
	if !c.IsRunAllowed(nil, time.Now()) {
		t.Error("expected run allowed with no blackout windows")
	}
}

func TestBlackoutChecker_InvalidScheduleDoesNotBlock(t *testing.T) {
	c := NewBlackoutChecker()
	windows := []BlackoutWindow{{Name: "bad", Schedule: "not-a-cron", Duration: "1h"}}
	if !c.IsRunAllowed(windows, time.Now()) {
		t.Error("an invalid window definition should not itself block a run")
	}
}

func TestBlackoutChecker_Validate(t *testing.T) {
	c := NewBlackoutChecker()
	good := BlackoutWindow{Name: "peak", Schedule: "0 0 * * *", Duration: "2h", Timezone: "UTC"}
	if err := c.Validate(good); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	bad := BlackoutWindow{Name: "bad", Schedule: "nonsense", Duration: "2h"}
	if err := c.Validate(bad); err == nil {
		t.Error("Validate() error = nil, want error for bad cron schedule")
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(BreakerConfig{ErrorThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Hour})
	now := time.Now()

	cb.RecordFailure(now, errors.New("boom"))
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %v after 1 failure, want Closed", cb.State())
	}
	cb.RecordFailure(now, errors.New("boom again"))
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %v after 2 failures, want Open", cb.State())
	}
	if cb.ShouldAllow(now) {
		t.Error("ShouldAllow() = true while open and before timeout")
	}
}

func TestCircuitBreaker_HalfOpenThenCloses(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(BreakerConfig{ErrorThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Minute})
	now := time.Now()

	cb.RecordFailure(now, errors.New("boom"))
	if cb.State() != CircuitOpen {
		t.Fatalf("expected Open after 1 failure at threshold 1, got %v", cb.State())
	}

	later := now.Add(2 * time.Minute)
	if !cb.ShouldAllow(later) {
		t.Fatal("expected ShouldAllow() to transition to half-open after timeout")
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %v, want HalfOpen", cb.State())
	}

	cb.RecordSuccess(later)
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %v after 1 success (threshold 2), want still HalfOpen", cb.State())
	}
	cb.RecordSuccess(later)
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %v after 2 successes, want Closed", cb.State())
	}
}

func TestRunner_RunNowRecordsHistory(t *testing.T) {
	r := NewRunner()
	s := Schedule{
		Name:     "test-run",
		CronExpr: "0 0 * * *",
		Run: func(ctx context.Context) error {
			return nil
		},
	}

	if err := r.RunNow(context.Background(), s); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	recent := r.History().Recent("test-run", 5)
	if len(recent) != 1 || !recent[0].Succeeded {
		t.Errorf("expected one successful run recorded, got %+v", recent)
	}
}

func TestRunner_SkipsDuringBlackout(t *testing.T) {
	r := NewRunner()
	called := false
	// Fires every minute with a 90s window, so "now" always falls inside
	// the most recent match regardless of when the test runs.
	win := BlackoutWindow{Name: "always", Schedule: "* * * * *", Duration: "90s", Timezone: "UTC"}
	s := Schedule{
		Name:     "blacked-out",
		CronExpr: "0 0 * * *",
		Blackout: []BlackoutWindow{win},
		Run: func(ctx context.Context) error {
			called = true
			return nil
		},
	}
	_ = r.RunNow(context.Background(), s)
	if called {
		t.Error("expected Run to be skipped inside a long-running blackout window")
	}
}
