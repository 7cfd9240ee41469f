package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"retail-assortment-optimizer/pkg/logger"
	"retail-assortment-optimizer/pkg/storage"
)

// RunFunc is one pipeline invocation. The scheduler does not know the
// pipeline's internals — it calls RunFunc, records the outcome, and
// feeds the circuit breaker.
type RunFunc func(ctx context.Context) error

// Schedule binds a cron expression to a named pipeline run, with its
// own blackout windows.
type Schedule struct {
	Name     string
	CronExpr string
	Blackout []BlackoutWindow
	Run      RunFunc
}

// Runner triggers pipeline runs on a cron schedule, gated by blackout
// windows and a run-health circuit breaker, recording every outcome to
// a RunHistory. Adapted from the teacher's use of robfig/cron/v3 for
// maintenance-window scheduling (pkg/scheduler/maintenance_window.go),
// generalized into an active trigger rather than a passive window
// check.
type Runner struct {
	cron     *cron.Cron
	blackout *BlackoutChecker
	breaker  *CircuitBreaker
	history  *storage.RunHistory
	log      *logger.Logger
}

// NewRunner builds a Runner with its own circuit breaker and run history.
func NewRunner() *Runner {
	return &Runner{
		cron:     cron.New(),
		blackout: NewBlackoutChecker(),
		breaker:  NewCircuitBreaker(),
		history:  storage.NewRunHistory(),
		log:      logger.WithComponent("scheduler"),
	}
}

// History exposes the runner's run history for inspection.
func (r *Runner) History() *storage.RunHistory { return r.history }

// Breaker exposes the runner's circuit breaker for inspection.
func (r *Runner) Breaker() *CircuitBreaker { return r.breaker }

// Add registers a Schedule, wiring its cron expression to a guarded
// invocation of s.Run.
func (r *Runner) Add(s Schedule) error {
	_, err := r.cron.AddFunc(s.CronExpr, func() {
		r.invoke(s)
	})
	return err
}

// Start begins the cron loop in the background.
func (r *Runner) Start() { r.cron.Start() }

// Stop halts the cron loop, waiting for in-flight jobs to finish.
func (r *Runner) Stop() context.Context { return r.cron.Stop() }

// RunNow executes a Schedule immediately, outside the cron loop —
// used by the CLI's "run once" path.
func (r *Runner) RunNow(ctx context.Context, s Schedule) error {
	return r.invoke(s)
}

func (r *Runner) invoke(s Schedule) error {
	now := time.Now()

	if !r.blackout.IsRunAllowed(s.Blackout, now) {
		r.log.Infof("schedule %s: skipped, inside a blackout window", s.Name)
		return nil
	}
	if !r.breaker.ShouldAllow(now) {
		r.log.Warnf("schedule %s: skipped, circuit breaker is open", s.Name)
		return nil
	}

	ctx := context.Background()
	err := s.Run(ctx)

	finished := time.Now()
	record := storage.RunRecord{
		ScheduleName: s.Name,
		StartedAt:    now,
		FinishedAt:   finished,
		Succeeded:    err == nil,
	}
	if err != nil {
		record.Error = err.Error()
		r.breaker.RecordFailure(finished, err)
		r.log.WithError(err).Errorf("schedule %s: run failed", s.Name)
	} else {
		r.breaker.RecordSuccess(finished)
		r.log.Infof("schedule %s: run completed in %s", s.Name, finished.Sub(now))
	}
	r.history.Add(record)
	return err
}
