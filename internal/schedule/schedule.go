package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// IsWeeklyRun reports whether t falls on the weekly digest day (Friday) in
// t's own location.
func IsWeeklyRun(t time.Time) bool {
	return t.Weekday() == time.Friday
}

// NextRun returns the first trigger of spec strictly after from, evaluated in loc.
func NextRun(spec string, loc *time.Location, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return sched.Next(from.In(loc)), nil
}

// Runner triggers a job on a cron schedule in a fixed timezone.
type Runner struct {
	cron *cron.Cron
	spec string
	loc  *time.Location
}

// NewRunner registers job under spec (standard five-field cron syntax or a
// descriptor such as @daily). The job receives the run context.
func NewRunner(ctx context.Context, spec string, loc *time.Location, job func(ctx context.Context)) (*Runner, error) {
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Runner{cron: c, spec: spec, loc: loc}, nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish.
func (r *Runner) Run(ctx context.Context) {
	r.cron.Start()

	if next, err := NextRun(r.spec, r.loc, time.Now()); err == nil {
		log.Info().
			Str("schedule", r.spec).
			Str("timezone", r.loc.String()).
			Time("next_run", next).
			Msg("Scheduler started")
	}

	<-ctx.Done()

	log.Info().Msg("Stopping scheduler, waiting for running job")
	<-r.cron.Stop().Done()
}
