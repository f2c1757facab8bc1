// Package calendar schedules wall-clock maintenance work — the kind of
// job that belongs on a cron expression, not on a tick count — alongside,
// but entirely independent of, the tick-driven scheduler. A Calendar job
// runs on its own goroutine and is not subject to tick ordering,
// eligibility, or budget-overrun reporting.
package calendar

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is a named maintenance callback run on a cron expression.
type Job struct {
	Name string
	Expr string
	Fn   func(ctx context.Context) error
}

// OnJobError is invoked, synchronously on the goroutine that ran the job,
// whenever a job's Fn returns an error.
type OnJobError func(name string, err error)

// Calendar wraps a single robfig/cron scheduler. Unlike the tick
// scheduler, jobs here run concurrently with each other if their
// schedules overlap, and each invocation starts on its own goroutine, so a
// job whose previous invocation is still running is started again on
// schedule.
type Calendar struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	onError OnJobError
}

// New creates an empty Calendar. It does not start running jobs until
// Start is called.
func New(onError OnJobError) *Calendar {
	return &Calendar{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
		onError: onError,
	}
}

// Schedule adds job to the calendar, replacing any job of the same name.
// Safe to call before or after Start. An "@every" interval shorter than
// one second is rounded up to one second by cron.
func (c *Calendar) Schedule(job Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[job.Name]; exists {
		c.cron.Remove(c.entries[job.Name])
	}

	id, err := c.cron.AddFunc(job.Expr, func() {
		if err := job.Fn(context.Background()); err != nil && c.onError != nil {
			c.onError(job.Name, err)
		}
	})
	if err != nil {
		return err
	}
	c.entries[job.Name] = id
	return nil
}

// Cancel removes a previously scheduled job by name. A no-op if the name
// is unknown.
func (c *Calendar) Cancel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, exists := c.entries[name]; exists {
		c.cron.Remove(id)
		delete(c.entries, name)
	}
}

// Start begins running scheduled jobs.
func (c *Calendar) Start() { c.cron.Start() }

// Stop stops the cron loop and waits for any running job invocation to
// finish, bounded by ctx.
func (c *Calendar) Stop(ctx context.Context) error {
	stopCtx := c.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
