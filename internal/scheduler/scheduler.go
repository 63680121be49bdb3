// Package scheduler runs named, independently-triggered periodic jobs.
// Triggers are cron-like tuples of (hour, minute, second) where each field
// is either a literal value or the Any wildcard. Jobs are registered once
// during process initialization and run for the process lifetime.
//
// Isolation guarantees:
//   - A job that returns an error or panics is logged and never prevents
//     other jobs, or future runs of itself, from firing.
//   - Two instances of the same job never run concurrently: a firing that
//     arrives while the previous run is still going is skipped, not
//     queued.
//   - Jobs share no state other than the stores they call into.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Any is the wildcard trigger field: the job fires for every value of
// that unit.
const Any = -1

// Trigger describes when a job fires. Each field is a literal clock value
// or Any. The zero value (0,0,0) fires once a day at midnight.
type Trigger struct {
	Hour   int // 0..23 or Any
	Minute int // 0..59 or Any
	Second int // 0..59 or Any
}

// Matches reports whether the trigger is due at t, with t truncated to
// whole seconds.
func (tr Trigger) Matches(t time.Time) bool {
	return (tr.Hour == Any || tr.Hour == t.Hour()) &&
		(tr.Minute == Any || tr.Minute == t.Minute()) &&
		(tr.Second == Any || tr.Second == t.Second())
}

// Validate rejects trigger fields outside their clock range.
func (tr Trigger) Validate() error {
	if tr.Hour != Any && (tr.Hour < 0 || tr.Hour > 23) {
		return fmt.Errorf("trigger hour %d out of range", tr.Hour)
	}
	if tr.Minute != Any && (tr.Minute < 0 || tr.Minute > 59) {
		return fmt.Errorf("trigger minute %d out of range", tr.Minute)
	}
	if tr.Second != Any && (tr.Second < 0 || tr.Second > 59) {
		return fmt.Errorf("trigger second %d out of range", tr.Second)
	}
	return nil
}

// JobFunc is the work a job performs. The context is the scheduler's run
// context; it is canceled when the scheduler stops.
type JobFunc func(ctx context.Context) error

type job struct {
	name    string
	trigger Trigger
	fn      JobFunc
	running sync.Mutex // held while the job executes; TryLock gates overlap
}

// Scheduler evaluates registered jobs once per second and runs the due
// ones, each in its own goroutine. Construct with New, register with Add,
// then call Start exactly once.
type Scheduler struct {
	log  zerolog.Logger
	tick time.Duration

	mu      sync.Mutex
	jobs    []*job
	started bool
	wg      sync.WaitGroup
}

// New returns a Scheduler that logs through lg. The registration list is
// assembled by the caller during initialization and handed over via Add;
// there is no process-global instance.
func New(lg zerolog.Logger) *Scheduler {
	return &Scheduler{log: lg, tick: time.Second}
}

// Add registers a named job. Names must be unique; registering after
// Start, a duplicate name, or an invalid trigger is an error.
func (s *Scheduler) Add(name string, trigger Trigger, fn JobFunc) error {
	if err := trigger.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	for _, j := range s.jobs {
		if j.name == name {
			return fmt.Errorf("job %q already registered", name)
		}
	}
	s.jobs = append(s.jobs, &job{name: name, trigger: trigger, fn: fn})
	return nil
}

// Start launches the ticker loop in a background goroutine. It is
// idempotent: subsequent calls are no-ops. The loop exits when ctx is
// canceled; Wait blocks until in-flight jobs drain.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the run loop and all in-flight jobs have finished.
// Call after canceling the context passed to Start.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopping")
			return
		case now := <-ticker.C:
			for _, j := range s.jobs {
				if j.trigger.Matches(now) {
					s.fire(ctx, j)
				}
			}
		}
	}
}

// fire runs a due job in its own goroutine. If the previous run of the
// same job still holds its lock, this firing is skipped.
func (s *Scheduler) fire(ctx context.Context, j *job) {
	if !j.running.TryLock() {
		s.log.Warn().Str("job", j.name).Msg("previous run still in progress, skipping")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer j.running.Unlock()
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Str("job", j.name).Interface("panic", rec).Msg("job panicked")
			}
		}()

		start := time.Now()
		if err := j.fn(ctx); err != nil {
			s.log.Error().Str("job", j.name).Err(err).Dur("took", time.Since(start)).Msg("job failed")
			return
		}
		s.log.Info().Str("job", j.name).Dur("took", time.Since(start)).Msg("job finished")
	}()
}
