package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/influxdata/cron"

	"github.com/rickgao/albion-omni/internal/config"
)

// ScheduleInfo describes one scheduled job.
type ScheduleInfo struct {
	Job      string    `json:"job"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"next_run,omitempty"`
}

type entry struct {
	job   string
	expr  string
	sched cron.Parsed
}

// Scheduler fires jobs on their cron schedules (UTC). Each job has its own
// loop; a fire that finds the job still running is skipped.
type Scheduler struct {
	runner  *Runner
	entries []entry
	logger  *slog.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	mu   sync.Mutex
	next map[string]time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler builds a schedule for every enabled job in jobs. Each job must
// be registered with runner.
func NewScheduler(runner *Runner, jobs map[string]config.JobConfig, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Scheduler{
		runner: runner,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
		next:   make(map[string]time.Time),
	}
	for _, name := range names {
		job := jobs[name]
		if job.Disabled {
			continue
		}
		if !runner.Has(name) {
			return nil, fmt.Errorf("schedule %q: %w", name, ErrUnknownJob)
		}
		sched, err := cron.ParseUTC(job.Schedule)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: parse %q: %w", name, job.Schedule, err)
		}
		s.entries = append(s.entries, entry{job: name, expr: job.Schedule, sched: sched})
	}
	return s, nil
}

// Start launches one loop per scheduled job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(e)
	}

	s.logger.Info("sync scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop cancels the loops and waits for in-flight runs to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedules returns each scheduled job with its next fire time.
func (s *Scheduler) Schedules() []ScheduleInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScheduleInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, ScheduleInfo{Job: e.job, Schedule: e.expr, NextRun: s.next[e.job]})
	}
	return out
}

func (s *Scheduler) loop(e entry) {
	defer s.wg.Done()

	for {
		next, err := e.sched.Next(s.now().UTC())
		if err != nil {
			s.logger.Error("no next fire time, job unscheduled", "job", e.job, "schedule", e.expr, "error", err)
			return
		}

		s.mu.Lock()
		s.next[e.job] = next
		s.mu.Unlock()

		if err := s.sleep(s.ctx, next.Sub(s.now())); err != nil {
			return
		}
		s.fire(e.job)
	}
}

func (s *Scheduler) fire(job string) {
	_, err := s.runner.Run(s.ctx, job)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyRunning):
		s.logger.Info("skipping overlapping sync run", "job", job)
	case s.ctx.Err() != nil:
		s.logger.Info("sync run interrupted by shutdown", "job", job)
	default:
		// Runner already logged the failure; the next fire retries.
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
