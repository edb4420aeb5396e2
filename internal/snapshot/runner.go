package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/albion-omni/internal/live"
	"github.com/rickgao/albion-omni/internal/metrics"
	"github.com/rickgao/albion-omni/internal/model"
)

// Errors
var (
	ErrAlreadyRunning = errors.New("sync job already running")
	ErrUnknownJob     = errors.New("unknown sync job")
)

// Run statuses stored in sync_runs.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// recordTimeout bounds the bookkeeping after a run (sync_runs write, cache
// invalidation), which outlives a cancelled run.
const recordTimeout = 10 * time.Second

// RunRecorder persists sync run history.
type RunRecorder interface {
	RecordSyncRun(ctx context.Context, run model.SyncRun) error
}

// CacheInvalidator drops cached entries by key prefix.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, prefix string) (int, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCacheInvalidator clears the region's cached database reads after
// every run that wrote rows.
func WithCacheInvalidator(c CacheInvalidator) RunnerOption {
	return func(r *Runner) { r.cache = c }
}

// JobStatus is the in-memory state of one job.
type JobStatus struct {
	Job     string         `json:"job"`
	Running bool           `json:"running"`
	LastRun *model.SyncRun `json:"last_run,omitempty"`
}

// Runner executes registered jobs, at most one run per job at a time.
type Runner struct {
	region    model.Region
	recorder  RunRecorder
	publisher Publisher
	cache     CacheInvalidator
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	jobs    map[string]Job
	order   []string
	running map[string]bool
	last    map[string]model.SyncRun
}

// NewRunner creates a Runner. recorder and publisher may be nil.
// A zero timeout leaves runs bounded only by the caller's context.
func NewRunner(region model.Region, recorder RunRecorder, publisher Publisher, timeout time.Duration, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		region:    region,
		recorder:  recorder,
		publisher: publisher,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
		jobs:      make(map[string]Job),
		running:   make(map[string]bool),
		last:      make(map[string]model.SyncRun),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds jobs. Names must be unique.
func (r *Runner) Register(jobs ...Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range jobs {
		name := job.Name()
		if _, ok := r.jobs[name]; ok {
			return fmt.Errorf("sync job %q registered twice", name)
		}
		r.jobs[name] = job
		r.order = append(r.order, name)
	}
	return nil
}

// Jobs returns the registered job names in registration order.
func (r *Runner) Jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Has reports whether a job is registered under name.
func (r *Runner) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[name]
	return ok
}

// Run executes the named job and returns its run record. The record is
// returned even when the job fails.
func (r *Runner) Run(ctx context.Context, name string) (model.SyncRun, error) {
	r.mu.Lock()
	job, ok := r.jobs[name]
	if !ok {
		r.mu.Unlock()
		return model.SyncRun{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	if r.running[name] {
		r.mu.Unlock()
		return model.SyncRun{}, fmt.Errorf("%w: %q", ErrAlreadyRunning, name)
	}
	r.running[name] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.running, name)
		r.mu.Unlock()
	}()

	run := model.SyncRun{
		ID:        uuid.NewString(),
		Job:       name,
		Region:    r.region,
		StartedAt: r.now().UTC(),
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.logger.Debug("sync job started", "job", name, "run", run.ID)
	res, err := job.Run(runCtx)

	run.FinishedAt = r.now().UTC()
	run.Fetched = res.Fetched
	run.Written = res.Written
	run.Skipped = res.Skipped
	run.Status = StatusSuccess
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	}
	duration := run.FinishedAt.Sub(run.StartedAt)

	metrics.RecordSyncRun(name, duration, res.Written, err)
	r.record(ctx, run)
	if res.Written > 0 {
		r.invalidate(ctx, name)
	}

	r.mu.Lock()
	r.last[name] = run
	r.mu.Unlock()

	publish(r.publisher, live.TopicSync, run, r.logger)

	if err != nil {
		r.logger.Warn("sync job failed",
			"job", name,
			"run", run.ID,
			"fetched", res.Fetched,
			"written", res.Written,
			"duration", duration,
			"error", err,
		)
		return run, fmt.Errorf("sync %s: %w", name, err)
	}

	r.logger.Info("sync job complete",
		"job", name,
		"run", run.ID,
		"fetched", res.Fetched,
		"written", res.Written,
		"skipped", res.Skipped,
		"duration", duration,
	)
	return run, nil
}

// RunAll runs every registered job in order and joins their errors.
func (r *Runner) RunAll(ctx context.Context) ([]model.SyncRun, error) {
	var runs []model.SyncRun
	var errs []error
	for _, name := range r.Jobs() {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		run, err := r.Run(ctx, name)
		if err != nil {
			errs = append(errs, err)
		}
		if run.ID != "" {
			runs = append(runs, run)
		}
	}
	return runs, errors.Join(errs...)
}

// Status returns every job's state in registration order.
func (r *Runner) Status() []JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]JobStatus, 0, len(r.order))
	for _, name := range r.order {
		st := JobStatus{Job: name, Running: r.running[name]}
		if run, ok := r.last[name]; ok {
			st.LastRun = &run
		}
		out = append(out, st)
	}
	return out
}

func (r *Runner) record(ctx context.Context, run model.SyncRun) {
	if r.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.recorder.RecordSyncRun(ctx, run); err != nil {
		r.logger.Error("failed to record sync run", "job", run.Job, "run", run.ID, "error", err)
	}
}

// invalidate drops the region's cached database reads. Partial writes from a
// failed run count too.
func (r *Runner) invalidate(ctx context.Context, job string) {
	if r.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	prefix := DatabaseCachePrefix(r.region)
	if _, err := r.cache.Invalidate(ctx, prefix); err != nil {
		r.logger.Warn("failed to invalidate cached reads", "job", job, "prefix", prefix, "error", err)
	}
}

// DatabaseCachePrefix is the cache key prefix of every database-backed read
// for region.
func DatabaseCachePrefix(region model.Region) string {
	return string(region) + ":db:"
}
