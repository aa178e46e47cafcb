// internal/app/system/jobrunner/runner.go
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	jobstore "filedepot/internal/app/store/jobs"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobHandler processes a job payload. Returning a *PermanentError
// fails the job without further retries; any other error lets the
// queue's retry policy reschedule it.
type JobHandler func(ctx context.Context, payload map[string]any) error

// PermanentError marks a failure that retrying can never fix, such as
// a malformed payload or a source record that no longer exists.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the runner fails the job without retrying.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// Config holds configuration for the job runner.
type Config struct {
	// WorkerCount is the number of concurrent workers per queue.
	WorkerCount int

	// PollInterval is how often to poll for new jobs.
	PollInterval time.Duration

	// RetryDelay is the base delay before retrying a failed job.
	// Actual delay is RetryDelay * attempts.
	RetryDelay time.Duration

	// MaxAttempts bounds retries per job so persistent failures cannot
	// loop forever.
	MaxAttempts int

	// StaleJobThreshold is how long a job can be "running" before it is
	// considered abandoned and re-queued.
	StaleJobThreshold time.Duration

	// CleanupInterval is how often to run cleanup tasks.
	CleanupInterval time.Duration

	// JobRetention is how long to keep completed jobs.
	JobRetention time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount:       2,
		PollInterval:      time.Second,
		RetryDelay:        5 * time.Second,
		MaxAttempts:       3,
		StaleJobThreshold: 5 * time.Minute,
		CleanupInterval:   time.Hour,
		JobRetention:      7 * 24 * time.Hour,
	}
}

// Runner manages job processing across registered queues.
type Runner struct {
	store    *jobstore.Store
	handlers map[string]JobHandler
	config   Config
	logger   *zap.Logger

	workerID   string
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	running    atomic.Int32
	activeJobs sync.Map // jobID -> struct{}

	mu      sync.RWMutex
	queues  map[string]bool
	started bool
}

// New creates a new job runner.
func New(store *jobstore.Store, logger *zap.Logger, config ...Config) *Runner {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return &Runner{
		store:    store,
		handlers: make(map[string]JobHandler),
		config:   cfg,
		logger:   logger,
		workerID: uuid.New().String()[:8],
		queues:   make(map[string]bool),
	}
}

// Register registers a handler for a job type.
func (r *Runner) Register(jobType string, handler JobHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handler
}

// AddQueue registers a queue name for processing.
func (r *Runner) AddQueue(queueName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[queueName] = true
}

// Enqueue adds a job to be processed, using the runner's retry bound.
func (r *Runner) Enqueue(ctx context.Context, queueName, jobType string, payload map[string]any) (jobstore.Job, error) {
	return r.store.Enqueue(ctx, queueName, jobType, payload, r.config.MaxAttempts)
}

// Start begins processing jobs on all registered queues.
func (r *Runner) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("runner already started")
	}
	r.started = true

	queues := make([]string, 0, len(r.queues))
	for q := range r.queues {
		queues = append(queues, q)
	}
	r.mu.Unlock()

	if len(queues) == 0 {
		r.logger.Warn("job runner started with no queues registered")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, queueName := range queues {
		for i := 0; i < r.config.WorkerCount; i++ {
			r.wg.Add(1)
			workerName := fmt.Sprintf("%s-%s-%d", r.workerID, queueName, i)
			go r.worker(ctx, queueName, workerName)
		}
	}

	r.wg.Add(1)
	go r.cleanup(ctx)

	r.logger.Info("job runner started",
		zap.Int("queues", len(queues)),
		zap.Int("workers_per_queue", r.config.WorkerCount),
		zap.Strings("queue_names", queues))

	return nil
}

// Stop gracefully stops the runner and waits for active jobs to complete.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("job runner stopped gracefully")
		return nil
	case <-ctx.Done():
		var activeJobs []string
		r.activeJobs.Range(func(key, _ any) bool {
			activeJobs = append(activeJobs, key.(string))
			return true
		})
		r.logger.Warn("job runner shutdown timed out",
			zap.Int32("active_jobs", r.running.Load()),
			zap.Strings("job_ids", activeJobs))
		return ctx.Err()
	}
}

// worker processes jobs from a single queue.
func (r *Runner) worker(ctx context.Context, queueName, workerName string) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("worker stopping", zap.String("worker", workerName))
			return
		case <-ticker.C:
			r.processNextJob(ctx, queueName, workerName)
		}
	}
}

// processNextJob claims and processes the next available job.
func (r *Runner) processNextJob(ctx context.Context, queueName, workerName string) {
	claimCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	job, err := r.store.ClaimNext(claimCtx, queueName, workerName)
	cancel()

	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("failed to claim job",
				zap.String("queue", queueName),
				zap.Error(err))
		}
		return
	}
	if job == nil {
		return // No jobs available
	}

	r.running.Add(1)
	r.activeJobs.Store(job.ID.Hex(), struct{}{})
	defer func() {
		r.running.Add(-1)
		r.activeJobs.Delete(job.ID.Hex())
	}()

	r.mu.RLock()
	handler, ok := r.handlers[job.JobType]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error("no handler registered for job type",
			zap.String("job_type", job.JobType),
			zap.String("job_id", job.ID.Hex()))
		failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.store.FailPermanent(failCtx, job.ID, fmt.Sprintf("no handler for job type: %s", job.JobType))
		cancel()
		return
	}

	start := time.Now()
	r.logger.Debug("processing job",
		zap.String("job_id", job.ID.Hex()),
		zap.String("job_type", job.JobType),
		zap.Int("attempt", job.Attempts))

	jobCtx, jobCancel := context.WithTimeout(ctx, r.config.StaleJobThreshold)
	err = handler(jobCtx, job.Payload)
	jobCancel()

	duration := time.Since(start)

	if err != nil {
		failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var perm *PermanentError
		if errors.As(err, &perm) {
			r.logger.Warn("job failed permanently",
				zap.String("job_id", job.ID.Hex()),
				zap.String("job_type", job.JobType),
				zap.Duration("duration", duration),
				zap.Error(err))
			if failErr := r.store.FailPermanent(failCtx, job.ID, err.Error()); failErr != nil {
				r.logger.Error("failed to mark job as failed",
					zap.String("job_id", job.ID.Hex()),
					zap.Error(failErr))
			}
			return
		}

		retryDelay := r.config.RetryDelay * time.Duration(job.Attempts)
		r.logger.Warn("job failed",
			zap.String("job_id", job.ID.Hex()),
			zap.String("job_type", job.JobType),
			zap.Int("attempt", job.Attempts),
			zap.Int("max_attempts", job.MaxAttempts),
			zap.Duration("duration", duration),
			zap.Error(err))
		if failErr := r.store.Fail(failCtx, job.ID, err.Error(), retryDelay); failErr != nil {
			r.logger.Error("failed to mark job as failed",
				zap.String("job_id", job.ID.Hex()),
				zap.Error(failErr))
		}
		return
	}

	r.logger.Info("job completed",
		zap.String("job_id", job.ID.Hex()),
		zap.String("job_type", job.JobType),
		zap.Duration("duration", duration))

	completeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := r.store.Complete(completeCtx, job.ID); err != nil {
		r.logger.Error("failed to mark job as completed",
			zap.String("job_id", job.ID.Hex()),
			zap.Error(err))
	}
	cancel()
}

// cleanup runs periodic queue maintenance.
func (r *Runner) cleanup(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	r.runCleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runCleanup(ctx)
		}
	}
}

// runCleanup re-queues stale running jobs and prunes old completed ones.
func (r *Runner) runCleanup(ctx context.Context) {
	staleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	count, err := r.store.CleanupStaleRunning(staleCtx, r.config.StaleJobThreshold)
	cancel()
	if err != nil {
		r.logger.Error("failed to cleanup stale jobs", zap.Error(err))
	} else if count > 0 {
		r.logger.Info("re-queued stale running jobs", zap.Int64("count", count))
	}

	cutoff := time.Now().Add(-r.config.JobRetention)
	deleteCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	deleted, err := r.store.DeleteOlderThan(deleteCtx, cutoff)
	cancel()
	if err != nil {
		r.logger.Error("failed to delete old jobs", zap.Error(err))
	} else if deleted > 0 {
		r.logger.Info("deleted old completed jobs", zap.Int64("count", deleted))
	}
}
