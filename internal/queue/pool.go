package queue

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"shelver/internal/logging"
	"shelver/internal/services"
)

var (
	// ErrQueueFull is returned when the queue buffer is at capacity.
	ErrQueueFull = errors.New("job queue is full")
	// ErrAlreadyQueued is returned when a job is enqueued a second time.
	ErrAlreadyQueued = errors.New("job already enqueued")
)

// Processor executes the worker-side pipeline for one job and returns the
// final library path.
type Processor interface {
	Process(ctx context.Context, job *Job) (string, error)
}

// Reporter receives terminal job outcomes. Implementations send the
// submitter-facing notification; failures to deliver are the implementation's
// problem and never affect the pool.
type Reporter interface {
	JobSucceeded(ctx context.Context, job *Job, finalPath string)
	JobFailed(ctx context.Context, job *Job, err error)
}

// ActiveJob pairs an in-flight job id with its last-known progress.
type ActiveJob struct {
	JobID   int64
	Percent int
}

// Status is a point-in-time snapshot of pool state.
type Status struct {
	Active []ActiveJob
	Queued int
}

// Pool dispatches admitted jobs to a fixed set of concurrent workers.
type Pool struct {
	jobs     chan *Job
	workers  int
	proc     Processor
	reporter Reporter
	progress *Tracker
	logger   *slog.Logger

	mu     sync.Mutex
	active map[int64]struct{}

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool constructs a worker pool. workers and capacity fall back to sane
// minimums when non-positive.
func NewPool(workers, capacity int, proc Processor, reporter Reporter, progress *Tracker, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = 16
	}
	if progress == nil {
		progress = NewTracker()
	}
	return &Pool{
		jobs:     make(chan *Job, capacity),
		workers:  workers,
		proc:     proc,
		reporter: reporter,
		progress: progress,
		logger:   logging.WithComponent(logger, "queue"),
		active:   make(map[int64]struct{}),
	}
}

// Progress exposes the pool's progress tracker.
func (p *Pool) Progress() *Tracker {
	return p.progress
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.running {
		return errors.New("worker pool already running")
	}
	if p.proc == nil {
		return errors.New("worker pool requires a processor")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.runWorker(runCtx, i)
	}
	p.logger.Info("worker pool started", logging.Int("workers", p.workers))
	return nil
}

// Stop terminates the workers and waits for in-flight jobs to finish their
// current cycle.
func (p *Pool) Stop() {
	p.runMu.Lock()
	if !p.running {
		p.runMu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.runMu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Enqueue admits a fully-populated job. It never blocks beyond trivial
// insertion cost; a full buffer is an error surfaced to the caller.
func (p *Pool) Enqueue(job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if err := job.Validate(); err != nil {
		return err
	}
	if !job.markQueued() {
		return ErrAlreadyQueued
	}
	select {
	case p.jobs <- job:
		p.logger.Info("job enqueued",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("category", string(job.Category)),
			logging.Int("queued", len(p.jobs)),
		)
		return nil
	default:
		return ErrQueueFull
	}
}

// Status reports active job ids with their progress plus the waiting count.
func (p *Pool) Status() Status {
	p.mu.Lock()
	ids := make([]int64, 0, len(p.active))
	for id := range p.active {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	status := Status{Queued: len(p.jobs), Active: make([]ActiveJob, 0, len(ids))}
	for _, id := range ids {
		percent, _ := p.progress.Get(id)
		status.Active = append(status.Active, ActiveJob{JobID: id, Percent: percent})
	}
	return status
}

func (p *Pool) runWorker(ctx context.Context, index int) {
	defer p.wg.Done()
	logger := p.logger.With(logging.Int("worker", index))
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.processOne(ctx, logger, job)
		}
	}
}

// processOne is the worker boundary: every pipeline error is caught here,
// logged once with the job id, and converted into a single failure report.
func (p *Pool) processOne(ctx context.Context, logger *slog.Logger, job *Job) {
	jobCtx := services.WithJobID(services.WithSubmitter(ctx, job.ChatID), job.ID)
	jobLogger := logging.WithContext(jobCtx, logger)

	p.markActive(job.ID)
	p.progress.Set(job.ID, 0)
	defer func() {
		p.unmarkActive(job.ID)
		p.progress.Remove(job.ID)
	}()

	jobLogger.Info("processing job", logging.String("category", string(job.Category)))
	finalPath, err := p.proc.Process(jobCtx, job)
	if err != nil {
		jobLogger.Error("job failed", logging.Error(err))
		if p.reporter != nil {
			p.reporter.JobFailed(jobCtx, job, err)
		}
		return
	}

	jobLogger.Info("job completed", logging.String("final_path", finalPath))
	if p.reporter != nil {
		p.reporter.JobSucceeded(jobCtx, job, finalPath)
	}
}

func (p *Pool) markActive(jobID int64) {
	p.mu.Lock()
	p.active[jobID] = struct{}{}
	p.mu.Unlock()
}

func (p *Pool) unmarkActive(jobID int64) {
	p.mu.Lock()
	delete(p.active, jobID)
	p.mu.Unlock()
}
