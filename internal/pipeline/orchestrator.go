package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/tablegest/internal/store"
)

// ErrQueueFull is returned by Submit when the job queue has no room.
var ErrQueueFull = errors.New("job queue is full")

// Options sizes the orchestrator.
type Options struct {
	WorkerCount       int
	MaxQueueSize      int
	MaxConcurrentDocs int
	JobTTL            time.Duration
}

// Orchestrator runs documents through a Processor, either synchronously
// via Run or from a queue drained by background workers. Both paths share
// one limit on documents in flight.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	sem   chan struct{}
	proc  *Processor
	log   *slog.Logger
	opts  Options

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOrchestrator(opts Options, proc *Processor, log *slog.Logger) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 4
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 100
	}
	if opts.MaxConcurrentDocs <= 0 {
		opts.MaxConcurrentDocs = opts.WorkerCount
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:  NewJobStore(opts.JobTTL),
		queue: make(chan *Job, opts.MaxQueueSize),
		sem:   make(chan struct{}, opts.MaxConcurrentDocs),
		proc:  proc,
		log:   log,
		opts:  opts,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.opts.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.Run(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Queued jobs that no worker
// picked up stay queued.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Run processes job on the calling goroutine once a document slot is free.
func (o *Orchestrator) Run(ctx context.Context, job *Job) (*store.Record, error) {
	select {
	case o.sem <- struct{}{}:
	case <-ctx.Done():
		job.AddError(ctx.Err().Error())
		job.SetStatus(StatusFailed, "queued")
		return nil, ctx.Err()
	}
	defer func() { <-o.sem }()
	return o.proc.Process(ctx, job)
}

// Submit registers job and queues it for the background workers.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "shutdown")
		return fmt.Errorf("orchestrator stopped")
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.opts.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
