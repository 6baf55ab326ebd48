package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/tripler/model"
)

// ErrQueueFull is returned by Submit when the job queue has no room.
var ErrQueueFull = errors.New("job queue full")

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("worker pool closed")

// JobRecorder persists job lifecycle transitions. Status lives in the
// database so it survives process restarts.
type JobRecorder interface {
	InsertJob(job *model.Job) error
	UpdateJobStatus(id uuid.UUID, status model.JobStatus, jobError string) error
}

// JobFunc is the unit of background work.
type JobFunc func(ctx context.Context) error

type job struct {
	id  uuid.UUID
	run JobFunc
}

// Pool runs jobs on a fixed number of workers behind a bounded queue.
// Submit never blocks: when the queue is full the caller gets
// ErrQueueFull instead of an unbounded backlog.
type Pool struct {
	recorder JobRecorder
	log      *slog.Logger
	queue    chan job

	mu     sync.Mutex
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool starts a pool with the given worker count and queue capacity.
func NewPool(workers int, queueSize int, recorder JobRecorder, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		recorder: recorder,
		log:      logger,
		queue:    make(chan job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit queues a job and records it as queued. The returned id can be
// used to look the job's status up later.
func (p *Pool) Submit(kind string, metadata model.Metadata, run JobFunc) (uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return uuid.Nil, ErrPoolClosed
	}

	// The recorder assigns the job id on insert.
	record := &model.Job{
		Kind:     kind,
		Status:   model.JobStatusQueued,
		Metadata: metadata,
	}
	if err := p.recorder.InsertJob(record); err != nil {
		return uuid.Nil, err
	}

	select {
	case p.queue <- job{id: record.ID, run: run}:
		return record.ID, nil
	default:
		if err := p.recorder.UpdateJobStatus(record.ID, model.JobStatusFailed, ErrQueueFull.Error()); err != nil {
			p.log.Warn("Failed to record rejected job", slog.String("job", record.ID.String()), slog.String("error", err.Error()))
		}
		return uuid.Nil, ErrQueueFull
	}
}

// Shutdown stops accepting jobs, waits for queued jobs to drain and for
// running jobs to finish.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.queue {
		p.runJob(j)
	}
}

func (p *Pool) runJob(j job) {
	if err := p.recorder.UpdateJobStatus(j.id, model.JobStatusRunning, ""); err != nil {
		p.log.Warn("Failed to mark job running", slog.String("job", j.id.String()), slog.String("error", err.Error()))
	}

	if err := j.run(p.ctx); err != nil {
		p.log.Warn("Job failed", slog.String("job", j.id.String()), slog.String("error", err.Error()))
		if recordErr := p.recorder.UpdateJobStatus(j.id, model.JobStatusFailed, err.Error()); recordErr != nil {
			p.log.Warn("Failed to mark job failed", slog.String("job", j.id.String()), slog.String("error", recordErr.Error()))
		}
		return
	}

	if err := p.recorder.UpdateJobStatus(j.id, model.JobStatusCompleted, ""); err != nil {
		p.log.Warn("Failed to mark job completed", slog.String("job", j.id.String()), slog.String("error", err.Error()))
	}
}
