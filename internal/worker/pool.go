package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/martinsuchenak/rackseed/internal/log"
)

var ErrPoolStopped = errors.New("worker pool stopped")

// WorkerPool runs jobs on a fixed number of workers. A pool of one worker
// serializes every job that writes to the store.
type WorkerPool struct {
	maxWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once
}

// Job represents a unit of work
type Job struct {
	ID      string
	Name    string
	Handler func(context.Context) error
	Result  chan error
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		maxWorkers: maxWorkers,
		jobs:       make(chan Job, 16),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the worker pool
func (p *WorkerPool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Info("Worker pool started", "workers", p.maxWorkers)
}

// Stop cancels running jobs and waits for the workers to exit
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
		log.Info("Worker pool stopped")
	})
}

// Submit queues a job without waiting for it
func (p *WorkerPool) Submit(job Job) error {
	if p.ctx.Err() != nil {
		return ErrPoolStopped
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return ErrPoolStopped
	}
}

// Do queues handler and waits for its result or for ctx to end. A job that
// already started keeps running when ctx ends; only the pool cancels it.
func (p *WorkerPool) Do(ctx context.Context, name string, handler func(context.Context) error) error {
	if p.ctx.Err() != nil {
		return ErrPoolStopped
	}
	result := make(chan error, 1)
	job := Job{ID: uuid.NewString(), Name: name, Handler: handler, Result: result}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolStopped
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobs:
			log.Debug("Worker executing job", "worker_id", id, "job_id", job.ID, "job", job.Name)

			err := job.Handler(p.ctx)
			if err != nil {
				log.Warn("Job failed", "job_id", job.ID, "job", job.Name, "error", err)
			}
			if job.Result != nil {
				job.Result <- err
			}
		}
	}
}
