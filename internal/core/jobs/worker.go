package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrQueueFull is returned by Enqueue when the pending buffer is at
// capacity.
var ErrQueueFull = errors.New("job queue is full")

// Pool processes jobs on a fixed number of worker goroutines.
type Pool struct {
	config   Config
	queue    chan *Job
	handlers map[string]Handler
	logger   zerolog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a worker pool. Handlers must be registered before Start.
func NewPool(config Config) *Pool {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Pool{
		config:   config,
		queue:    make(chan *Job, config.QueueSize),
		handlers: make(map[string]Handler),
		logger:   log.With().Str("component", "jobs").Logger(),
	}
}

// RegisterHandler registers the handler for one job type.
func (p *Pool) RegisterHandler(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[handler.Type()] = handler
	p.logger.Info().Str("type", handler.Type()).Msg("registered job handler")
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return fmt.Errorf("pool is stopped, cannot restart")
	}
	if p.started {
		return fmt.Errorf("pool already started")
	}
	p.started = true

	for i := 0; i < p.config.Concurrency; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i+1)
	}
	p.logger.Info().Int("workers", p.config.Concurrency).Msg("worker pool started")
	return nil
}

// Enqueue submits a job, failing fast when the buffer is full so a burst of
// work never stalls message intake.
func (p *Pool) Enqueue(jobType string, userID int64) (*Job, error) {
	job := &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		EnqueuedAt: time.Now(),
	}
	select {
	case p.queue <- job:
		return job, nil
	default:
		return nil, ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("worker pool stopped")
}

func (p *Pool) runWorker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, workerID, job)
		}
	}
}

func (p *Pool) process(ctx context.Context, workerID int, job *Job) {
	p.mu.Lock()
	handler, exists := p.handlers[job.Type]
	p.mu.Unlock()

	if !exists {
		p.logger.Error().Int("worker", workerID).Str("type", job.Type).Msg("no handler registered for job type")
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	err := handler.Handle(jobCtx, job)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error().
			Err(err).
			Int("worker", workerID).
			Str("job_id", job.ID.String()).
			Dur("duration", duration).
			Msg("job failed")
		return
	}
	p.logger.Info().
		Int("worker", workerID).
		Str("job_id", job.ID.String()).
		Str("type", job.Type).
		Dur("duration", duration).
		Msg("job completed")
}
