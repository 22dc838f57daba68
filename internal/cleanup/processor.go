// Package cleanup retries blob releases that failed during a deletion.
package cleanup

import (
	"MapHub-Backend/internal/metrics"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotStarted = errors.New("cleanup processor not started")
	ErrQueueFull  = errors.New("cleanup queue is full")
)

// Releaser deletes an external resource by reference.
type Releaser interface {
	Delete(ctx context.Context, ref string) error
}

// Job is a blob release to retry.
type Job struct {
	Ref    string
	Origin string // e.g. "map:42"
}

// ProcessorConfig holds configuration for the cleanup processor
type ProcessorConfig struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Number of attempts per job
	RetryDelay      time.Duration // Base delay between attempts, doubled each time
	ShutdownTimeout time.Duration // Time to wait for graceful shutdown
	AttemptTimeout  time.Duration // Deadline of one release call
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     2,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      2 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		AttemptTimeout:  30 * time.Second,
	}
}

// Processor releases queued blobs in the background with retry.
type Processor struct {
	config   ProcessorConfig
	releaser Releaser
	log      *zap.Logger
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
}

// NewProcessor creates a new cleanup processor
func NewProcessor(releaser Releaser, log *zap.Logger, config ProcessorConfig) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		config:   config,
		releaser: releaser,
		log:      log,
		jobQueue: make(chan Job, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers.
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("cleanup processor already started")
	}

	p.log.Info("starting cleanup processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
		zap.Int("retry_attempts", p.config.RetryAttempts),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop drains the queue and waits for workers up to ShutdownTimeout.
func (p *Processor) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return ErrNotStarted
	}

	p.log.Info("stopping cleanup processor", zap.Int("pending", len(p.jobQueue)))

	// Workers finish what is queued, then exit on the closed channel
	close(p.jobQueue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	p.started = false
	select {
	case <-done:
		p.cancel()
		p.log.Info("cleanup processor stopped gracefully")
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.cancel()
		p.log.Warn("cleanup processor shutdown timeout reached")
		return fmt.Errorf("shutdown timeout reached")
	}
}

// Submit queues a release without blocking.
func (p *Processor) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return ErrNotStarted
	}

	select {
	case p.jobQueue <- job:
		metrics.BlobReleasesTotal.WithLabelValues("queued").Inc()
		metrics.CleanupQueueSize.Inc()
		p.log.Debug("blob release queued", zap.String("ref", job.Ref), zap.String("origin", job.Origin))
		return nil
	default:
		metrics.BlobReleasesTotal.WithLabelValues("dropped").Inc()
		p.log.Error("cleanup queue is full, dropping blob release",
			zap.String("ref", job.Ref),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return ErrQueueFull
	}
}

func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Debug("cleanup worker started")

	for job := range p.jobQueue {
		metrics.CleanupQueueSize.Dec()
		p.releaseWithRetry(log, job)
	}
	log.Debug("cleanup worker stopped")
}

func (p *Processor) releaseWithRetry(log *zap.Logger, job Job) {
	var lastErr error

	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, p.config.AttemptTimeout)
		err := p.releaser.Delete(ctx, job.Ref)
		cancel()

		if err == nil {
			metrics.BlobReleasesTotal.WithLabelValues("released").Inc()
			log.Info("blob released on retry", zap.String("ref", job.Ref), zap.Int("attempt", attempt))
			return
		}

		lastErr = err
		log.Warn("blob release failed",
			zap.String("ref", job.Ref),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err),
		)

		if attempt == p.config.RetryAttempts {
			break
		}

		// Exponential backoff delay
		delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			return
		}
	}

	metrics.BlobReleasesTotal.WithLabelValues("failed").Inc()
	log.Error("blob release failed after all retries, blob is orphaned",
		zap.String("ref", job.Ref),
		zap.String("origin", job.Origin),
		zap.Error(lastErr),
	)
}

// Stats returns processor statistics.
func (p *Processor) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.jobQueue),
		"queue_capacity": cap(p.jobQueue),
		"worker_count":   p.config.WorkerCount,
		"retry_attempts": p.config.RetryAttempts,
	}
}
