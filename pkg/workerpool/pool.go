// Package workerpool provides a fixed-size pool of goroutines shared by all
// cleanup tasks, bounding how many storage deletions run at once.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/lakecleaner/internal/logger"
)

var (
	// ErrPoolStopped is returned by Submit after Stop was called.
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrPoolNotStarted is returned by Submit before Start was called.
	ErrPoolNotStarted = errors.New("worker pool not started")
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 1000
)

// Config sizes the pool.
type Config struct {
	Workers   int `mapstructure:"workers" yaml:"workers" validate:"min=0"`
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size" validate:"min=0"`
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers   int `json:"workers"`
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Panicked  int `json:"panicked"`
}

// Pool runs submitted jobs on a fixed set of workers.
//
// Submit blocks while the queue is full, which propagates backpressure to the
// caller rather than dropping work.
type Pool struct {
	jobs    chan func()
	workers int

	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}

	// lifecycle guards started/stopped. Submit holds it for reading while
	// enqueueing so Stop cannot close the pool underneath a send.
	lifecycle sync.RWMutex
	started   bool
	stopped   bool

	mu        sync.Mutex
	queued    int
	running   int
	completed int
	panicked  int
}

// New creates a pool. Zero values in cfg select the defaults.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	return &Pool{
		jobs:      make(chan func(), cfg.QueueSize),
		workers:   cfg.Workers,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Start launches the workers. Calling it more than once has no effect.
func (p *Pool) Start() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	logger.Info("Starting worker pool", logger.KeyWorkers, p.workers, "queue_size", cap(p.jobs))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go func() {
		p.wg.Wait()
		close(p.stoppedCh)
	}()
}

// Submit enqueues fn. It blocks while the queue is full and returns an error
// if ctx is done first or the pool is not running. fn is executed exactly
// once when Submit returns nil.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	if fn == nil {
		return errors.New("nil job")
	}

	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}
	if !p.started {
		return ErrPoolNotStarted
	}

	// Fast path avoids the select when ctx is already done.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	p.mu.Lock()
	p.queued++
	p.mu.Unlock()

	select {
	case p.jobs <- fn:
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		p.queued--
		p.mu.Unlock()
		return fmt.Errorf("submit: %w", ctx.Err())
	}
}

// Stop stops accepting jobs, lets workers drain the queue and waits up to
// timeout for them to exit.
func (p *Pool) Stop(timeout time.Duration) {
	p.lifecycle.Lock()
	if !p.started || p.stopped {
		p.stopped = true
		p.lifecycle.Unlock()
		return
	}
	p.stopped = true
	close(p.stopCh)
	p.lifecycle.Unlock()

	logger.Info("Stopping worker pool", logger.KeyPending, p.Stats().Queued)

	select {
	case <-p.stoppedCh:
		logger.Info("Worker pool stopped gracefully")
	case <-time.After(timeout):
		logger.Warn("Worker pool stop timed out", logger.KeyPending, p.Stats().Queued)
	}
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Workers:   p.workers,
		Queued:    p.queued,
		Running:   p.running,
		Completed: p.completed,
		Panicked:  p.panicked,
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger.Debug("Worker started", "worker_id", id)

	for {
		select {
		case fn := <-p.jobs:
			p.run(fn)
		case <-p.stopCh:
			p.drain()
			logger.Debug("Worker stopped", "worker_id", id)
			return
		}
	}
}

func (p *Pool) drain() {
	for {
		select {
		case fn := <-p.jobs:
			p.run(fn)
		default:
			return
		}
	}
}

func (p *Pool) run(fn func()) {
	p.mu.Lock()
	p.queued--
	p.running++
	p.mu.Unlock()

	panicked := false
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			logger.Error("Worker job panicked", logger.KeyError, r)
		}

		p.mu.Lock()
		p.running--
		if panicked {
			p.panicked++
		} else {
			p.completed++
		}
		p.mu.Unlock()
	}()

	fn()
}
