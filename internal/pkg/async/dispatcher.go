package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is one best-effort unit of work. Its error is logged and otherwise ignored.
type Task func(ctx context.Context) error

type Config struct {
	WorkerCount int
	QueueSize   int
	TaskTimeout time.Duration
}

type job struct {
	name     string
	fn       Task
	queuedAt time.Time
}

// Dispatcher runs fire-and-forget tasks on a fixed pool of workers.
type Dispatcher struct {
	config Config
	logger *slog.Logger

	queue  chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		config: cfg,
		logger: logger,
		queue:  make(chan job, cfg.QueueSize),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	logger.Info("Async dispatcher started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)
	return d
}

// Submit queues fn without blocking. It reports false when the task was dropped
// because the queue is full or the dispatcher is shut down.
func (d *Dispatcher) Submit(name string, fn Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Async task dropped, dispatcher closed", "task", name)
		return false
	}

	select {
	case d.queue <- job{name: name, fn: fn, queuedAt: time.Now()}:
		return true
	default:
		d.logger.Warn("Async task dropped, queue full", "task", name)
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued tasks to finish or ctx to end.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Async dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for j := range d.queue {
		d.run(id, j)
	}
}

func (d *Dispatcher) run(worker int, j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	err := safeCall(ctx, j.fn)
	if err != nil {
		d.logger.Error("Async task failed",
			"task", j.name,
			"worker", worker,
			"error", err,
			"duration", time.Since(start),
		)
		return
	}
	d.logger.Debug("Async task completed",
		"task", j.name,
		"worker", worker,
		"wait", start.Sub(j.queuedAt),
		"duration", time.Since(start),
	)
}

func safeCall(ctx context.Context, fn Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx)
}
