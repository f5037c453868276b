package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull        = errors.New("notification queue full")
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)

// Enqueuer accepts jobs without blocking the caller.
type Enqueuer interface {
	Enqueue(job Job) error
}

type Handler func(ctx context.Context, job Job) error

// Dispatcher is a bounded in-process queue drained by a fixed worker pool.
// Jobs are not retried; handler errors are logged and dropped.
type Dispatcher struct {
	queue    chan Job
	workers  int
	logger   *logrus.Logger
	handlers map[Kind]Handler

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewDispatcher(queueSize, workers int, logger *logrus.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		queue:    make(chan Job, queueSize),
		workers:  workers,
		logger:   logger,
		handlers: map[Kind]Handler{},
	}
}

// Handle registers h for kind. It must be called before Start.
func (d *Dispatcher) Handle(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

// Start launches the workers. Jobs run with a context derived from ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i)
	}
	d.logger.WithFields(logrus.Fields{"workers": d.workers, "queue_size": cap(d.queue)}).Info("notification dispatcher started")
}

// Enqueue never blocks: a full queue yields ErrQueueFull.
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.logger.Info("notification dispatcher drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

// Len reports the number of queued jobs.
func (d *Dispatcher) Len() int {
	return len(d.queue)
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()
	for job := range d.queue {
		d.run(ctx, id, job)
	}
}

func (d *Dispatcher) run(ctx context.Context, worker int, job Job) {
	log := d.logger.WithFields(logrus.Fields{"job_id": job.ID, "kind": job.Kind, "worker": worker})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("notification handler panicked")
		}
	}()

	d.mu.RLock()
	h, ok := d.handlers[job.Kind]
	d.mu.RUnlock()
	if !ok {
		log.Warn("no handler for job kind")
		return
	}
	if err := h(ctx, job); err != nil {
		log.WithError(err).Warn("notification job failed")
		return
	}
	log.Debug("notification job done")
}

// EnqueueLogged builds and enqueues a job, logging any failure instead of returning it.
func EnqueueLogged(q Enqueuer, logger *logrus.Logger, kind Kind, payload any) {
	if q == nil {
		return
	}
	job, err := NewJob(kind, payload)
	if err == nil {
		err = q.Enqueue(job)
	}
	if err != nil && logger != nil {
		logger.WithError(err).WithField("kind", kind).Warn("enqueue notification failed")
	}
}
