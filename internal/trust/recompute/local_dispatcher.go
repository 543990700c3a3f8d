package recompute

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

var (
	ErrQueueFull        = errors.New("recompute: dispatch queue full")
	ErrDispatcherClosed = errors.New("recompute: dispatcher closed")
)

type Handler func(ctx context.Context, t Trigger) error

// LocalDispatcher runs triggers on an in-process worker pool. Enqueue never
// blocks; a full queue is reported so the caller can fall back.
type LocalDispatcher struct {
	log     *logger.Logger
	handle  Handler
	workers int
	queue   chan Trigger

	mu      sync.RWMutex
	closed  bool
	started bool
	runCtx  context.Context
	wg      sync.WaitGroup
}

func NewLocalDispatcher(baseLog *logger.Logger, handle Handler, workers, queueSize int) *LocalDispatcher {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 256
	}
	return &LocalDispatcher{
		log:     baseLog.With("service", "LocalDispatcher"),
		handle:  handle,
		workers: workers,
		queue:   make(chan Trigger, queueSize),
	}
}

func (d *LocalDispatcher) Name() string { return "local" }

// Start launches the workers. When ctx is done the workers finish whatever is
// already queued and exit; Close runs anything left after that.
func (d *LocalDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.runCtx = ctx
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i)
	}
	d.log.Info("Local dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
}

func (d *LocalDispatcher) work(ctx context.Context, n int) {
	defer d.wg.Done()
	// Accepted triggers run to completion even once shutdown begins.
	runCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			d.drain(runCtx, n)
			return
		case t, ok := <-d.queue:
			if !ok {
				return
			}
			d.run(runCtx, n, t)
		}
	}
}

func (d *LocalDispatcher) drain(ctx context.Context, n int) {
	for {
		select {
		case t, ok := <-d.queue:
			if !ok {
				return
			}
			d.run(ctx, n, t)
		default:
			return
		}
	}
}

func (d *LocalDispatcher) run(ctx context.Context, n int, t Trigger) {
	if err := d.handle(ctx, t); err != nil {
		d.log.Warn("Dispatched recompute failed", "worker", n, "rumor_id", t.RumorID, "reason", t.Reason, "error", err)
	}
}

func (d *LocalDispatcher) Enqueue(ctx context.Context, t Trigger) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed || !d.started || d.runCtx.Err() != nil {
		return ErrDispatcherClosed
	}
	if t.RumorID == uuid.Nil {
		return ErrInvalidTrigger
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake and returns once every accepted trigger has run.
func (d *LocalDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	runCtx := context.Background()
	if d.runCtx != nil {
		runCtx = context.WithoutCancel(d.runCtx)
	}
	d.mu.Unlock()
	d.wg.Wait()

	// Workers that stopped on ctx may have left triggers enqueued after their drain.
	for t := range d.queue {
		d.run(runCtx, -1, t)
	}
}
