// Package workerpool runs tasks on a fixed number of goroutines fed by a
// bounded queue. Submission never blocks; callers decide how to back off.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"golang.org/x/sync/errgroup"
)

// QueueFactor is the queue capacity per worker.
const QueueFactor = 5

var (
	ErrQueueFull = errors.New("workerpool: queue full")
	ErrStopped   = errors.New("workerpool: stopped")
)

type Task func(ctx context.Context)

type Pool struct {
	size   int
	queue  chan Task
	logger logging.Logger

	mu       sync.RWMutex
	stopping bool

	active atomic.Int64
	g      *errgroup.Group
}

// New starts size workers (at least one) with a queue of QueueFactor*size
// tasks. Workers run until Stop is called and the queue is drained. Once
// ctx is done, queued tasks are discarded instead of run.
func New(ctx context.Context, size int, logger logging.Logger) *Pool {
	if size < 1 {
		size = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		size:   size,
		queue:  make(chan Task, QueueFactor*size),
		logger: logger.With("module", "workerpool"),
		g:      g,
	}

	for i := 0; i < size; i++ {
		g.Go(func() error {
			p.work(gctx)
			return nil
		})
	}
	return p
}

func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) Capacity() int {
	return cap(p.queue)
}

// TrySubmit enqueues t without blocking. It returns ErrQueueFull when the
// queue has no room and ErrStopped once Stop has been called.
func (p *Pool) TrySubmit(t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopping {
		return ErrStopped
	}

	p.active.Add(1)
	select {
	case p.queue <- t:
		return nil
	default:
		p.active.Add(-1)
		return ErrQueueFull
	}
}

// Stop refuses further submissions. Queued tasks still run.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.stopping {
		p.stopping = true
		close(p.queue)
	}
}

func (p *Pool) Stopping() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopping
}

// Active returns the number of queued plus running tasks.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Wait blocks until every worker has exited, which happens after Stop once
// the queue is empty.
func (p *Pool) Wait() error {
	return p.g.Wait()
}

func (p *Pool) work(ctx context.Context) {
	for t := range p.queue {
		if ctx.Err() != nil {
			p.active.Add(-1)
			continue
		}
		p.run(ctx, t)
	}
}

func (p *Pool) run(ctx context.Context, t Task) {
	defer p.active.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(ctx, "task panicked", "panic", fmt.Sprint(r))
		}
	}()
	t(ctx)
}
