package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/sitemap-crawler/internal/metrics"
)

// ErrPoolClosed is logged when work is forked after shutdown began.
var ErrPoolClosed = errors.New("fork-join pool is closed")

// future is the join handle of a forked task.
type future struct {
	done chan struct{}
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

// join blocks until the task has finished.
func (f *future) join() {
	<-f.done
}

// forkJoinPool runs tasks on at most size goroutines. When every slot is busy
// a forked task runs in the forking goroutine, so a join never waits on a
// task that cannot be scheduled.
type forkJoinPool struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
	logger *zap.Logger
}

func newForkJoinPool(parent context.Context, size int, logger *zap.Logger) *forkJoinPool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(parent)
	return &forkJoinPool{
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// fork submits task and returns its join handle.
func (p *forkJoinPool) fork(task func(context.Context)) *future {
	f := newFuture()
	if p.closed.Load() {
		p.logger.Warn("Task rejected", zap.Error(ErrPoolClosed))
		close(f.done)
		return f
	}
	if !p.sem.TryAcquire(1) {
		metrics.ObserveFork("inline")
		p.run(task, f)
		return f
	}
	metrics.ObserveFork("async")
	p.spawn(task, f)
	return f
}

// invoke runs task on a pool slot and blocks until it finishes.
func (p *forkJoinPool) invoke(task func(context.Context)) {
	f := newFuture()
	if p.closed.Load() {
		p.logger.Warn("Task rejected", zap.Error(ErrPoolClosed))
		return
	}
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		p.run(task, f)
		return
	}
	p.spawn(task, f)
	f.join()
}

func (p *forkJoinPool) spawn(task func(context.Context), f *future) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		p.run(task, f)
	}()
}

func (p *forkJoinPool) run(task func(context.Context), f *future) {
	defer close(f.done)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panicked", zap.Any("panic", r))
		}
	}()
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	task(p.ctx)
}

// shutdown stops accepting work and waits up to grace for running tasks. If
// they are still running it cancels their context and waits up to grace
// again. It reports whether the pool terminated.
func (p *forkJoinPool) shutdown(grace time.Duration) bool {
	p.closed.Store(true)
	defer p.cancel()

	if waitWithin(&p.wg, grace) {
		return true
	}
	p.logger.Warn("Pool did not drain, cancelling running tasks", zap.Duration("grace", grace))
	p.cancel()
	if waitWithin(&p.wg, grace) {
		return true
	}
	p.logger.Error("Fork-join pool did not terminate",
		zap.Error(fmt.Errorf("tasks still running after %s", 2*grace)))
	return false
}

func waitWithin(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
