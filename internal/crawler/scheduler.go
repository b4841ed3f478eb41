package crawler

import "context"

// scheduler splits a list of pending links across the pool.
type scheduler struct {
	pool   *forkJoinPool
	expand func(context.Context, Link)
}

// run blocks until every link in seeds, and everything reachable from them,
// has been expanded.
func (s *scheduler) run(seeds []Link) {
	if len(seeds) == 0 {
		return
	}
	s.pool.invoke(func(ctx context.Context) {
		s.compute(ctx, seeds)
	})
}

// compute forks all but one pending link, expands the remaining one in the
// current goroutine and joins the forks in reverse order.
func (s *scheduler) compute(ctx context.Context, pending []Link) {
	if len(pending) == 0 {
		return
	}
	forks := make([]*future, 0, len(pending)-1)
	for len(pending) > 1 {
		last := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		forks = append(forks, s.pool.fork(func(ctx context.Context) {
			s.expand(ctx, last)
		}))
	}
	s.expand(ctx, pending[0])
	for i := len(forks) - 1; i >= 0; i-- {
		forks[i].join()
	}
}
