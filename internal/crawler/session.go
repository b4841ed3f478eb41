package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitemap-crawler/internal/clock/system"
	"github.com/JakeFAU/sitemap-crawler/internal/id/uuid"
	"github.com/JakeFAU/sitemap-crawler/internal/metrics"
)

// Session is one crawl of one site. It owns the claim store, registry and
// pool used by its workers; sessions share nothing with each other.
type Session struct {
	id       string
	cfg      Config
	claims   ClaimStore
	registry *Registry
	worker   *worker
	logger   *zap.Logger
	clock    Clock
	ids      IDGenerator

	mu         sync.Mutex
	done       chan struct{}
	state      State
	startedAt  time.Time
	finishedAt time.Time
	result     Result
}

// Option customizes a Session.
type Option func(*Session)

// WithClaimStore replaces the in-memory claim store.
func WithClaimStore(store ClaimStore) Option {
	return func(s *Session) {
		if store != nil {
			s.claims = store
		}
	}
}

// WithPauser replaces the fixed politeness delay.
func WithPauser(p Pauser) Option {
	return func(s *Session) {
		if p != nil {
			s.worker.pauser = p
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithClock replaces the wall clock used for Status and Result timings.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator replaces the UUID v7 generator. It is ignored when WithID
// is also given.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Session) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// NewSession validates cfg and builds a session that fetches through fetcher.
func NewSession(cfg Config, fetcher Fetcher, opts ...Option) (*Session, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid crawl config: %w", err)
	}
	cfg = cfg.withDefaults()
	metrics.Init()

	s := &Session{
		cfg:      cfg,
		claims:   NewMemoryClaims(),
		registry: NewRegistry(),
		logger:   zap.NewNop(),
		clock:    system.New(),
		ids:      uuid.New(),
		state:    StatePending,
		done:     make(chan struct{}),
	}
	s.worker = &worker{
		cfg:      cfg,
		fetcher:  fetcher,
		registry: s.registry,
		pauser:   NewFixedDelay(cfg.PolitenessDelay),
		policy:   newLinkPolicy(cfg.RootURL),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		id, err := s.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("session id: %w", err)
		}
		s.id = id
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))
	s.worker.claims = s.claims
	s.worker.logger = s.logger.Named("worker")
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Run crawls the site and returns the frozen registry. It never fails; fetch
// errors, cancellation and shutdown problems are logged and reflected in the
// Result. A session runs once; later calls wait for the first run to finish
// and return its result.
func (s *Session) Run(ctx context.Context) Result {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()
		s.logger.Warn("Session already run")
		<-s.done
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.result
	}
	s.state = StateRunning
	s.startedAt = s.clock.Now()
	s.mu.Unlock()

	s.logger.Info("Crawl started",
		zap.String("root", s.cfg.RootURL),
		zap.Int("max_depth", s.cfg.MaxDepth),
		zap.Int("parallelism", s.cfg.Parallelism))

	pool := newForkJoinPool(ctx, s.cfg.Parallelism, s.logger.Named("pool"))
	seeds := s.worker.bootstrap(ctx)
	sched := &scheduler{pool: pool, expand: s.worker.run}
	sched.run(seeds)
	terminated := pool.shutdown(s.cfg.ShutdownGrace)
	s.registry.Freeze()

	s.mu.Lock()
	s.finishedAt = s.clock.Now()
	s.state = StateDone
	s.result = Result{
		SessionID:   s.id,
		Links:       s.registry.Snapshot(),
		Interrupted: s.worker.interrupted.Load() || ctx.Err() != nil,
		Terminated:  terminated,
		Elapsed:     s.finishedAt.Sub(s.startedAt),
	}
	res := s.result
	s.mu.Unlock()
	close(s.done)

	status := "completed"
	if res.Interrupted || !res.Terminated {
		status = "incomplete"
	}
	metrics.ObserveSession(status)
	s.logger.Info("Crawl finished",
		zap.Int("links", len(res.Links)),
		zap.Duration("elapsed", res.Elapsed),
		zap.Bool("interrupted", res.Interrupted))
	return res
}

// Status reports the session state and the number of links recorded so far.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		ID:         s.id,
		RootURL:    s.cfg.RootURL,
		State:      s.state,
		Discovered: s.registry.Len(),
	}
	if !s.startedAt.IsZero() {
		started := s.startedAt
		st.StartedAt = &started
	}
	if !s.finishedAt.IsZero() {
		finished := s.finishedAt
		st.FinishedAt = &finished
	}
	return st
}
