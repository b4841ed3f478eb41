// Package app wires configuration into a runnable crawl: fetcher, claim store,
// politeness, session, sitemap writer and the optional status server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitemap-crawler/internal/api"
	"github.com/JakeFAU/sitemap-crawler/internal/config"
	"github.com/JakeFAU/sitemap-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/sitemap-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/sitemap-crawler/internal/id/uuid"
	"github.com/JakeFAU/sitemap-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/sitemap-crawler/internal/storage/local"
	redisclaims "github.com/JakeFAU/sitemap-crawler/internal/store/redis"
)

const statusShutdownTimeout = 5 * time.Second

// App holds the services for one crawl.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	session *crawler.Session
	writer  *local.SitemapWriter

	statusServer   *http.Server
	statusListener net.Listener
	closers        []func() error
}

// Summary is what a run produced.
type Summary struct {
	Result crawler.Result
	Output local.WriteReport
}

type options struct {
	fetcher crawler.Fetcher
	echo    io.Writer
}

// Option customizes New.
type Option func(*options)

// WithFetcher replaces the colly fetcher.
func WithFetcher(f crawler.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithEcho copies written sitemap lines to out.
func WithEcho(out io.Writer) Option {
	return func(o *options) { o.echo = out }
}

// New builds every service the crawl needs. It fails fast on configuration
// and connectivity problems; nothing is fetched until Run.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger}
	sessionID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("init session id: %w", err)
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{UserAgent: cfg.Crawler.UserAgent})
	}

	sessionOpts := []crawler.Option{
		crawler.WithID(sessionID),
		crawler.WithLogger(logger),
	}
	if rl, ok := cfg.RateLimit(); ok {
		logger.Info("Using token bucket politeness", zap.Float64("rps", rl.RPS), zap.Int("burst", rl.Burst))
		sessionOpts = append(sessionOpts, crawler.WithPauser(ratelimit.New(rl)))
	}
	if cfg.Dedup.Backend == config.DedupRedis {
		store, err := a.newRedisClaims(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		sessionOpts = append(sessionOpts, crawler.WithClaimStore(store))
	}

	session, err := crawler.NewSession(cfg.CrawlConfig(), fetcher, sessionOpts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init session: %w", err)
	}
	a.session = session

	writerOpts := []local.Option{local.WithLogger(logger.Named("sitemap"))}
	if cfg.Output.Echo && o.echo != nil {
		writerOpts = append(writerOpts, local.WithEcho(o.echo))
	}
	writer, err := local.New(cfg.SitemapConfig(), writerOpts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init sitemap writer: %w", err)
	}
	a.writer = writer

	if cfg.Status.Addr != "" {
		if err := a.listenStatus(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) newRedisClaims(ctx context.Context, sessionID string) (*redisclaims.ClaimStore, error) {
	namespace := a.cfg.Dedup.Namespace
	if namespace == "" {
		namespace = sessionID
	}
	store, err := redisclaims.New(ctx, redisclaims.Config{
		Addr:      a.cfg.Dedup.RedisAddr,
		KeyPrefix: a.cfg.Dedup.KeyPrefix,
		Namespace: namespace,
		TTL:       a.cfg.Dedup.KeyTTL,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init redis claim store: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	a.logger.Info("Using redis claim store", zap.String("addr", a.cfg.Dedup.RedisAddr), zap.String("namespace", namespace))
	return store, nil
}

func (a *App) listenStatus() error {
	ln, err := net.Listen("tcp", a.cfg.Status.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Status.Addr, err)
	}
	a.statusListener = ln
	a.statusServer = &http.Server{
		Handler:           api.NewServer(a.session, a.logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// StatusAddr returns the bound status server address, or "" when disabled.
func (a *App) StatusAddr() string {
	if a.statusListener == nil {
		return ""
	}
	return a.statusListener.Addr().String()
}

// Session returns the crawl session.
func (a *App) Session() *crawler.Session {
	return a.session
}

// Run crawls, writes the sitemap and stops the status server. Problems are
// logged and reported in the Summary.
func (a *App) Run(ctx context.Context) Summary {
	if a.statusServer != nil {
		go func() {
			a.logger.Info("Status server listening", zap.String("addr", a.StatusAddr()))
			if err := a.statusServer.Serve(a.statusListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Status server error", zap.Error(err))
			}
		}()
		defer a.stopStatus()
	}

	res := a.session.Run(ctx)
	report := a.writer.Write(res.Links)

	a.logger.Info("Links count", zap.Int("count", len(res.Links)))
	a.logger.Info("Sitemap written",
		zap.String("path", a.writer.Path()),
		zap.Int("written", report.Written),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", res.Elapsed))
	if res.Interrupted {
		a.logger.Warn("Crawl was interrupted, sitemap may be incomplete")
	}
	return Summary{Result: res, Output: report}
}

func (a *App) stopStatus() {
	ctx, cancel := context.WithTimeout(context.Background(), statusShutdownTimeout)
	defer cancel()
	if err := a.statusServer.Shutdown(ctx); err != nil {
		a.logger.Error("Status server shutdown error", zap.Error(err))
	}
}

// Close releases external connections.
func (a *App) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("Close failed", zap.Error(err))
		}
	}
	a.closers = nil
	if a.statusListener != nil {
		_ = a.statusListener.Close()
	}
}
