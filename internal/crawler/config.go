package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"time"
)

const (
	defaultMaxDepth        = 5
	defaultPolitenessDelay = 120 * time.Millisecond
	defaultShutdownGrace   = 15 * time.Second
	anchorSelector         = "a[href]"
	hrefAttr               = "href"
)

// Config controls a single crawl session.
type Config struct {
	RootURL  string
	MaxDepth int
	// PolitenessDelay is the fixed pause before each worker fetch. Ignored
	// when a Pauser is supplied.
	PolitenessDelay time.Duration
	// FetchTimeout bounds each fetch. Zero means no timeout.
	FetchTimeout time.Duration
	// Parallelism is the pool size. Zero means GOMAXPROCS.
	Parallelism int
	// ShutdownGrace bounds both the graceful and the forced shutdown windows.
	ShutdownGrace time.Duration
}

// DefaultConfig returns the defaults for root.
func DefaultConfig(root string) Config {
	return Config{
		RootURL:         root,
		MaxDepth:        defaultMaxDepth,
		PolitenessDelay: defaultPolitenessDelay,
		FetchTimeout:    30 * time.Second,
		ShutdownGrace:   defaultShutdownGrace,
	}
}

// Validate checks for obviously bad configuration.
func (c Config) Validate() error {
	if c.RootURL == "" {
		return errors.New("root url is required")
	}
	u, err := url.Parse(c.RootURL)
	if err != nil {
		return fmt.Errorf("parse root url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("root url must be http or https, got %q", c.RootURL)
	}
	if u.Host == "" {
		return fmt.Errorf("root url %q has no host", c.RootURL)
	}
	if c.MaxDepth < 0 {
		return errors.New("max depth must be >= 0")
	}
	if c.PolitenessDelay < 0 {
		return errors.New("politeness delay must be >= 0")
	}
	if c.FetchTimeout < 0 {
		return errors.New("fetch timeout must be >= 0")
	}
	if c.Parallelism < 0 {
		return errors.New("parallelism must be >= 0")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Parallelism == 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = defaultShutdownGrace
	}
	return c
}
