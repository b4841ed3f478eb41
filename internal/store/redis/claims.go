// Package redis provides a crawler.ClaimStore shared through Redis, so several
// crawl processes can split one site without fetching a page twice.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitemap-crawler/internal/hash/sha256"
	"github.com/JakeFAU/sitemap-crawler/internal/metrics"
)

const (
	defaultKeyPrefix = "sitemap:claim:"
	defaultOpTimeout = 2 * time.Second
)

// Config controls the Redis claim store.
type Config struct {
	Addr string
	// KeyPrefix is prepended to every key.
	KeyPrefix string
	// Namespace separates crawls. Processes that share a namespace share claims.
	Namespace string
	// TTL expires claims; zero keeps them forever.
	TTL       time.Duration
	OpTimeout time.Duration
}

// setNXClient is the subset of Redis the store needs.
type setNXClient interface {
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

type redisClient struct {
	client *goredis.Client
}

func (c redisClient) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// ClaimStore claims urls with SET NX.
type ClaimStore struct {
	client    setNXClient
	closer    func() error
	prefix    string
	hasher    *sha256.Hasher
	ttl       time.Duration
	opTimeout time.Duration
	logger    *zap.Logger
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*ClaimStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Namespace == "" {
		return nil, errors.New("redis namespace is required")
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	store := newClaimStore(redisClient{client: client}, cfg, logger)
	store.closer = client.Close
	return store, nil
}

func newClaimStore(client setNXClient, cfg Config, logger *zap.Logger) *ClaimStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	timeout := cfg.OpTimeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &ClaimStore{
		client:    client,
		prefix:    prefix + cfg.Namespace + ":",
		hasher:    sha256.New(),
		ttl:       cfg.TTL,
		opTimeout: timeout,
		logger:    logger.Named("redis_claims"),
	}
}

// TryClaim reports whether this process claimed url first. A Redis failure
// counts as a lost claim so the url is skipped rather than fetched twice.
func (s *ClaimStore) TryClaim(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	ok, err := s.client.SetNX(ctx, s.key(url), "1", s.ttl)
	switch {
	case err != nil:
		metrics.ObserveClaim("redis", "error")
		s.logger.Error("Claim failed", zap.String("url", url), zap.Error(err))
		return false
	case ok:
		metrics.ObserveClaim("redis", "won")
		return true
	default:
		metrics.ObserveClaim("redis", "lost")
		return false
	}
}

// Close releases the Redis connection.
func (s *ClaimStore) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// key digests url so arbitrarily long URLs map to bounded keys.
func (s *ClaimStore) key(url string) string {
	return s.prefix + s.hasher.Hash(url)
}
