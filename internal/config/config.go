// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/sitemap-crawler/internal/crawler"
	"github.com/JakeFAU/sitemap-crawler/internal/logging"
	"github.com/JakeFAU/sitemap-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/sitemap-crawler/internal/storage/local"
)

const (
	envPrefix  = "SITEMAP"
	configName = "sitemap"
)

// Dedup backends.
const (
	DedupMemory = "memory"
	DedupRedis  = "redis"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig  `mapstructure:"crawler"`
	Output  OutputConfig   `mapstructure:"output"`
	Dedup   DedupConfig    `mapstructure:"dedup"`
	Status  StatusConfig   `mapstructure:"status"`
	Logging logging.Config `mapstructure:"logging"`
}

// CrawlerConfig governs the crawl itself.
type CrawlerConfig struct {
	RootURL         string        `mapstructure:"root_url"`
	MaxDepth        int           `mapstructure:"max_depth"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	Parallelism     int           `mapstructure:"parallelism"`
	UserAgent       string        `mapstructure:"user_agent"`
	ShutdownGrace   time.Duration `mapstructure:"shutdown_grace"`
}

// OutputConfig controls the sitemap file.
type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Indent string `mapstructure:"indent"`
	Echo   bool   `mapstructure:"echo"`
}

// DedupConfig selects where url claims live.
type DedupConfig struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Namespace string        `mapstructure:"namespace"`
	KeyTTL    time.Duration `mapstructure:"key_ttl"`
}

// StatusConfig controls the optional status server.
type StatusConfig struct {
	Addr string `mapstructure:"addr"`
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"crawler.max_depth":        "depth",
	"crawler.politeness_delay": "delay",
	"crawler.rate_limit_rps":   "rate",
	"crawler.fetch_timeout":    "timeout",
	"crawler.parallelism":      "parallelism",
	"crawler.user_agent":       "user-agent",
	"output.indent":            "indent",
	"output.echo":              "echo",
	"dedup.backend":            "dedup",
	"dedup.redis_addr":         "redis-addr",
	"dedup.namespace":          "namespace",
	"status.addr":              "status-addr",
	"logging.development":      "dev",
	"logging.level":            "log-level",
}

// Load builds a Config from defaults, an optional file, the environment and
// flags, in increasing order of precedence. When path is empty a
// sitemap.yaml is looked up in the working directory and the XDG config
// directory; a missing file is not an error.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindFlags(v, flags); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, configName))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for key, name := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.root_url", "")
	v.SetDefault("crawler.max_depth", 5)
	v.SetDefault("crawler.politeness_delay", 120*time.Millisecond)
	v.SetDefault("crawler.rate_limit_rps", 0.0)
	v.SetDefault("crawler.rate_limit_burst", 1)
	v.SetDefault("crawler.fetch_timeout", 30*time.Second)
	v.SetDefault("crawler.parallelism", 0)
	v.SetDefault("crawler.user_agent", "sitemap-crawler/1.0")
	v.SetDefault("crawler.shutdown_grace", 15*time.Second)
	v.SetDefault("output.path", "")
	v.SetDefault("output.indent", local.DefaultIndent)
	v.SetDefault("output.echo", false)
	v.SetDefault("dedup.backend", DedupMemory)
	v.SetDefault("dedup.redis_addr", "localhost:6379")
	v.SetDefault("dedup.key_prefix", "sitemap:claim:")
	v.SetDefault("dedup.namespace", "")
	v.SetDefault("dedup.key_ttl", 24*time.Hour)
	v.SetDefault("status.addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.RootURL == "" {
		return fmt.Errorf("crawler.root_url is required")
	}
	u, err := url.Parse(c.Crawler.RootURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("crawler.root_url must be an absolute http(s) url, got %q", c.Crawler.RootURL)
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if c.Crawler.PolitenessDelay < 0 {
		return fmt.Errorf("crawler.politeness_delay must be >= 0")
	}
	if c.Crawler.RateLimitRPS < 0 {
		return fmt.Errorf("crawler.rate_limit_rps must be >= 0")
	}
	if c.Crawler.FetchTimeout < 0 {
		return fmt.Errorf("crawler.fetch_timeout must be >= 0")
	}
	if c.Crawler.Parallelism < 0 {
		return fmt.Errorf("crawler.parallelism must be >= 0")
	}
	if c.Crawler.ShutdownGrace <= 0 {
		return fmt.Errorf("crawler.shutdown_grace must be > 0")
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return fmt.Errorf("output.path is required")
	}
	switch c.Dedup.Backend {
	case DedupMemory:
	case DedupRedis:
		if c.Dedup.RedisAddr == "" {
			return fmt.Errorf("dedup.redis_addr must be set when dedup.backend is redis")
		}
	default:
		return fmt.Errorf("dedup.backend must be %q or %q, got %q", DedupMemory, DedupRedis, c.Dedup.Backend)
	}
	return nil
}

// CrawlConfig converts the crawler section into a session config.
func (c Config) CrawlConfig() crawler.Config {
	return crawler.Config{
		RootURL:         c.Crawler.RootURL,
		MaxDepth:        c.Crawler.MaxDepth,
		PolitenessDelay: c.Crawler.PolitenessDelay,
		FetchTimeout:    c.Crawler.FetchTimeout,
		Parallelism:     c.Crawler.Parallelism,
		ShutdownGrace:   c.Crawler.ShutdownGrace,
	}
}

// RateLimit returns the token bucket settings; ok is false when the fixed
// politeness delay applies.
func (c Config) RateLimit() (cfg ratelimit.Config, ok bool) {
	if c.Crawler.RateLimitRPS <= 0 {
		return ratelimit.Config{}, false
	}
	return ratelimit.Config{RPS: c.Crawler.RateLimitRPS, Burst: c.Crawler.RateLimitBurst}, true
}

// SitemapConfig converts the output section for the sitemap writer.
func (c Config) SitemapConfig() local.Config {
	return local.Config{Path: c.Output.Path, Indent: c.Output.Indent}
}
