// Package cmd defines and implements the CLI commands for the sitemap executable.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitemap-crawler/internal/app"
	"github.com/JakeFAU/sitemap-crawler/internal/config"
	"github.com/JakeFAU/sitemap-crawler/internal/logging"
)

// newCrawlCmd creates the 'crawl' subcommand.
func newCrawlCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [root-url] [output-file]",
		Short: "Crawl a site and append its sitemap to a file",
		Long: `Crawls every page under root-url up to --depth hops away and appends one
line per discovered url to output-file, indented by depth and sorted by url.
Both arguments may instead come from the config file or the environment
(SITEMAP_CRAWLER_ROOT_URL, SITEMAP_OUTPUT_PATH).`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawlCommand(cmd, root, args)
		},
	}

	flags := cmd.Flags()
	flags.Int("depth", 5, "maximum hop distance from the root url")
	flags.Duration("delay", 120*time.Millisecond, "politeness pause before each fetch")
	flags.Float64("rate", 0, "requests per second per host; replaces --delay when > 0")
	flags.Duration("timeout", 30*time.Second, "per-fetch timeout, 0 for none")
	flags.Int("parallelism", 0, "worker pool size, 0 for GOMAXPROCS")
	flags.String("user-agent", "sitemap-crawler/1.0", "User-Agent header")
	flags.String("indent", "\t", "indentation unit repeated once per depth level")
	flags.Bool("echo", false, "also print each sitemap line to stdout")
	flags.String("dedup", config.DedupMemory, "claim store backend: memory or redis")
	flags.String("redis-addr", "localhost:6379", "redis address for --dedup=redis")
	flags.String("namespace", "", "shared redis namespace, empty for a per-session one")
	flags.String("status-addr", "", "serve /healthz, /metrics and /v1/session on this address")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, root *rootOptions, args []string) error {
	cfg, err := config.Load(root.configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(args) > 0 {
		cfg.Crawler.RootURL = args[0]
	}
	if len(args) > 1 {
		cfg.Output.Path = args[1]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, app.WithEcho(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	defer application.Close()

	summary := application.Run(ctx)
	logger.Info("Crawl command finished.",
		zap.Int("links", len(summary.Result.Links)),
		zap.Duration("elapsed", summary.Result.Elapsed))
	return nil
}
