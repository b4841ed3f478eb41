package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags shared by subcommands.
type rootOptions struct {
	configFile string
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Build a depth-annotated sitemap of a website.",
		Long: `sitemap crawls every page reachable from a root URL, following only links
under that root, and writes a sorted, indented list of the urls it found.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "",
		"config file (default is ./sitemap.yaml or $XDG_CONFIG_HOME/sitemap/sitemap.yaml)")
	flags.Bool("dev", true, "use the development (console) logger")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(newCrawlCmd(opts))
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
