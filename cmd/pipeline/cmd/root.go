// Package cmd provides the CLI commands for the autopress content pipeline.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Automated content pipeline: collect, write, publish, reconcile",
	Long: `pipeline ingests articles from RSS/HTML sources and arXiv-style PDFs,
submits them to an LLM writer, and publishes per-site output trees while
maintaining a durable article registry.

Example usage:
  pipeline run                 # one-shot collect+write pass over every enabled site
  pipeline serve               # HTTP control plane + background loop
  pipeline backfill            # reconciler pass only
  pipeline smoke <url> [url…]  # probe the adaptive strategy cascade, no writes
  pipeline recategorize        # re-score every published article's category
  pipeline reconcile-names     # rename drifted output_dir folders`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main(); only needs to happen once.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
}
