// Package cli wires the cobra command tree for the harvester.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/msc-search/harvester/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Harvest pull requests into a search index",
	Long: `harvester ingests every pull request of a repository, including
review comments, reconstructed comment threads, and labels, and loads
them as documents into a hosted full-text search index.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration honouring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
