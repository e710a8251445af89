// Command torussim simulates a linear flow on the torus and records the
// binary coding sequence of its angle wraps.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/torus-coding/internal/config"
	"github.com/talgya/torus-coding/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "torussim",
		Short: "Torus trajectory coding and factor complexity",
		Long: `torussim advances a point along a straight line on the torus, writes
1 each time the minor angle wraps and 0 each time the major angle wraps,
and counts the distinct n-letter words of the resulting sequence.

Irrational slopes give Sturmian sequences with exactly n+1 words of
length n; rational slopes p/q close after one period and stop.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newRunCmd(),
		newSurveyCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment, applies --log-level and
// installs the default logger on stderr.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if !logging.ValidLevel(level) {
			return nil, fmt.Errorf("invalid log level: %s", level)
		}
		cfg.Logging.Level = level
	}
	logging.Setup(cfg.Logging.Level, os.Stderr)
	return cfg, nil
}
