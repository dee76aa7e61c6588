package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LogLevel is the level of the default logger, raised to debug by --verbose.
var LogLevel = new(slog.LevelVar)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "eoscam",
	Short: "Canon EOS camera tools",
	Long:  `Lists cameras connected over USB, browses their storage and copies images off them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			LogLevel.Set(slog.LevelDebug)
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	LogLevel.Set(slog.LevelWarn)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("sqlite-path", ".eoscam/ledger.db", "Download ledger path")
	rootCmd.PersistentFlags().String("fsm-db-path", ".eoscam/fsm", "FSM BoltDB directory")
	rootCmd.PersistentFlags().String("output-dir", ".", "Directory copied files are written to")
	rootCmd.PersistentFlags().String("archive-bucket", "", "S3 bucket copied files are archived to (disabled when empty)")
	rootCmd.PersistentFlags().String("archive-region", "us-east-1", "S3 region of the archive bucket")
	rootCmd.PersistentFlags().String("archive-prefix", "", "Key prefix inside the archive bucket")
	rootCmd.PersistentFlags().Int64("max-file-size", 8*1024*1024*1024, "Max size of a single copied file in bytes (0 for no limit)")
	rootCmd.PersistentFlags().Int64("max-total-size", 0, "Max bytes copied per run (0 for no limit)")
	rootCmd.PersistentFlags().Int("fsm-max-retries", 3, "Max attempts per copy step")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write copy metrics to this node_exporter textfile")
	rootCmd.PersistentFlags().String("simulate", "", "Use a simulated camera setup read from this fixture file")

	for _, name := range []string{
		"sqlite-path", "fsm-db-path", "output-dir",
		"archive-bucket", "archive-region", "archive-prefix",
		"max-file-size", "max-total-size", "fsm-max-retries",
		"metrics-file", "simulate",
	} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}
