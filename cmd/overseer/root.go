package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"janitorr-hq/overseer/pkg/cli"
	"janitorr-hq/overseer/pkg/config"
	"janitorr-hq/overseer/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "overseer",
	Short: "Overseer - a dashboard for Janitorr",
	Long: `Overseer is a companion dashboard for Janitorr.

It reads Janitorr's activity log and application.yml to show which media is
scheduled for deletion and when, reports the health of the installation and
of Jellyfin, and lets administrators edit the configuration.

Overseer never deletes anything itself.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath(), "dashboard settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// defaultConfigPath honours OVERSEER_CONFIG so containers can relocate the
// settings file without flags.
func defaultConfigPath() string {
	if p := os.Getenv("OVERSEER_CONFIG"); p != "" {
		return p
	}
	return "overseer.yaml"
}

// loadConfig reads the settings file without touching the global
// configuration. A missing file yields defaults plus environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg, nil
}

// newLogger builds the logger for a command. Commands other than run log to
// stderr at warn level unless --verbose is set.
func newLogger(cfg *config.Config, quiet bool) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging)
	lc.Writer = os.Stderr
	if quiet && !verbose {
		lc.Level = "warn"
	}
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}
