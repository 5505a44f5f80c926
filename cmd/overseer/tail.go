package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"janitorr-hq/overseer/pkg/cli"
	"janitorr-hq/overseer/pkg/schedule"
	"janitorr-hq/overseer/pkg/server"
)

var tailFlags struct {
	logPath string
	lines   int
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the last lines of Janitorr's log",
	Long: `Print the last lines of Janitorr's log.

Examples:
  # Last 100 lines (the configured default)
  overseer tail

  # Last 20 lines of a specific file
  overseer tail -n 20 --log /var/log/janitorr/janitorr.log`,
	RunE: runTail,
}

func init() {
	rootCmd.AddCommand(tailCmd)

	tailCmd.Flags().StringVar(&tailFlags.logPath, "log", "", "Janitorr log file (overrides settings)")
	tailCmd.Flags().IntVarP(&tailFlags.lines, "lines", "n", 0, "number of lines (defaults to janitorr.tail_lines)")
}

func runTail(cmd *cobra.Command, args []string) error {
	if tailFlags.lines < 0 {
		return cli.NewConfigError("lines", "must not be negative")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}

	n := tailFlags.lines
	if n == 0 {
		n = cfg.Janitorr.TailLines
	}
	n = min(n, server.MaxLogLines)

	path := firstNonEmpty(tailFlags.logPath, cfg.Janitorr.LogPath)
	lines, err := schedule.NewReader(path, schedule.WithLogger(logger)).Tail(n)
	if err != nil {
		return cli.NewCommandError("tail", err)
	}

	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return nil
}
