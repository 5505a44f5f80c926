package main

import (
	"sort"

	"github.com/spf13/cobra"

	"janitorr-hq/overseer/pkg/cli"
	"janitorr-hq/overseer/pkg/telemetry/health"
)

var statusFlags struct {
	output string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the Janitorr installation",
	Long: `Run the dashboard's dependency checks once and print the results.

The checks cover Janitorr's configuration file, its log file, Jellyfin
connectivity and whether a Janitorr systemd unit is active.

Examples:
  overseer status
  overseer status --output json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

// statusView lists check results in name order.
type statusView struct {
	Status string                        `json:"status"`
	Checks map[string]health.CheckResult `json:"checks"`
	System health.SystemStatus           `json:"system_status"`
}

func (v statusView) Header() []string {
	return []string{"CHECK", "STATUS", "MESSAGE"}
}

func (v statusView) Rows() [][]string {
	names := make([]string, 0, len(v.Checks))
	for name := range v.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		r := v.Checks[name]
		mark := "✓"
		if !r.OK() {
			mark = "✗"
		}
		rows = append(rows, []string{name, mark + " " + r.Status, r.Message})
	}
	return rows
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(statusFlags.output))
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	health.RegisterJanitorrChecks(checker, checkSources(cfg))

	status := checker.CheckReadiness(cmd.Context())

	return formatter.FormatTo(cmd.OutOrStdout(), statusView{
		Status: status.Status,
		Checks: status.Checks,
		System: health.SystemStatusFrom(status),
	})
}
