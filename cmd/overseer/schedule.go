package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"janitorr-hq/overseer/pkg/cli"
	"janitorr-hq/overseer/pkg/jellyfin"
	"janitorr-hq/overseer/pkg/policystore"
	"janitorr-hq/overseer/pkg/retention"
	"janitorr-hq/overseer/pkg/schedule"
)

var scheduleFlags struct {
	logPath    string
	policyPath string
	output     string
	today      string
	jellyfin   bool
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the current deletion schedule",
	Long: `Reconstruct the deletion schedule from Janitorr's log and print it.

The retention window is read from Janitorr's application.yml. When it cannot
be determined the schedule is still printed, without deletion dates.

Examples:
  # Print the schedule using the paths from the settings file
  overseer schedule

  # Read a copied log and configuration
  overseer schedule --log ./janitorr.log --policy ./application.yml

  # Machine-readable output
  overseer schedule --output json

  # Resolve Jellyfin item IDs for each title
  overseer schedule --jellyfin`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleFlags.logPath, "log", "", "Janitorr log file (overrides settings)")
	scheduleCmd.Flags().StringVar(&scheduleFlags.policyPath, "policy", "", "Janitorr application.yml (overrides settings)")
	scheduleCmd.Flags().StringVarP(&scheduleFlags.output, "output", "o", "text", "output format (text, json, csv)")
	scheduleCmd.Flags().StringVar(&scheduleFlags.today, "today", "", "reference date for the summary (YYYY-MM-DD)")
	scheduleCmd.Flags().BoolVar(&scheduleFlags.jellyfin, "jellyfin", false, "look up each title in Jellyfin")
}

// scheduleView is the printed form of a reconstructed schedule.
type scheduleView struct {
	ScanDate  *schedule.Date    `json:"scan_date"`
	Retention retention.Days    `json:"retention_days"`
	Summary   schedule.Summary  `json:"summary"`
	Records   []schedule.Record `json:"records"`
	MediaIDs  map[string]string `json:"media_ids,omitempty"`
}

func (v scheduleView) Header() []string {
	header := []string{"TITLE", "ADDED", "AGE", "DELETES", "IN"}
	if v.MediaIDs != nil {
		header = append(header, "JELLYFIN ID")
	}
	return header
}

func (v scheduleView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Records))
	for _, r := range v.Records {
		deletes, in := "unknown", "-"
		if r.DeletionDate != nil {
			deletes = r.DeletionDate.String()
		}
		if r.DaysUntilDeletion != nil {
			in = strconv.Itoa(*r.DaysUntilDeletion) + "d"
		}
		row := []string{r.Title, r.AddedDate.String(), strconv.Itoa(r.AgeDays) + "d", deletes, in}
		if v.MediaIDs != nil {
			row = append(row, v.MediaIDs[r.Title])
		}
		rows = append(rows, row)
	}
	return rows
}

func runSchedule(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(scheduleFlags.output))
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	today := schedule.Today()
	if scheduleFlags.today != "" {
		if today, err = schedule.ParseDate(scheduleFlags.today); err != nil {
			return cli.NewConfigError("today", err.Error())
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}

	logPath := firstNonEmpty(scheduleFlags.logPath, cfg.Janitorr.LogPath)
	policyPath := firstNonEmpty(scheduleFlags.policyPath, cfg.Janitorr.ConfigPath)

	var ret retention.Days
	doc, policyErr := policystore.NewStore(policyPath).Read()
	if policyErr != nil {
		logger.Warn("retention unknown", "path", policyPath, "error", policyErr)
	} else {
		ret = doc.Retention()
	}

	sched, err := schedule.NewReader(logPath, schedule.WithLogger(logger)).Scheduled(ret)
	if err != nil {
		return cli.NewCommandError("schedule", err)
	}

	view := scheduleView{
		Retention: ret,
		Summary:   schedule.Summarize(sched, today),
		Records:   sched.Records(),
	}
	if d, ok := sched.ScanDate(); ok {
		view.ScanDate = &d
	}
	if view.Records == nil {
		view.Records = []schedule.Record{}
	}

	if scheduleFlags.jellyfin {
		if policyErr != nil {
			return cli.NewCommandError("schedule", fmt.Errorf("jellyfin lookup needs %s: %w", policyPath, policyErr))
		}
		client, err := jellyfin.FromSettings(doc.Jellyfin(),
			jellyfin.WithTimeout(cfg.Jellyfin.RequestTimeout),
			jellyfin.WithLogger(logger),
		)
		if err != nil {
			return cli.NewCommandError("schedule", err)
		}
		view.MediaIDs = lookupIDs(cmd.Context(), client, view.Records, logger,
			cli.NewProgressReporter(cmd.ErrOrStderr(), "Jellyfin"))
	}

	return formatter.FormatTo(cmd.OutOrStdout(), view)
}

// lookupIDs resolves each title to a Jellyfin item ID. Titles that are not
// found map to an empty string.
func lookupIDs(ctx context.Context, client *jellyfin.Client, records []schedule.Record, logger *slog.Logger, progress cli.ProgressReporter) map[string]string {
	ids := make(map[string]string, len(records))
	progress.Start(int64(len(records)))
	for i, r := range records {
		item, err := client.SearchItem(ctx, r.Title)
		switch {
		case err == nil:
			ids[r.Title] = item.ID
		case errors.Is(err, jellyfin.ErrNotFound):
			ids[r.Title] = ""
		default:
			logger.Warn("jellyfin lookup failed", "title", r.Title, "error", err)
			ids[r.Title] = ""
		}
		progress.Update(int64(i + 1))
	}
	progress.Finish()
	return ids
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
