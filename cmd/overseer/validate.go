package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"janitorr-hq/overseer/pkg/cli"
	"janitorr-hq/overseer/pkg/config"
	"janitorr-hq/overseer/pkg/policystore"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the settings and Janitorr configuration",
	Long: `Validate the dashboard settings file and check that Janitorr's
application.yml can be read.

The effective retention window derived from the deletion rules is printed so
that it can be compared with what Janitorr enforces.

Examples:
  overseer validate
  overseer validate --config /etc/overseer/overseer.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ %d settings errors in %s\n", len(verr.Errors), cfgFile)
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  - %s\n", fe.Error())
			}
			return cli.NewConfigError("", "settings are invalid")
		}
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	fmt.Fprintln(out, "✓ Settings valid")
	fmt.Fprintf(out, "  Auth mode: %s\n", cfg.Auth.Mode)

	store := policystore.NewStore(cfg.Janitorr.ConfigPath)
	doc, err := store.Read()
	if err != nil {
		fmt.Fprintf(out, "✗ Janitorr configuration: %v\n", err)
		return cli.NewCommandError("validate", err)
	}
	fmt.Fprintf(out, "✓ Janitorr configuration: %s\n", store.Path())
	fmt.Fprintf(out, "  Retention: %s\n", doc.Retention())

	jf := doc.Jellyfin()
	switch {
	case jf.Configured():
		fmt.Fprintf(out, "  Jellyfin: %s\n", jf.URL)
	case jf.Enabled:
		fmt.Fprintln(out, "  Jellyfin: enabled but missing url or api-key")
	default:
		fmt.Fprintln(out, "  Jellyfin: disabled")
	}
	return nil
}
