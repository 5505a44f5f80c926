package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"janitorr-hq/overseer/pkg/cli"
	"janitorr-hq/overseer/pkg/security/auth"
)

var passwordFlags struct {
	password string
}

var passwordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password for legacy authentication",
	Long: `Hash a password with bcrypt for auth.legacy.password.

The password is read from the first line of standard input unless
--password is given. Plain-text passwords in the settings file keep working.

Examples:
  echo 'secret' | overseer hash-password
  overseer hash-password --password secret`,
	RunE: hashPassword,
}

func init() {
	rootCmd.AddCommand(passwordCmd)

	passwordCmd.Flags().StringVar(&passwordFlags.password, "password", "", "password to hash (read from stdin if empty)")
}

func hashPassword(cmd *cobra.Command, args []string) error {
	password := passwordFlags.password
	if password == "" {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if scanner.Scan() {
			password = strings.TrimRight(scanner.Text(), "\r")
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return cli.NewCommandError("hash-password", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hashed)
	return nil
}
