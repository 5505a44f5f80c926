package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var keygenFlags struct {
	bytes int
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a session secret",
	Long: `Generate a random secret for auth.session.secret_key.

Without a configured secret a new one is generated at every start and all
sessions are lost on restart.

Examples:
  overseer keygen
  GUI_SESSION_SECRET_KEY=$(overseer keygen) overseer run`,
	RunE: generateSecret,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().IntVar(&keygenFlags.bytes, "bytes", 32, "secret length in bytes")
}

func generateSecret(cmd *cobra.Command, args []string) error {
	if keygenFlags.bytes < 16 {
		return fmt.Errorf("secret must be at least 16 bytes, got %d", keygenFlags.bytes)
	}
	buf := make([]byte, keygenFlags.bytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf))
	return nil
}
