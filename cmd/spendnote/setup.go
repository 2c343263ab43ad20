package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendnote/pkg/client"
	sheetswriter "github.com/ArionMiles/spendnote/pkg/writer/sheets"
)

func setupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Authorize Google Sheets export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "discard the stored token and authorize again")
	return cmd
}

// runSetup runs the OAuth browser flow and stores the token.
func runSetup(cmd *cobra.Command, force bool) error {
	out := cmd.OutOrStdout()
	secretsPath := cfg.ClientSecretFile
	tokenFile := client.DefaultTokenFile

	fmt.Fprintln(out, "=== spendnote Setup ===")
	fmt.Fprintln(out)

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", secretsPath, secretsPath)
	}

	if !force && client.HasToken(tokenFile) {
		fmt.Fprintf(out, "Already authenticated! Token file exists: %s\n", tokenFile)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To re-authenticate, run: spendnote setup --force")
		return nil
	}

	if force {
		if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Fprintln(out, "Forcing re-authentication...")
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "This will set up OAuth authentication with Google.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Required permissions:")
	fmt.Fprintln(out, "  - Sheets: Read and write spreadsheets (for spendnote export --to sheets)")
	fmt.Fprintln(out)

	_, err := client.New(cmd.Context(), client.Config{
		SecretFile:  secretsPath,
		TokenFile:   tokenFile,
		Interactive: true,
	}, logger, sheetswriter.Scope)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Setup Complete ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Token saved to: %s\n", tokenFile)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Set GSHEETS_NAME and GSHEETS_ID or GSHEETS_TITLE")
	fmt.Fprintln(out, "  2. Run 'spendnote export --to sheets' to copy your expenses")
	return nil
}
