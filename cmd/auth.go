package cmd

import (
	"github.com/spf13/cobra"

	"github.com/leadsweep/leadsweep/internal/config"
	"github.com/leadsweep/leadsweep/internal/mailer"
)

// newAuthCmd creates the 'auth' subcommand, which runs the one-time
// Gmail OAuth consent flow and stores the resulting token.
func newAuthCmd() *cobra.Command {
	var credentials string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorizes Gmail sending and saves the OAuth token",
		Long: `Opens the Google consent flow for the Gmail send scope. Paste the
code Google shows you back into the terminal and the refresh token is
saved next to your credentials for later runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("credentials") {
				cfg.Mail.CredentialsFile = credentials
			}
			return mailer.RunAuthFlow(cmd.Context(), mailer.Config{
				CredentialsFile: cfg.Mail.CredentialsFile,
				TokenFile:       cfg.Mail.TokenFile,
				MaxRetries:      cfg.Mail.MaxRetries,
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&credentials, "credentials", "", "Gmail OAuth client credentials JSON")

	return cmd
}
