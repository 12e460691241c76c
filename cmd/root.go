package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadsweep",
		Short: "Finds contact emails on company websites and sends outreach.",
		Long: `leadsweep visits each company website you give it, probes the
homepage and common contact pages for an email address, and records
what it found. With Gmail credentials configured it can also send a
templated outreach message to each address it discovers.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./leadsweep.yaml)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newAuthCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
