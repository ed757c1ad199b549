package main

import (
	"fmt"

	"healthmate/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "healthmate",
	Short: "HealthMate companion backend",
	Long: `HealthMate serves the mobile app's REST API: accounts and sign-in,
daily health metrics with threshold checks, Premium subscriptions and
the admin dashboard.

COMMANDS:

  $ healthmate serve                 # Run the HTTP API
  $ healthmate migrate               # Create or update the PostgreSQL schema
  $ healthmate create-admin --email admin@example.com --password secret123

CONFIGURATION:

  Settings come from environment variables. A .env file in the working
  directory or one of its two parents is loaded first when present.
  JWT_SECRET and REFRESH_TOKEN_SECRET are always required.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		path, err := config.LoadDotEnv()
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Loaded environment from: %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}
