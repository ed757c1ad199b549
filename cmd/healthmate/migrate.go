package main

import (
	"context"
	"errors"
	"time"

	"healthmate/internal/adapter/postgres"
	"healthmate/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the PostgreSQL schema",
	Long: `Apply the schema to the database named by DATABASE_URL.

Every statement is idempotent, so running it against an up-to-date
database changes nothing. 'serve' applies the same schema on start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return errors.New("DATABASE_URL is required")
		}

		db, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		color.Green("✓ Schema is up to date")
		return nil
	},
}
