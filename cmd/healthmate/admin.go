package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"healthmate/internal/adapter/memory"
	"healthmate/internal/app"
	"healthmate/internal/config"
	"healthmate/internal/domain"
	"healthmate/internal/logging"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Create an account with the admin role. Admins can read the dashboard
endpoints under /api/v1/dashboard.

  $ healthmate create-admin --email ops@example.com --password s3cretpass`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail == "" || len(adminPassword) < 8 {
			return errors.New("--email and a --password of at least 8 characters are required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := logging.NewDevelopment()
		defer func() { _ = logger.Sync() }()

		st, err := openStorage(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.close() }()

		tokens, err := newTokenIssuer(cfg)
		if err != nil {
			return err
		}
		auth := app.NewAuthService(st.users, st.subs, memory.NewKV(), memory.NewOutbox(logger), nil, tokens,
			app.AuthConfig{AppName: cfg.AppName}, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		email := strings.ToLower(strings.TrimSpace(adminEmail))
		exists, err := auth.CheckEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("an account for %s already exists", email)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := &domain.User{Email: email, Name: adminName, Role: domain.RoleAdmin, PasswordHash: string(hash)}
		if err := auth.CreateAccount(ctx, u); err != nil {
			return err
		}

		color.Green("✓ Created admin %s", email)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprintf("id %d", u.ID))
		if cfg.Database.URL == "" {
			color.Yellow("DATABASE_URL is not set: the account only lived in memory for this run.")
		}
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (at least 8 characters)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "display name")
}
