// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/config"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/store"
	"github.com/TheQuangNguyen/DevConnector-Project/pkg/errutil"
)

// migratorFactory is replaced in tests.
var migratorFactory = func(databaseURL string) (Migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back the PostgreSQL schema. The database URL is read
from --database-url, DEVCONNECTOR_DATABASE_URL, DATABASE_URL or the config file.`,
	}
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")

	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd(), newMigrateVersionCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m Migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops all users)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").
					Errorf("migrate down drops every user; rerun with --yes to confirm")
			}
			return withMigrator(cmd, func(m Migrator) error {
				cmd.Println("Rolling back migrations...")
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Rollback completed")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm dropping all data")
	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied and latest schema versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m Migrator) error {
				current, dirty, err := m.Version()
				if err != nil {
					return err
				}
				latest, err := store.LatestVersion()
				if err != nil {
					return err
				}
				cmd.Printf("current: %d\nlatest:  %d\n", current, latest)
				if dirty {
					cmd.Println("WARNING: schema is dirty; the last migration failed partway")
				}
				return nil
			})
		},
	}
}

// withMigrator resolves the database URL, opens a migrator and runs fn.
func withMigrator(cmd *cobra.Command, fn func(Migrator) error) error {
	cfg, err := config.LoadUnvalidated(loadOptions(cmd))
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("field", "database.url").
			Errorf("database.url is required (set --database-url or DATABASE_URL)")
	}

	m, err := migratorFactory(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			errutil.LogError(slog.Default(), "close migrator", closeErr)
		}
	}()

	return fn(m)
}
