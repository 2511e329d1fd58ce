// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/docvault/docvault/internal/store"
)

// newMigrateCmd creates the migrate subcommand tree.
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, and inspect schema migrations against the PostgreSQL database.`,
	}

	cmd.PersistentFlags().String("database_url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())

	return cmd
}

func migratorFromFlags(cmd *cobra.Command) (*store.Migrator, error) {
	databaseURL, err := cmd.Flags().GetString("database_url")
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if databaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("database_url flag or DATABASE_URL environment variable is required")
	}
	return store.NewMigrator(databaseURL)
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := migratorFromFlags(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = migrator.Close() }()

			pending, err := migrator.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("No pending migrations")
				return nil
			}

			cmd.Printf("Applying %d migration(s)...\n", len(pending))
			if err := migrator.Up(); err != nil {
				return err
			}
			cmd.Println("Migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := migratorFromFlags(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = migrator.Close() }()

			if err := migrator.Steps(-1); err != nil {
				return err
			}
			cmd.Println("Rolled back one migration")
			return nil
		},
	}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := migratorFromFlags(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = migrator.Close() }()

			version, dirty, err := migrator.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				cmd.Println("Schema version: none")
			} else {
				name, nameErr := store.MigrationName(version)
				if nameErr != nil {
					name = "unknown"
				}
				cmd.Printf("Schema version: %d (%s)\n", version, name)
			}
			if dirty {
				cmd.Println("WARNING: schema is dirty; a migration failed mid-run")
			}

			pending, err := migrator.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("No pending migrations")
				return nil
			}
			cmd.Printf("Pending migrations: %d\n", len(pending))
			for _, v := range pending {
				name, nameErr := store.MigrationName(v)
				if nameErr != nil {
					name = "unknown"
				}
				cmd.Printf("  %d  %s\n", v, name)
			}
			return nil
		},
	}
}
