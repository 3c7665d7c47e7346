// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package main

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/spyglass/spyglass/internal/config"
	"github.com/spyglass/spyglass/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, down)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back one migration instead of migrating up")
	cmd.Flags().String("database-url", "", "postgres connection string")

	return cmd
}

func runMigrate(cmd *cobra.Command, down bool) error {
	databaseURL, _ := cmd.Flags().GetString("database-url")
	if databaseURL == "" {
		cfg, err := config.Load(resolveConfigPath(), nil)
		if err != nil {
			return err
		}
		databaseURL = cfg.DatabaseURL
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	if down {
		cmd.Println("Rolling back one migration...")
		if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	} else {
		cmd.Println("Running migrations...")
		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	}

	v, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	cmd.Printf("Migrations completed (version %d, dirty %t)\n", v, dirty)
	return nil
}
