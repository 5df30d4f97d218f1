package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/cli"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/config"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/storage"
)

func migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates automatically on startup; this command exists
for explicit schema management and status checks.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dbPath := config.DatabasePath()

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if statusOnly {
				version, err := store.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Database: %s\n", dbPath)
				fmt.Printf("Schema version: %d (latest: %d)\n", version, storage.ExpectedSchemaVersion)
				if version < storage.ExpectedSchemaVersion {
					fmt.Println(cli.FormatWarning("Schema is out of date; run 'claimtrack migrate'"))
				}
				return nil
			}

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Database migrated to version %d (%s)", storage.ExpectedSchemaVersion, dbPath)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "show current migration status without applying changes")

	return cmd
}
