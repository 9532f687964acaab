package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/wealth-advisor/internal/cli"
	"github.com/Veraticus/wealth-advisor/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run catalog database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			status, _ := cmd.Flags().GetBool("status")
			if status {
				store, err := storage.NewSQLiteStorage(settings.Database.Path)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()

				current, err := store.SchemaVersion(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to read schema version: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\nSchema version: %d (latest %d)\n",
					store.Path(), current, storage.ExpectedSchemaVersion)
				return nil
			}

			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Database at schema version %d", storage.ExpectedSchemaVersion)))
			return nil
		},
	}

	cmd.Flags().Bool("status", false, "show current schema version without migrating")
	return cmd
}
