package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/wealth-advisor/internal/cli"
	"github.com/Veraticus/wealth-advisor/internal/config"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Import clients and products from a JSON seed file",
		Long: `Import a seed file of the form

  {"clients": {"C001": {...}}, "products": [{...}]}

into the catalog. Existing rows with the same id are replaced. The whole
file is imported in one transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			f, err := os.Open(config.ExpandPath(args[0]))
			if err != nil {
				return fmt.Errorf("failed to open seed file: %w", err)
			}
			defer func() { _ = f.Close() }()

			result, err := store.ImportSeed(cmd.Context(), f)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Imported %d clients and %d products", result.Clients, result.Products)))
			return nil
		},
	}
}
