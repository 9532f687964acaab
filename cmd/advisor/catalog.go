package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/wealth-advisor/internal/cli"
	"github.com/Veraticus/wealth-advisor/internal/model"
)

func clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List client profiles in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			clients, err := store.ListClients(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), clients)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderClients(clients))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print as JSON")
	return cmd
}

func productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List investment products in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var products []model.Product
			if risk, _ := cmd.Flags().GetString("risk"); risk != "" {
				level := model.ParseRiskLevel(risk)
				if !level.Valid() {
					return fmt.Errorf("unknown risk level %q (want low, medium or high)", risk)
				}
				products, err = store.ListProductsByRisk(cmd.Context(), level)
			} else {
				products, err = store.ListProducts(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), products)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderProducts(products))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print as JSON")
	cmd.Flags().String("risk", "", "only show products at this risk level")
	return cmd
}
