package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/wealth-advisor/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the advisor HTTP API",
		Long: `Start the HTTP API. Analyses are requested with
GET /client_analysis/{client_id} and history is browsed under
/client_analysis/{client_id}/history.`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		settings.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		settings.Server.Port = port
	}

	a, err := initApp(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.service, server.Config{
		Host:    settings.Server.Host,
		Port:    settings.Server.Port,
		Origin:  settings.Server.Origin,
		Version: version,
	})

	slog.Info("Advisor API ready",
		"catalog", a.catalog.Path(),
		"history", settings.Storage.Dir,
		"model", settings.Gemini.Model)

	return srv.Run(ctx)
}
