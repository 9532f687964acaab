package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/wealth-advisor/internal/advisor"
	"github.com/Veraticus/wealth-advisor/internal/cli"
	"github.com/Veraticus/wealth-advisor/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <client-id>",
		Short: "Run a portfolio analysis for one client",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	cmd.Flags().Bool("json", false, "print the raw result envelope as JSON")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	clientID := args[0]
	asJSON, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	a, err := initApp(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()

	var progress advisor.ProgressFunc
	if !asJSON && !noProgress {
		bar := cli.NewProgress(cmd.ErrOrStderr())
		defer bar.Finish()
		progress = bar.Update
	}

	env, err := a.service.AnalyzeWithProgress(ctx, clientID, progress)
	if err != nil {
		return fmt.Errorf("analysis for %s failed: %w", clientID, err)
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), env)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderEnvelope(env))
	if env.Status != model.StatusSuccess {
		return fmt.Errorf("model analysis for %s did not succeed", clientID)
	}
	if env.RecordID == "" {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Analysis was not saved to history"))
	}
	return nil
}
