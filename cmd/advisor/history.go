package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/wealth-advisor/internal/cli"
	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/history"
	"github.com/Veraticus/wealth-advisor/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and prune stored analyses",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyDeleteCmd())
	cmd.AddCommand(historyStatsCmd())
	cmd.AddCommand(historyRangeCmd())

	return cmd
}

// withHistory opens the history store for the duration of fn.
func withHistory(fn func(*history.Store) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initHistory(settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <client-id>",
		Short: "List a client's analyses, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(func(store *history.Store) error {
				records, err := store.ForClient(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
					return printJSON(cmd.OutOrStdout(), records)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRecords(records))
				return nil
			})
		},
	}
	cmd.Flags().Bool("json", false, "print as JSON")
	return cmd
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show a client's most recent analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(func(store *history.Store) error {
				record, err := store.Latest(cmd.Context(), args[0])
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("no analysis found for client %s", args[0])
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), record)
			})
		},
	}
}

func historyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <client-id>",
		Short: "Delete a client's analyses",
		Long: `Delete every analysis for a client, or a single one when --timestamp or
--record is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID := args[0]
			timestamp, _ := cmd.Flags().GetString("timestamp")
			recordID, _ := cmd.Flags().GetString("record")
			if timestamp != "" && recordID != "" {
				return fmt.Errorf("--timestamp and --record are mutually exclusive")
			}

			return withHistory(func(store *history.Store) error {
				var (
					err  error
					what string
				)
				switch {
				case timestamp != "":
					err = store.DeleteOne(cmd.Context(), clientID, timestamp)
					what = "analysis " + timestamp
				case recordID != "":
					err = store.DeleteByID(cmd.Context(), clientID, recordID)
					what = "analysis " + recordID
				default:
					err = store.DeleteAll(cmd.Context(), clientID)
					what = "all analyses"
				}
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("nothing to delete for client %s", clientID)
				}
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Deleted %s for client %s", what, clientID)))
				return nil
			})
		},
	}
	cmd.Flags().String("timestamp", "", "delete only the analysis with this timestamp")
	cmd.Flags().String("record", "", "delete only the analysis with this record id")
	return cmd
}

func historyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHistory(func(store *history.Store) error {
				total, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				ids, err := store.ClientIDs(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderStats(service.HistoryStats{
					ClientIDs:     ids,
					TotalAnalyses: total,
				}))
				return nil
			})
		},
	}
}

func historyRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Show analyses made between two dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startStr, _ := cmd.Flags().GetString("start")
			endStr, _ := cmd.Flags().GetString("end")

			start, err := time.ParseInLocation(time.DateOnly, startStr, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end := time.Now().UTC()
			if endStr != "" {
				day, err := time.ParseInLocation(time.DateOnly, endStr, time.UTC)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				end = day.Add(24*time.Hour - time.Nanosecond)
			}

			return withHistory(func(store *history.Store) error {
				results, err := store.ByDateRange(cmd.Context(), start, end)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), results)
			})
		},
	}
	cmd.Flags().String("start", "", "first day, YYYY-MM-DD")
	cmd.Flags().String("end", "", "last day, YYYY-MM-DD (default: now)")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
