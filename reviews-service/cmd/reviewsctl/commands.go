package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes for reviews",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(ctx context.Context, l *ledger) error {
			if err := l.reviews.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("failed to ensure indexes: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "indexes are up to date")
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [user-id]",
	Short: "Print rating statistics for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(ctx context.Context, l *ledger) error {
			stats, err := l.service.GetStatsForUser(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), stats)
		})
	},
}

var reportedCmd = &cobra.Command{
	Use:   "reported",
	Short: "List reported reviews waiting for moderation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(ctx context.Context, l *ledger) error {
			reviews, err := l.service.ListReported(ctx)
			if err != nil {
				return fmt.Errorf("failed to list reported reviews: %w", err)
			}
			if len(reviews) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no reported reviews")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), reviews)
		})
	},
}
