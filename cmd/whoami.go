package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeronorth-oss/znctl/internal/log"
	"github.com/zeronorth-oss/znctl/internal/metrics"
)

// newWhoamiCmd creates the whoami command.
func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the configured credential",
		RunE:  runWhoami,
	}
}

// runWhoami fetches and prints the authenticated account.
func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := metrics.WithMetrics(context.Background(), metricsNamespace)
	logger := log.NewLogger(ctx)

	config, err := getConfigFromFlags(cmd)
	if err != nil {
		return fmt.Errorf("error getting config from flags: %w", err)
	}
	client, err := newAPIClient(ctx, config, logger)
	if err != nil {
		return err
	}

	account, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("error fetching account: %w", err)
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(account); err != nil {
		return fmt.Errorf("error encoding account: %w", err)
	}
	return nil
}
