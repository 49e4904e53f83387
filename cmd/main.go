package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeronorth-oss/znctl/internal/metrics"
	"github.com/zeronorth-oss/znctl/internal/pprof"
)

// errFlagRetrieval is the error message for when a flag cannot be retrieved.
var errFlagRetrieval = errors.New("error getting flag")

// errRequiredFlagEmpty is the error message for a required flag that is empty.
var errRequiredFlagEmpty = errors.New("is required and cannot be empty")

// Execute is the main entry point for the CLI.
func Execute(args []string) {
	rootCmd := newRootCmd()
	rootCmd.Version = fmt.Sprintf(`{"version": "%s", "commit": "%s"}`, Version, CommitSHA)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "znctl",
		Short: "znctl automates operator workflows against the ZeroNorth orchestration API",
		Long: `znctl resolves named resources (targets, policies, applications), creates them
when absent, runs policies and drives the resulting jobs to completion, and
extracts inventory as CSV or JSON by paginating the list endpoints.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("api-key-file", "k", "",
		"Path to a file holding the API token (falls back to the ZN_API_KEY environment variable)")
	rootCmd.PersistentFlags().String("api-url", "https://api.zeronorth.io/v1", "API root URL")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Optional YAML config file")
	rootCmd.PersistentFlags().Int("page-size", 100, "Page size for list endpoints")
	rootCmd.PersistentFlags().String("debug-addr", "",
		"Optional address for a pprof/metrics debug server during long operations")

	rootCmd.AddCommand(
		newRunCmd(),
		newUploadCmd(),
		newEnsureCmd(),
		newExportCmd(),
		newSyncCmd(),
		newWhoamiCmd(),
	)

	return rootCmd
}

// checkRequiredFlags verifies every named string flag is present and non-empty.
func checkRequiredFlags(cmd *cobra.Command, requiredFlags []string) error {
	for _, flag := range requiredFlags {
		value, err := cmd.Flags().GetString(flag)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", errFlagRetrieval, flag, err)
		}
		if value == "" {
			return fmt.Errorf("%s %w", flag, errRequiredFlagEmpty)
		}
	}
	return nil
}

// startDebugServer starts the optional pprof/metrics server when
// --debug-addr is set. It returns a cancel func for the server context.
func startDebugServer(ctx context.Context, cmd *cobra.Command) context.CancelFunc {
	addr, _ := cmd.Flags().GetString("debug-addr") //nolint:errcheck
	serverCtx, cancel := context.WithCancel(ctx)
	if addr == "" {
		return cancel
	}
	collector := metrics.FromContext(ctx, metricsNamespace)
	go pprof.StartDebugServer(serverCtx, addr, collector) //nolint:errcheck
	return cancel
}
