package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeronorth-oss/znctl/internal/log"
	"github.com/zeronorth-oss/znctl/internal/metrics"
	"github.com/zeronorth-oss/znctl/pkg/zn"
)

// newRunCmd creates the run command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a policy and drive the resulting job to completion",
		Long: `Run resolves a policy by name (or takes its ID directly), starts a job,
optionally uploads a local results file and resumes the job, then polls the
job status until it leaves PENDING/RUNNING. The exit code reflects the final
job status.`,
		RunE: runPolicy,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			policy, _ := cmd.Flags().GetString("policy")       //nolint:errcheck
			policyID, _ := cmd.Flags().GetString("policy-id") //nolint:errcheck
			if policy == "" && policyID == "" {
				return fmt.Errorf("one of --policy or --policy-id %w", errRequiredFlagEmpty)
			}
			return nil
		},
	}

	runCmd.Flags().StringP("policy", "p", "", "Policy name to resolve and run")
	runCmd.Flags().String("policy-id", "", "Policy ID to run (skips name resolution)")
	runCmd.Flags().StringP("file", "f", "", "Optional results file to upload to the job")
	runCmd.Flags().Bool("no-wait", false, "Start the job and exit without polling")
	runCmd.Flags().Duration("interval", 10*time.Second, "Poll interval")
	runCmd.Flags().Duration("timeout", time.Hour, "Total poll bound; 0 waits forever")

	return runCmd
}

// runPolicy executes the run workflow.
func runPolicy(cmd *cobra.Command, _ []string) error {
	ctx := metrics.WithMetrics(context.Background(), metricsNamespace)
	logger := log.NewLogger(ctx)
	cancel := startDebugServer(ctx, cmd)
	defer cancel()

	config, err := getConfigFromFlags(cmd)
	if err != nil {
		return fmt.Errorf("error getting config from flags: %w", err)
	}
	client, err := newAPIClient(ctx, config, logger)
	if err != nil {
		return err
	}

	policyName, _ := cmd.Flags().GetString("policy")       //nolint:errcheck
	policyID, _ := cmd.Flags().GetString("policy-id")      //nolint:errcheck
	filePath, _ := cmd.Flags().GetString("file")           //nolint:errcheck
	noWait, _ := cmd.Flags().GetBool("no-wait")            //nolint:errcheck
	interval, _ := cmd.Flags().GetDuration("interval")     //nolint:errcheck
	timeout, _ := cmd.Flags().GetDuration("timeout")       //nolint:errcheck

	if policyID == "" {
		policyID, err = client.Resolve(ctx, zn.Policies, policyName)
		if err != nil {
			return fmt.Errorf("error resolving policy: %w", err)
		}
	}

	jobID, err := client.RunPolicy(ctx, policyID)
	if err != nil {
		return fmt.Errorf("error running policy: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), jobID)

	if filePath != "" {
		if err := client.UploadIssues(ctx, jobID, filePath); err != nil {
			// Leave no job dangling in PENDING; mark it failed best-effort.
			if failErr := client.FailJob(ctx, jobID); failErr != nil {
				logger.Warn("could not fail job after upload error",
					zap.String("job", jobID), zap.Error(failErr))
			}
			return fmt.Errorf("error uploading results: %w", err)
		}
		if err := client.ResumeJob(ctx, jobID); err != nil {
			return fmt.Errorf("error resuming job: %w", err)
		}
	}

	if noWait {
		logger.Info("job started, not waiting for completion", zap.String("job", jobID))
		return nil
	}

	pollCtx := ctx
	if timeout > 0 {
		var pollCancel context.CancelFunc
		pollCtx, pollCancel = context.WithTimeout(ctx, timeout)
		defer pollCancel()
	}
	status, err := client.PollJob(pollCtx, jobID, interval)
	if err != nil {
		return fmt.Errorf("error polling job: %w", err)
	}
	if status != zn.StatusFinished {
		return fmt.Errorf("job %s ended with status %s", jobID, status)
	}
	return nil
}
