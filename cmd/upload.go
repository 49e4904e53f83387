package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeronorth-oss/znctl/internal/log"
	"github.com/zeronorth-oss/znctl/internal/metrics"
)

// newUploadCmd creates the upload command.
func newUploadCmd() *cobra.Command {
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a results file to an existing job",
		Long: `Upload posts a local results file to a job's issue-upload endpoint and
optionally resumes the job afterwards. Use it when the job was started by
another process (for example a scanner container) and only the upload step
remains.`,
		RunE: runUpload,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkRequiredFlags(cmd, []string{"job", "file"})
		},
	}

	uploadCmd.Flags().StringP("job", "j", "", "Job ID to upload to")
	uploadCmd.Flags().StringP("file", "f", "", "Results file to upload")
	uploadCmd.Flags().Bool("resume", false, "Resume the job after a successful upload")

	return uploadCmd
}

// runUpload executes the upload workflow.
func runUpload(cmd *cobra.Command, _ []string) error {
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

	jobID, _ := cmd.Flags().GetString("job")    //nolint:errcheck
	filePath, _ := cmd.Flags().GetString("file") //nolint:errcheck
	resume, _ := cmd.Flags().GetBool("resume")  //nolint:errcheck

	if err := client.UploadIssues(ctx, jobID, filePath); err != nil {
		return fmt.Errorf("error uploading results: %w", err)
	}
	if resume {
		if err := client.ResumeJob(ctx, jobID); err != nil {
			return fmt.Errorf("error resuming job: %w", err)
		}
	}
	return nil
}
