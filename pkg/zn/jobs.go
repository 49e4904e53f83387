package zn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Job statuses the client branches on. The server defines further terminal
// values ad hoc (FAILED, and possibly others); the client deliberately
// treats "terminal" as the open set of everything outside PENDING/RUNNING
// instead of enumerating a closed list.
const (
	StatusPending  = "PENDING"
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
)

const pollIterationCounter = "job_poll_iterations_total"

// IsTerminal reports whether a job status will no longer change.
func IsTerminal(status string) bool {
	return status != StatusPending && status != StatusRunning
}

// RunPolicy starts a job for the policy and returns the new job ID. A
// response from which no job ID can be extracted is fatal; it usually means
// the body was an error object instead of a run confirmation.
func (c *Client) RunPolicy(ctx context.Context, policyID string) (string, error) {
	if policyID == "" {
		return "", fmt.Errorf("policy id cannot be empty")
	}
	raw, err := c.Post(ctx, fmt.Sprintf("policies/%s/run", policyID), nil)
	if err != nil {
		return "", err
	}
	classified, err := Classify(raw)
	if err != nil {
		return "", fmt.Errorf("running policy %s: %w", policyID, err)
	}
	jobID, err := extractJobID(classified)
	if err != nil {
		return "", fmt.Errorf("running policy %s: %w", policyID, err)
	}
	c.logger.Info("job started", zap.String("policy", policyID), zap.String("job", jobID))
	return jobID, nil
}

// UploadIssues uploads a local results file to the job's issue-upload
// endpoint as multipart form data. Only upload-oriented policies accept
// this; data-load policies skip straight from run to resume.
func (c *Client) UploadIssues(ctx context.Context, jobID, filePath string) error {
	if jobID == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	raw, err := c.Upload(ctx, fmt.Sprintf("onprem/issues/%s", jobID), "file", filePath)
	if err != nil {
		return err
	}
	if _, err := Classify(raw); err != nil && !errors.Is(err, ErrEmptyResponse) {
		return fmt.Errorf("uploading issues to job %s: %w", jobID, err)
	}
	c.logger.Info("issues uploaded", zap.String("job", jobID), zap.String("file", filePath))
	return nil
}

// ResumeJob signals the server to proceed from a paused/pending state,
// typically after an upload.
func (c *Client) ResumeJob(ctx context.Context, jobID string) error {
	raw, err := c.Post(ctx, fmt.Sprintf("jobs/%s/resume", jobID), nil)
	if err != nil {
		return err
	}
	// A bare 200 with no body is the normal resume acknowledgement.
	if _, err := Classify(raw); err != nil && !errors.Is(err, ErrEmptyResponse) {
		return fmt.Errorf("resuming job %s: %w", jobID, err)
	}
	return nil
}

// FailJob marks the job failed server-side. Used to avoid leaving a job
// stuck in PENDING when an upload sequence aborts midway.
func (c *Client) FailJob(ctx context.Context, jobID string) error {
	raw, err := c.Post(ctx, fmt.Sprintf("jobs/%s/fail", jobID), nil)
	if err != nil {
		return err
	}
	if _, err := Classify(raw); err != nil && !errors.Is(err, ErrEmptyResponse) {
		return fmt.Errorf("failing job %s: %w", jobID, err)
	}
	return nil
}

// JobStatus fetches the job's current status.
func (c *Client) JobStatus(ctx context.Context, jobID string) (string, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("jobs/%s", jobID))
	if err != nil {
		return "", err
	}
	classified, err := Classify(raw)
	if err != nil {
		return "", fmt.Errorf("fetching job %s: %w", jobID, err)
	}
	var job struct {
		Status string `json:"status"`
		Data   struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(classified, &job); err != nil {
		return "", fmt.Errorf("fetching job %s: %w", jobID, ErrMalformedResponse)
	}
	status := job.Data.Status
	if status == "" {
		status = job.Status
	}
	if status == "" {
		return "", fmt.Errorf("job %s response carries no status", jobID)
	}
	return status, nil
}

// PollJob re-checks the job every interval until the status leaves
// {PENDING, RUNNING} and returns the final status. The wait is bounded by
// the context: pass a context.WithTimeout to cap the total wait, or a
// plain context to wait indefinitely (the historical behavior, which can
// hang forever if the remote job never terminates).
func (c *Client) PollJob(ctx context.Context, jobID string, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	for {
		status, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return "", err
		}
		if c.collector != nil {
			_ = c.collector.AddCounter(ctx, pollIterationCounter, 1, jobID) //nolint:errcheck
		}
		if IsTerminal(status) {
			c.logger.Info("job reached terminal status",
				zap.String("job", jobID), zap.String("status", status))
			return status, nil
		}
		c.logger.Info("job still in progress",
			zap.String("job", jobID), zap.String("status", status))
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("polling job %s (last status %s): %w", jobID, status, ctx.Err())
		case <-time.After(interval):
		}
	}
}

// extractJobID handles the two run-response shapes the API produces: a
// bare JSON string holding the ID, or an object with a jobId (or id) field.
func extractJobID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var obj struct {
		JobID string `json:"jobId"`
		ID    string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.JobID != "" {
			return obj.JobID, nil
		}
		if obj.ID != "" {
			return obj.ID, nil
		}
	}
	return "", fmt.Errorf("response carries no job id")
}
