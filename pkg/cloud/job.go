package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// AsyncJobStateUnknownDetail carries the {operation, job_id, reason}
// payload spec section 4.9 requires when job-status polling itself fails:
// "the provider returns AsyncJobStateUnknown carrying {operation, job_id,
// reason}; this error is not retried and not failed over to the one-shot
// CLI, because the remote job may still be running."
type AsyncJobStateUnknownDetail struct {
	Operation string
	JobID     string
	Reason    string
}

func (d AsyncJobStateUnknownDetail) Error() string {
	return fmt.Sprintf("async job state unknown for %s (job %s): %s", d.Operation, d.JobID, d.Reason)
}

// JobStatusFetcher polls a single job-status check, returning whether the
// job has finished and any job-level error it completed with.
type JobStatusFetcher func(ctx context.Context, jobID string) (finished bool, jobErr error, pollErr error)

// JobStopper requests cancellation of an in-flight async job.
type JobStopper func(ctx context.Context, jobID string) error

// PollAsyncJob polls fetchStatus every jobPollInterval until the job
// finishes, the context's AsyncJobBudget elapses, or job reports
// cancellation (in which case stop is invoked once). A poll failure is
// terminal: it is wrapped in browseyerr with code AsyncJobStateUnknown and
// returned immediately without further retries.
func PollAsyncJob(ctx context.Context, operation, jobID string, fetchStatus JobStatusFetcher, stop JobStopper, job JobControl) error {
	deadline := time.Now().Add(AsyncJobBudget)
	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()

	for {
		if job != nil && job.Cancelled() {
			if stop != nil {
				_ = stop(ctx, jobID)
			}
			return browseyerr.New(browseyerr.Cancelled, "cloud operation cancelled")
		}
		if time.Now().After(deadline) {
			return browseyerr.New(browseyerr.Timeout, "async job did not finish within its budget")
		}

		finished, jobErr, pollErr := fetchStatus(ctx, jobID)
		if pollErr != nil {
			// The remote job may still be running even though we can no
			// longer observe it; still issue job/stop so the backend at
			// least attempts to end it, per spec section 8 scenario 6
			// ("job/stop was called exactly once"). Its own result is
			// ignored — the caller already can't trust the job's state
			// either way, which is exactly why this error is terminal.
			if stop != nil {
				_ = stop(ctx, jobID)
			}
			return browseyerr.Wrap(browseyerr.AsyncJobStateUnknown, AsyncJobStateUnknownDetail{
				Operation: operation,
				JobID:     jobID,
				Reason:    pollErr.Error(),
			}, "unable to confirm async job completion; destination state must be verified manually")
		}
		if finished {
			return jobErr
		}

		select {
		case <-ctx.Done():
			return browseyerr.New(browseyerr.Cancelled, "cloud operation cancelled")
		case <-ticker.C:
		}
	}
}
