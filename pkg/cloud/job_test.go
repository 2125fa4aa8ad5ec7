package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

type fakeJobControl struct {
	cancelled bool
}

func (f *fakeJobControl) Cancelled() bool { return f.cancelled }

func TestPollAsyncJobSucceedsOnFinish(t *testing.T) {
	attempts := 0
	fetch := func(ctx context.Context, jobID string) (bool, error, error) {
		attempts++
		if attempts < 3 {
			return false, nil, nil
		}
		return true, nil, nil
	}
	err := PollAsyncJob(context.Background(), "copy", "42", fetch, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestPollAsyncJobReturnsJobError(t *testing.T) {
	fetch := func(ctx context.Context, jobID string) (bool, error, error) {
		return true, browseyerr.New(browseyerr.NotFound, "remote vanished"), nil
	}
	err := PollAsyncJob(context.Background(), "copy", "42", fetch, nil, nil)
	require.Error(t, err)
	require.Equal(t, browseyerr.NotFound, browseyerr.CodeOf(err))
}

func TestPollAsyncJobPollFailureIsTerminalAsyncJobStateUnknown(t *testing.T) {
	fetch := func(ctx context.Context, jobID string) (bool, error, error) {
		return false, nil, errors.New("connection lost")
	}
	err := PollAsyncJob(context.Background(), "move", "7", fetch, nil, nil)
	require.Error(t, err)
	require.Equal(t, browseyerr.AsyncJobStateUnknown, browseyerr.CodeOf(err))

	var detail AsyncJobStateUnknownDetail
	require.ErrorAs(t, err, &detail)
	require.Equal(t, "move", detail.Operation)
	require.Equal(t, "7", detail.JobID)
}

func TestPollAsyncJobPollFailureStopsJobExactlyOnce(t *testing.T) {
	stopCalls := 0
	fetch := func(ctx context.Context, jobID string) (bool, error, error) {
		return false, nil, errors.New("connection reset")
	}
	stop := func(ctx context.Context, jobID string) error {
		stopCalls++
		return nil
	}
	err := PollAsyncJob(context.Background(), "copy", "42", fetch, stop, nil)
	require.Error(t, err)
	require.Equal(t, browseyerr.AsyncJobStateUnknown, browseyerr.CodeOf(err))
	require.Equal(t, 1, stopCalls)
}

func TestPollAsyncJobCancellationStopsJob(t *testing.T) {
	job := &fakeJobControl{cancelled: true}
	stopCalled := false
	fetch := func(ctx context.Context, jobID string) (bool, error, error) {
		t.Fatal("fetch should not be called once cancelled")
		return false, nil, nil
	}
	stop := func(ctx context.Context, jobID string) error {
		stopCalled = true
		return nil
	}
	err := PollAsyncJob(context.Background(), "delete_dir_recursive", "9", fetch, stop, job)
	require.Error(t, err)
	require.Equal(t, browseyerr.Cancelled, browseyerr.CodeOf(err))
	require.True(t, stopCalled)
}
