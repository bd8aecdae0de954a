package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	job := &Job{
		ID:         "job-1",
		Type:       JobTypeRefundSync,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("gateway unreachable")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
	assert.False(t, job.IsRetryable())
}

func TestJobRetryLimit(t *testing.T) {
	job := &Job{ID: "job-2", Type: JobTypeReceiptEmail, MaxRetries: 2}

	job.MarkAsFailed("smtp timeout")
	assert.True(t, job.IsRetryable())
	job.MarkAsFailed("smtp timeout")
	assert.False(t, job.IsRetryable())
}

func TestRefundSyncPayloadRoundTrip(t *testing.T) {
	in := RefundSyncJobPayload{TransactionID: 42, PublicID: "TXN-ABC123", UserID: 7}

	out, err := RefundSyncJobPayloadFromMap(in.ToMap())
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}
