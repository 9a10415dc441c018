package domain

import (
	"errors"
	"time"
)

// BatchStatus represents the provider-side processing state of a batch job.
type BatchStatus string

// Possible batch status values.
const (
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusEnded      BatchStatus = "ended"
)

// BatchOutcome represents the terminal outcome of a single request within a
// batch job.
type BatchOutcome string

// Possible per-request batch outcomes.
const (
	BatchOutcomeSucceeded BatchOutcome = "succeeded"
	BatchOutcomeErrored   BatchOutcome = "errored"
	BatchOutcomeCanceled  BatchOutcome = "canceled"
	BatchOutcomeExpired   BatchOutcome = "expired"
)

// Common validation errors for batch types.
var (
	ErrEmptyBatchID       = errors.New("batch job ID cannot be empty")
	ErrInvalidBatchStatus = errors.New("invalid batch status")
)

// BatchCounts aggregates per-outcome request counts reported by the provider
// while a batch job is running and once it has ended.
type BatchCounts struct {
	Processing int
	Succeeded  int
	Errored    int
	Canceled   int
	Expired    int
}

// BatchJob is the pollable handle for an asynchronous, provider-side unit of
// work covering many prompts. The job is owned by the provider; the pipeline
// only reads its status and, once ended, its terminal results.
type BatchJob struct {
	ID         string
	Status     BatchStatus
	Counts     BatchCounts
	ResultsURL string
	CreatedAt  time.Time
}

// Validate checks that the BatchJob carries an ID and a known status.
func (j *BatchJob) Validate() error {
	if j.ID == "" {
		return ErrEmptyBatchID
	}

	switch j.Status {
	case BatchStatusInProgress, BatchStatusEnded:
		return nil
	default:
		return ErrInvalidBatchStatus
	}
}

// Ended reports whether the job has reached its terminal state.
func (j *BatchJob) Ended() bool {
	return j.Status == BatchStatusEnded
}

// BatchResult is one terminal result from an ended batch job, linked back to
// its originating request by the caller-assigned correlation identifier.
// Text is populated only for succeeded outcomes; ErrorInfo only for errored
// ones.
type BatchResult struct {
	CustomID  string
	Outcome   BatchOutcome
	Text      string
	ErrorInfo string
}
