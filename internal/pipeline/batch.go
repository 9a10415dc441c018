package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/docdistill/internal/domain"
	"github.com/phrazzld/docdistill/internal/generation"
	"github.com/phrazzld/docdistill/internal/prompt"
	"github.com/phrazzld/docdistill/internal/reply"
	"github.com/phrazzld/docdistill/internal/store"
)

// Batch dispatches every outstanding prompt as a single provider-side batch
// job, polls it to completion, and persists the succeeded results in one
// pass. Resumption is count-based: each run recounts the dataset and submits
// only the shortfall per entry.
type Batch struct {
	provider generation.BatchProvider
	prompts  *prompt.Builder
	records  *store.RecordStore
	logger   *slog.Logger

	target       int
	temperature  float32
	pollInterval time.Duration
	maxPollWait  time.Duration
}

// BatchConfig carries the knobs for a batch run.
type BatchConfig struct {
	// PairsPerEntry is the target number of persisted pairs per entry.
	PairsPerEntry int

	// Temperature is passed through on every request in the submission.
	Temperature float32

	// PollInterval is the fixed delay between status polls.
	PollInterval time.Duration

	// MaxPollWait bounds the total time spent polling. Zero means poll
	// until the job ends.
	MaxPollWait time.Duration
}

// NewBatch creates a batch runner. It fails with ErrBatchUnsupported when the
// provider has no batch API.
func NewBatch(
	provider generation.Provider,
	prompts *prompt.Builder,
	records *store.RecordStore,
	logger *slog.Logger,
	cfg BatchConfig,
) (*Batch, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if prompts == nil {
		return nil, ErrNilPromptBuilder
	}
	if records == nil {
		return nil, ErrNilRecordStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if cfg.PairsPerEntry <= 0 {
		return nil, ErrInvalidTarget
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}

	batcher, ok := provider.(generation.BatchProvider)
	if !ok {
		return nil, generation.ErrBatchUnsupported
	}

	return &Batch{
		provider:     batcher,
		prompts:      prompts,
		records:      records,
		logger:       logger,
		target:       cfg.PairsPerEntry,
		temperature:  cfg.Temperature,
		pollInterval: cfg.PollInterval,
		maxPollWait:  cfg.MaxPollWait,
	}, nil
}

// Run computes the per-entry shortfall, submits one batch covering it, polls
// until the job ends, and appends the succeeded results. Entries whose
// requests ended errored, canceled, or expired are logged and left with
// their shortfall for a later run.
func (b *Batch) Run(ctx context.Context, entries []domain.Entry) error {
	// Every log line of one invocation shares a run ID, so interleaved or
	// archived logs stay attributable.
	logger := b.logger.With("run_id", uuid.NewString())

	counts, err := b.records.CountBySource()
	if err != nil {
		return err
	}

	requests, lookup, needed := b.buildRequests(logger, entries, counts)
	if len(requests) == 0 {
		logger.Info("all entries already at target, nothing to submit")
		return nil
	}

	job, err := b.provider.SubmitBatch(ctx, requests)
	if err != nil {
		return err
	}
	logger.Info("batch submitted", "job_id", job.ID, "requests", len(requests))

	job, err = b.awaitEnd(ctx, logger, job)
	if err != nil {
		return err
	}
	logger.Info("batch ended",
		"job_id", job.ID,
		"succeeded", job.Counts.Succeeded,
		"errored", job.Counts.Errored,
		"canceled", job.Counts.Canceled,
		"expired", job.Counts.Expired)

	results, err := b.provider.FetchBatchResults(ctx, job.ResultsURL)
	if err != nil {
		return err
	}

	return b.persistResults(logger, results, lookup, needed)
}

// buildRequests turns entries with a shortfall into batch requests, returning
// the requests, a custom_id lookup back to the originating entry, and the
// per-source shortfall used later to cap over-delivery.
func (b *Batch) buildRequests(logger *slog.Logger, entries []domain.Entry, counts map[string]int) ([]generation.BatchRequest, map[string]domain.Entry, map[string]int) {
	opts := generation.GenerateOptions{Temperature: b.temperature}

	var requests []generation.BatchRequest
	lookup := make(map[string]domain.Entry)
	needed := make(map[string]int)

	for i, entry := range entries {
		shortfall := b.target - counts[entry.ID]
		if shortfall <= 0 {
			logger.Debug("entry already complete", "source", entry.ID)
			continue
		}

		promptText, err := b.prompts.Build(entry.ID, entry.Content, shortfall)
		if err != nil {
			logger.Warn("failed to build prompt, skipping entry", "source", entry.ID, "error", err)
			continue
		}

		id := CorrelationID(entry.ID, i)
		lookup[id] = entry
		needed[entry.ID] = shortfall
		requests = append(requests, generation.BatchRequest{
			CustomID: id,
			Prompt:   promptText,
			Opts:     opts,
		})
	}

	return requests, lookup, needed
}

// awaitEnd polls the job at the configured interval until it reaches its
// terminal state, the context is canceled, or the optional wait ceiling is
// exceeded.
func (b *Batch) awaitEnd(ctx context.Context, logger *slog.Logger, job *domain.BatchJob) (*domain.BatchJob, error) {
	if job.Ended() {
		return job, nil
	}

	var deadline <-chan time.Time
	if b.maxPollWait > 0 {
		timer := time.NewTimer(b.maxPollWait)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, ErrPollTimeout
		case <-ticker.C:
			polled, err := b.provider.PollBatch(ctx, job.ID)
			if err != nil {
				return nil, err
			}
			logger.Debug("batch poll",
				"job_id", polled.ID,
				"status", string(polled.Status),
				"processing", polled.Counts.Processing)
			if polled.Ended() {
				return polled, nil
			}
		}
	}
}

// persistResults parses every succeeded result and appends all records in a
// single write. Non-succeeded outcomes and unknown correlation IDs are logged
// and skipped.
func (b *Batch) persistResults(logger *slog.Logger, results []domain.BatchResult, lookup map[string]domain.Entry, needed map[string]int) error {
	var records []domain.Record

	for _, result := range results {
		entry, ok := lookup[result.CustomID]
		if !ok {
			logger.Warn("result with unknown correlation ID, skipping", "custom_id", result.CustomID)
			continue
		}

		if result.Outcome != domain.BatchOutcomeSucceeded {
			logger.Warn("request did not succeed, entry keeps its shortfall",
				"source", entry.ID,
				"outcome", string(result.Outcome),
				"error", result.ErrorInfo)
			continue
		}

		pairs := reply.Parse(result.Text)
		if len(pairs) == 0 {
			logger.Warn("reply contained no parseable pairs, skipping entry", "source", entry.ID)
			continue
		}
		if limit := needed[entry.ID]; len(pairs) > limit {
			pairs = pairs[:limit]
		}

		for _, pair := range pairs {
			record, err := domain.NewRecord(entry.ID, pair)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
	}

	if err := b.records.Append(records); err != nil {
		return err
	}

	logger.Info("batch results persisted", "records", len(records))
	return nil
}
