package generation

import (
	"context"

	"github.com/phrazzld/docdistill/internal/domain"
)

// GenerateOptions carries per-request model parameters.
type GenerateOptions struct {
	// Temperature for sampling. The zero value is a valid temperature and is
	// passed through as-is.
	Temperature float32

	// MaxTokens caps the reply length. Zero lets the provider apply its own
	// default.
	MaxTokens int
}

// Provider is the minimal capability set every LLM provider offers:
// synchronous prompt completion and model discovery.
type Provider interface {
	// Name returns the provider's configuration name (e.g. "anthropic").
	Name() string

	// Generate sends one prompt and returns the model's raw text reply.
	// It fails with an error wrapping ErrProvider on a non-success
	// HTTP/SDK status.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Models lists the model identifiers the provider exposes.
	Models(ctx context.Context) ([]string, error)
}

// BatchRequest is one prompt within an asynchronous batch submission. The
// caller-assigned CustomID links the eventual result back to its originating
// entry.
type BatchRequest struct {
	CustomID string
	Prompt   string
	Opts     GenerateOptions
}

// BatchProvider is the optional capability set for providers with an
// asynchronous batch API. Callers discover support with a type assertion on
// a Provider value.
type BatchProvider interface {
	Provider

	// SubmitBatch submits all requests as a single provider-side job and
	// returns its pollable handle.
	SubmitBatch(ctx context.Context, requests []BatchRequest) (*domain.BatchJob, error)

	// PollBatch reads the job's current status and per-outcome counts.
	PollBatch(ctx context.Context, jobID string) (*domain.BatchJob, error)

	// FetchBatchResults retrieves the terminal results of an ended job from
	// the location its handle reports.
	FetchBatchResults(ctx context.Context, resultsURL string) ([]domain.BatchResult, error)
}
