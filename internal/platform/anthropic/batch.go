package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/phrazzld/docdistill/internal/domain"
	"github.com/phrazzld/docdistill/internal/generation"
)

// batchRequestItem is one entry in a batch submission.
type batchRequestItem struct {
	CustomID string        `json:"custom_id"`
	Params   messageParams `json:"params"`
}

// batchSubmission is the request body of POST /v1/messages/batches.
type batchSubmission struct {
	Requests []batchRequestItem `json:"requests"`
}

// batchResponse is the job object returned by batch creation and polling.
type batchResponse struct {
	ID               string `json:"id"`
	ProcessingStatus string `json:"processing_status"`
	RequestCounts    struct {
		Processing int `json:"processing"`
		Succeeded  int `json:"succeeded"`
		Errored    int `json:"errored"`
		Canceled   int `json:"canceled"`
		Expired    int `json:"expired"`
	} `json:"request_counts"`
	ResultsURL string    `json:"results_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// toDomain maps the API job object to the domain type. A "canceling" job is
// still in progress: it ends with per-request canceled outcomes.
func (b *batchResponse) toDomain() (*domain.BatchJob, error) {
	status := domain.BatchStatus(b.ProcessingStatus)
	if b.ProcessingStatus == "canceling" {
		status = domain.BatchStatusInProgress
	}

	job := &domain.BatchJob{
		ID:     b.ID,
		Status: status,
		Counts: domain.BatchCounts{
			Processing: b.RequestCounts.Processing,
			Succeeded:  b.RequestCounts.Succeeded,
			Errored:    b.RequestCounts.Errored,
			Canceled:   b.RequestCounts.Canceled,
			Expired:    b.RequestCounts.Expired,
		},
		ResultsURL: b.ResultsURL,
		CreatedAt:  b.CreatedAt,
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	return job, nil
}

// SubmitBatch submits all requests as one Message Batches job.
func (p *Provider) SubmitBatch(ctx context.Context, requests []generation.BatchRequest) (*domain.BatchJob, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: batch submission needs at least one request", generation.ErrInvalidConfig)
	}

	items := make([]batchRequestItem, 0, len(requests))
	for _, r := range requests {
		items = append(items, batchRequestItem{
			CustomID: r.CustomID,
			Params:   p.params(r.Prompt, r.Opts),
		})
	}

	body, err := p.do(ctx, http.MethodPost, "/v1/messages/batches", batchSubmission{Requests: items})
	if err != nil {
		return nil, err
	}

	var parsed batchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse batch response: %v", generation.ErrInvalidResponse, err)
	}

	p.logger.Info("submitted batch job", "batch_id", parsed.ID, "request_count", len(items))

	return parsed.toDomain()
}

// PollBatch reads the job's current status and per-outcome counts.
func (p *Provider) PollBatch(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	body, err := p.do(ctx, http.MethodGet, "/v1/messages/batches/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	var parsed batchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse batch status: %v", generation.ErrInvalidResponse, err)
	}

	return parsed.toDomain()
}

// batchResultLine is one JSON-Lines record in a batch results stream.
type batchResultLine struct {
	CustomID string `json:"custom_id"`
	Result   struct {
		Type    string          `json:"type"`
		Message messageResponse `json:"message"`
		Error   json.RawMessage `json:"error"`
	} `json:"result"`
}

// FetchBatchResults downloads and decodes the JSON-Lines results stream of
// an ended job. The resultsURL is used verbatim when absolute, so the
// provider's results host need not match the API base URL.
func (p *Provider) FetchBatchResults(ctx context.Context, resultsURL string) ([]domain.BatchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build results request: %w", err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrProvider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: results fetch status %d", generation.ErrProvider, resp.StatusCode)
	}

	var results []domain.BatchResult

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var parsed batchResultLine
		if err := json.Unmarshal(line, &parsed); err != nil {
			return nil, fmt.Errorf("%w: failed to parse result line: %v", generation.ErrInvalidResponse, err)
		}

		result := domain.BatchResult{
			CustomID: parsed.CustomID,
			Outcome:  domain.BatchOutcome(parsed.Result.Type),
		}
		switch result.Outcome {
		case domain.BatchOutcomeSucceeded:
			result.Text = joinText(parsed.Result.Message.Content)
		case domain.BatchOutcomeErrored:
			result.ErrorInfo = string(parsed.Result.Error)
		case domain.BatchOutcomeCanceled, domain.BatchOutcomeExpired:
			// Terminal non-results: nothing further to carry.
		default:
			return nil, fmt.Errorf("%w: unknown result type %q", generation.ErrInvalidResponse, parsed.Result.Type)
		}

		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read results stream: %v", generation.ErrProvider, err)
	}

	return results, nil
}
