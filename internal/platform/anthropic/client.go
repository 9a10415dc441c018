// Package anthropic implements the generation.Provider interface against
// the Anthropic Messages API over plain HTTP. It is the only provider in
// this repository with a batch capability: the Message Batches API gives a
// single pollable job per submission and per-request terminal outcomes.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/docdistill/internal/config"
	"github.com/phrazzld/docdistill/internal/generation"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"

	// defaultMaxTokens is applied when the caller does not cap reply length;
	// the Messages API requires an explicit max_tokens.
	defaultMaxTokens = 4096
)

// ErrEmptyPrompt is returned when Generate is called with an empty prompt.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Provider implements generation.Provider and generation.BatchProvider
// using the Anthropic Messages API.
type Provider struct {
	logger     *slog.Logger
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Compile-time interface checks.
var (
	_ generation.Provider      = (*Provider)(nil)
	_ generation.BatchProvider = (*Provider)(nil)
)

// New creates an Anthropic provider from the given configuration.
func New(logger *slog.Logger, cfg config.ProviderConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	return &Provider{
		logger:     logger.With("provider", "anthropic", "model", cfg.Model),
		apiKey:     cfg.AnthropicAPIKey,
		model:      cfg.Model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Name returns the provider's configuration name.
func (p *Provider) Name() string { return "anthropic" }

// message is one turn in a Messages API conversation.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messageParams is the request body for POST /v1/messages, and also the
// per-request params object in a batch submission.
type messageParams struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float32  `json:"temperature,omitempty"`
	Messages    []message `json:"messages"`
}

// contentBlock is one element of a Messages API reply content array.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// messageResponse is the response body of POST /v1/messages.
type messageResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// apiError is the error envelope the API returns on non-2xx statuses.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// params builds the Messages API request body for one prompt.
func (p *Provider) params(prompt string, opts generation.GenerateOptions) messageParams {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temp := opts.Temperature

	return messageParams{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: &temp,
		Messages:    []message{{Role: "user", Content: prompt}},
	}
}

// Generate sends one prompt via POST /v1/messages and returns the
// concatenated text blocks of the reply.
func (p *Provider) Generate(ctx context.Context, prompt string, opts generation.GenerateOptions) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	body, err := p.do(ctx, http.MethodPost, "/v1/messages", p.params(prompt, opts))
	if err != nil {
		return "", err
	}

	var parsed messageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: failed to parse reply: %v", generation.ErrInvalidResponse, err)
	}

	text := joinText(parsed.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply content", generation.ErrInvalidResponse)
	}
	return text, nil
}

// modelList is the response body of GET /v1/models.
type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Models lists the model identifiers the API exposes.
func (p *Provider) Models(ctx context.Context) ([]string, error) {
	body, err := p.do(ctx, http.MethodGet, "/v1/models", nil)
	if err != nil {
		return nil, err
	}

	var parsed modelList
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse model list: %v", generation.ErrInvalidResponse, err)
	}

	names := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

// do performs one authenticated API request and returns the raw response
// body. Non-2xx statuses are mapped to errors wrapping
// generation.ErrProvider, with the API's error message when one is present.
func (p *Provider) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrProvider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", generation.ErrProvider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var parsed apiError
		if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s (%s), status %d",
				generation.ErrProvider, parsed.Error.Message, parsed.Error.Type, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", generation.ErrProvider, resp.StatusCode)
	}

	return body, nil
}

// joinText concatenates the text blocks of a reply, ignoring non-text
// blocks.
func joinText(blocks []contentBlock) string {
	var out bytes.Buffer
	for _, block := range blocks {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String()
}
