// Package openai implements the generation.Provider interface against the
// OpenAI Chat Completions API over plain HTTP. It is a generate-only
// provider.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/docdistill/internal/config"
	"github.com/phrazzld/docdistill/internal/generation"
)

const defaultBaseURL = "https://api.openai.com"

// ErrEmptyPrompt is returned when Generate is called with an empty prompt.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Provider implements generation.Provider using OpenAI Chat Completions.
type Provider struct {
	logger     *slog.Logger
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Compile-time interface check.
var _ generation.Provider = (*Provider)(nil)

// New creates an OpenAI provider from the given configuration.
func New(logger *slog.Logger, cfg config.ProviderConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	return &Provider{
		logger:     logger.With("provider", "openai", "model", cfg.Model),
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.Model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Name returns the provider's configuration name.
func (p *Provider) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends one prompt via POST /v1/chat/completions and returns the
// first choice's content.
func (p *Provider) Generate(ctx context.Context, prompt string, opts generation.GenerateOptions) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	temp := opts.Temperature
	body, err := p.do(ctx, http.MethodPost, "/v1/chat/completions", chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: &temp,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: failed to parse reply: %v", generation.ErrInvalidResponse, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s (%s)", generation.ErrProvider, parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response missing choices", generation.ErrInvalidResponse)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty reply content", generation.ErrInvalidResponse)
	}
	return content, nil
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
// generation.ErrProvider.
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
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
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
		var parsed chatResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			return nil, fmt.Errorf("%w: %s (%s), status %d",
				generation.ErrProvider, parsed.Error.Message, parsed.Error.Type, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", generation.ErrProvider, resp.StatusCode)
	}

	return body, nil
}
