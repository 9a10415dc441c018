package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/docdistill/internal/config"
	"github.com/phrazzld/docdistill/internal/generation"
	"google.golang.org/genai"
)

// ErrEmptyPrompt is returned when Generate is called with an empty prompt.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Provider implements generation.Provider using the Gemini API.
type Provider struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// Compile-time interface check.
var _ generation.Provider = (*Provider)(nil)

// New creates a Gemini provider from the given configuration.
func New(ctx context.Context, logger *slog.Logger, cfg config.ProviderConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Provider{
		logger: logger.With("provider", "gemini", "model", cfg.Model),
		client: client,
		model:  cfg.Model,
	}, nil
}

// Name returns the provider's configuration name.
func (p *Provider) Name() string { return "gemini" }

// Generate sends one prompt to the Gemini API and returns the reply text.
func (p *Provider) Generate(ctx context.Context, prompt string, opts generation.GenerateOptions) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}

	p.logger.Debug("calling Gemini API", "prompt_length", len(prompt))

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrProvider, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}

	p.logger.Debug("Gemini API call succeeded", "reply_length", text.Len())

	return text.String(), nil
}

// Models lists the model identifiers the Gemini API exposes, walking every
// result page.
func (p *Provider) Models(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list models: %v", generation.ErrProvider, err)
	}

	var names []string
	for {
		names = appendModelNames(names, page.Items)

		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list models: %v", generation.ErrProvider, err)
		}
	}
	return names, nil
}

// appendModelNames collects the identifiers of one result page.
func appendModelNames(names []string, items []*genai.Model) []string {
	for _, model := range items {
		names = append(names, model.Name)
	}
	return names
}
