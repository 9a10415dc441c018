// Package platform wires concrete provider implementations to the
// generation interfaces the pipeline depends on.
package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/docdistill/internal/config"
	"github.com/phrazzld/docdistill/internal/generation"
	"github.com/phrazzld/docdistill/internal/platform/anthropic"
	"github.com/phrazzld/docdistill/internal/platform/gemini"
	"github.com/phrazzld/docdistill/internal/platform/openai"
)

// NewProvider constructs the provider named in the configuration. The
// returned value may additionally implement generation.BatchProvider;
// callers that need batch submission discover that with a type assertion.
func NewProvider(ctx context.Context, logger *slog.Logger, cfg config.ProviderConfig) (generation.Provider, error) {
	switch cfg.Name {
	case "gemini":
		return gemini.New(ctx, logger, cfg)
	case "anthropic":
		return anthropic.New(logger, cfg)
	case "openai":
		return openai.New(logger, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", generation.ErrUnknownProvider, cfg.Name)
	}
}
