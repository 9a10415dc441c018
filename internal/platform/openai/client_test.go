package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/phrazzld/docdistill/internal/config"
	"github.com/phrazzld/docdistill/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newTestProvider(t *testing.T, serverURL string) *Provider {
	t.Helper()
	provider, err := New(testLogger(), config.ProviderConfig{
		OpenAIAPIKey: "test-key",
		Model:        "gpt-4o-mini",
	})
	require.NoError(t, err)
	provider.baseURL = serverURL
	return provider
}

func TestNewValidation(t *testing.T) {
	_, err := New(testLogger(), config.ProviderConfig{Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = New(testLogger(), config.ProviderConfig{OpenAIAPIKey: "test-key"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Q1: q?\nA1: a."}},
			},
		})
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	text, err := provider.Generate(context.Background(), "hello", generation.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Q1: q?\nA1: a.", text)
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "bad key", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	_, err := provider.Generate(context.Background(), "hello", generation.GenerateOptions{})
	require.ErrorIs(t, err, generation.ErrProvider)
	assert.Contains(t, err.Error(), "bad key")
}

func TestGenerateMissingChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	_, err := provider.Generate(context.Background(), "hello", generation.GenerateOptions{})
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	provider := newTestProvider(t, "http://unused")

	_, err := provider.Generate(context.Background(), "", generation.GenerateOptions{})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"id": "gpt-4o-mini"}, {"id": "gpt-4o"}},
		})
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	models, err := provider.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, models)
}
