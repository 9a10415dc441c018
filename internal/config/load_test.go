package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes a temporary config.yaml and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
corpus:
  source: ./docs/llms-full.txt
provider:
  name: anthropic
  model: claude-3-5-haiku-latest
  anthropic_api_key: test-key
`

func TestLoadValidFile(t *testing.T) {
	path := writeConfigFile(t, validYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./docs/llms-full.txt", cfg.Corpus.Source)
	assert.Equal(t, "anthropic", cfg.Provider.Name)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Provider.Model)
	assert.Equal(t, "test-key", cfg.Provider.AnthropicAPIKey)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, validYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultMarkerPrefix, cfg.Corpus.MarkerPrefix)
	assert.Equal(t, DefaultMinEntryLength, cfg.Corpus.MinEntryLength)
	assert.Equal(t, DefaultPairsPerEntry, cfg.Generation.PairsPerEntry)
	assert.Equal(t, DefaultPollInterval, cfg.Generation.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.Generation.MaxPollWait)
	assert.Equal(t, DefaultDatasetFile, cfg.Output.DatasetFile)
	assert.Equal(t, DefaultMarkerFile, cfg.Output.MarkerFile)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
corpus:
  source: ./docs/llms-full.txt
  min_entry_length: 250
provider:
  name: anthropic
  model: claude-3-5-haiku-latest
  anthropic_api_key: test-key
generation:
  pairs_per_entry: 5
  poll_interval: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Generation.PairsPerEntry)
	assert.Equal(t, 10*time.Second, cfg.Generation.PollInterval)
	assert.Equal(t, 250, cfg.Corpus.MinEntryLength)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, validYAML)

	t.Setenv("DOCDISTILL_PROVIDER_MODEL", "claude-sonnet-4-0")
	t.Setenv("DOCDISTILL_PROVIDER_ANTHROPIC_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-0", cfg.Provider.Model)
	assert.Equal(t, "env-key", cfg.Provider.AnthropicAPIKey)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing corpus source",
			yaml: `
provider:
  name: gemini
  model: gemini-2.0-flash
`,
		},
		{
			name: "unknown provider",
			yaml: `
corpus:
  source: ./docs/llms-full.txt
provider:
  name: mystery
  model: whatever
`,
		},
		{
			name: "missing model",
			yaml: `
corpus:
  source: ./docs/llms-full.txt
provider:
  name: openai
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.yaml)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
