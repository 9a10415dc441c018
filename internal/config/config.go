package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Corpus     CorpusConfig     `mapstructure:"corpus"     validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Provider   ProviderConfig   `mapstructure:"provider"   validate:"required"`
	Output     OutputConfig     `mapstructure:"output"     validate:"required"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

// CorpusConfig describes where the documentation bundle comes from and how
// it is split into entries.
type CorpusConfig struct {
	// Source is a local file path or an HTTP(S) URL for the documentation
	// bundle.
	Source string `mapstructure:"source" validate:"required"`

	// MarkerPrefix is the prefix an entry identifier must carry for a
	// "## <id>" line to count as a section marker.
	MarkerPrefix string `mapstructure:"marker_prefix"`

	// MinEntryLength filters out entries whose content is shorter than this
	// many characters before generation.
	MinEntryLength int `mapstructure:"min_entry_length" validate:"gte=0"`
}

// GenerationConfig controls how many pairs are requested per entry and how
// batch jobs are polled.
type GenerationConfig struct {
	// PairsPerEntry is the target number of question/answer pairs per entry.
	PairsPerEntry int `mapstructure:"pairs_per_entry" validate:"required,gt=0"`

	// Temperature is passed through to the provider on each request.
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`

	// PromptTemplatePath optionally overrides the embedded prompt template.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`

	// PollInterval is the fixed delay between batch job status checks.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// MaxPollWait bounds how long a batch run waits for the job to end.
	// Zero means wait indefinitely.
	MaxPollWait time.Duration `mapstructure:"max_poll_wait"`
}

// ProviderConfig selects the LLM provider and carries its credentials.
type ProviderConfig struct {
	Name  string `mapstructure:"name"  validate:"required,oneof=gemini anthropic openai"`
	Model string `mapstructure:"model" validate:"required"`

	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
}

// OutputConfig describes where persisted records and the progress marker
// live.
type OutputConfig struct {
	// Dir is the directory holding the dataset and marker files. It is
	// created if missing; failure to create it is fatal.
	Dir string `mapstructure:"dir" validate:"required"`

	// DatasetFile is the JSON-Lines file name for persisted records,
	// relative to Dir.
	DatasetFile string `mapstructure:"dataset_file"`

	// MarkerFile is the progress marker file name, relative to Dir.
	MarkerFile string `mapstructure:"marker_file"`
}

// ServerConfig contains settings for the local visualization server.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"omitempty,gt=0,lt=65536"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}
