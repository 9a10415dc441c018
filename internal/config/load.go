package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables the loader reads, e.g.
// DOCDISTILL_PROVIDER_GEMINI_API_KEY.
const envPrefix = "DOCDISTILL"

// Defaults applied before any file or environment values are read.
const (
	DefaultMarkerPrefix   = "/"
	DefaultMinEntryLength = 100
	DefaultPairsPerEntry  = 10
	DefaultPollInterval   = 30 * time.Second
	DefaultDatasetFile    = "qa_dataset.jsonl"
	DefaultMarkerFile     = ".progress"
	DefaultServerPort     = 8080
)

// Load reads configuration from an optional config file and from
// DOCDISTILL_-prefixed environment variables. Environment variables take
// precedence over values from the config file. The path argument may be
// empty, in which case a config.yaml in the working directory is used when
// present. Returns a populated Config or an error if loading or validation
// fails.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file is fine: env vars may carry
			// everything. Any other read error is fatal.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values on the viper instance. Defaults keep
// the required validations satisfiable from a minimal config carrying only
// the corpus source, provider name/model, and credentials.
func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus.marker_prefix", DefaultMarkerPrefix)
	v.SetDefault("corpus.min_entry_length", DefaultMinEntryLength)
	v.SetDefault("generation.pairs_per_entry", DefaultPairsPerEntry)
	v.SetDefault("generation.temperature", 0.0)
	v.SetDefault("generation.poll_interval", DefaultPollInterval)
	v.SetDefault("generation.max_poll_wait", time.Duration(0))
	v.SetDefault("output.dir", "dataset")
	v.SetDefault("output.dataset_file", DefaultDatasetFile)
	v.SetDefault("output.marker_file", DefaultMarkerFile)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("log.level", "info")

	// Bind nested keys explicitly so AutomaticEnv sees them even when the
	// config file omits the section entirely.
	for _, key := range []string{
		"corpus.source",
		"provider.name",
		"provider.model",
		"provider.gemini_api_key",
		"provider.anthropic_api_key",
		"provider.openai_api_key",
	} {
		v.SetDefault(key, "")
	}
}
