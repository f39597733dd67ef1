// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Check   CheckConfig   `mapstructure:"check"`
	Vector  VectorConfig  `mapstructure:"vector"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type LLMConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	EmbedModel string `mapstructure:"embed_model"`
}

type CheckConfig struct {
	Threshold   float64 `mapstructure:"threshold"`
	ChunkSize   int     `mapstructure:"chunk_size"`
	MaxMatches  int     `mapstructure:"max_matches"`
	Workers     int     `mapstructure:"workers"`
	Suggestions bool    `mapstructure:"suggestions"`
}

type VectorConfig struct {
	Dimension  int    `mapstructure:"dimension"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Check: CheckConfig{
			Threshold:  0.8,
			ChunkSize:  500,
			MaxMatches: 10,
		},
		Vector: VectorConfig{
			Dimension:  1536,
			Host:       "localhost",
			Port:       6334,
			Collection: "originality_sources",
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{SampleRate: 1.0, Environment: "development"},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.LLM.Provider != "" && c.LLM.Provider != "none" && c.LLM.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("LLM provider '%s' is configured but api_key is empty", c.LLM.Provider))
	}
	if c.Check.Threshold < 0 || c.Check.Threshold > 1 {
		warnings = append(warnings, fmt.Sprintf("check threshold %.2f is outside [0,1]", c.Check.Threshold))
	}
	if c.Check.ChunkSize < 0 {
		warnings = append(warnings, fmt.Sprintf("chunk_size %d is negative", c.Check.ChunkSize))
	}
	if c.Vector.Dimension < 0 {
		warnings = append(warnings, fmt.Sprintf("vector dimension %d is negative", c.Vector.Dimension))
	}

	return warnings
}

// Load reads configuration from path and the ORIGINALITY_* environment. A
// missing file falls back to defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ORIGINALITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("check.threshold", defaults.Check.Threshold)
	v.SetDefault("check.chunk_size", defaults.Check.ChunkSize)
	v.SetDefault("check.max_matches", defaults.Check.MaxMatches)
	v.SetDefault("vector.dimension", defaults.Vector.Dimension)
	v.SetDefault("vector.host", defaults.Vector.Host)
	v.SetDefault("vector.port", defaults.Vector.Port)
	v.SetDefault("vector.collection", defaults.Vector.Collection)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("tracing.environment", defaults.Tracing.Environment)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
