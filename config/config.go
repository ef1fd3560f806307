// Package config loads the desk's runtime settings from defaults, an optional
// YAML file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	graphconfig "github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/config"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LLMConfig configures the language model client.
type LLMConfig struct {
	APIKey      string        `yaml:"api_key" validate:"required"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	Model       string        `yaml:"model" validate:"required"`
	Temperature float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens,omitempty" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries  int           `yaml:"max_retries" validate:"gte=0"`
}

// NewsConfig configures the optional news search. An empty APIKey disables
// news.
type NewsConfig struct {
	APIKey     string `yaml:"api_key,omitempty"`
	MaxResults int    `yaml:"max_results" validate:"gte=0"`
}

// AppConfig is the full runtime configuration.
type AppConfig struct {
	LLM           LLMConfig     `yaml:"llm"`
	News          NewsConfig    `yaml:"news"`
	MaxIterations int           `yaml:"max_iterations" validate:"gt=0"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	Verbose       bool          `yaml:"verbose"`
	SaveResults   bool          `yaml:"save_results"`
	ResultsDir    string        `yaml:"results_dir" validate:"required"`

	// Graph tunes the workflow engine. The iteration field is owned by the
	// pipeline and ignored here.
	Graph graphconfig.GraphConfig `yaml:"graph"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() AppConfig {
	return AppConfig{
		LLM: LLMConfig{
			Model:      "gpt-4-turbo",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		News:          NewsConfig{MaxResults: 3},
		MaxIterations: 3,
		FetchTimeout:  15 * time.Second,
		Verbose:       true,
		ResultsDir:    ".",
		Graph:         graphconfig.DefaultGraphConfig("trader-desk"),
	}
}

// LoadFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func LoadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: EnvConfigFile, Err: fmt.Errorf("read config file: %w", err)}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ConfigError{Field: EnvConfigFile, Err: fmt.Errorf("parse config file: %w", err)}
	}
	return nil
}

// Validate checks the configuration. The first violation is returned as a
// *ConfigError naming the environment variable that sets the field.
func (c *AppConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		field := fe.StructNamespace()
		if env, ok := fieldEnv[field]; ok {
			field = env
		}
		return &ConfigError{Field: field, Err: fmt.Errorf("failed %q check (value %v)", fe.Tag(), fe.Value())}
	}
	return &ConfigError{Field: "config", Err: err}
}
