package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables.
const (
	EnvAPIKey        = "OPENAI_API_KEY"
	EnvBaseURL       = "OPENAI_BASE_URL"
	EnvModel         = "LLM_MODEL"
	EnvTemperature   = "LLM_TEMPERATURE"
	EnvMaxTokens     = "LLM_MAX_TOKENS"
	EnvLLMTimeout    = "LLM_TIMEOUT"
	EnvLLMMaxRetries = "LLM_MAX_RETRIES"
	EnvMaxIterations = "MAX_ITERATIONS"
	EnvVerbose       = "VERBOSE_LOGGING"
	EnvSaveResults   = "SAVE_RESULTS"
	EnvResultsDir    = "RESULTS_DIR"
	EnvFetchTimeout  = "FETCH_TIMEOUT"
	EnvTavilyKey     = "TAVILY_API_KEY"
	EnvNewsResults   = "NEWS_MAX_RESULTS"
	EnvConfigFile    = "TRADER_DESK_CONFIG"
)

var fieldEnv = map[string]string{
	"AppConfig.LLM.APIKey":      EnvAPIKey,
	"AppConfig.LLM.Model":       EnvModel,
	"AppConfig.LLM.Temperature": EnvTemperature,
	"AppConfig.LLM.MaxTokens":   EnvMaxTokens,
	"AppConfig.LLM.Timeout":     EnvLLMTimeout,
	"AppConfig.LLM.MaxRetries":  EnvLLMMaxRetries,
	"AppConfig.News.MaxResults": EnvNewsResults,
	"AppConfig.MaxIterations":   EnvMaxIterations,
	"AppConfig.FetchTimeout":    EnvFetchTimeout,
	"AppConfig.ResultsDir":      EnvResultsDir,
}

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration from defaults, the YAML file named by
// TRADER_DESK_CONFIG, envFile and lookup. Values from lookup win over
// envFile. A missing envFile is ignored. The result is validated.
func Load(envFile string, lookup LookupFunc) (*AppConfig, error) {
	env, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	get := func(key string) (string, bool) {
		if lookup != nil {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		v, ok := env[key]
		return v, ok
	}

	cfg := DefaultConfig()

	if path, ok := get(EnvConfigFile); ok && path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, get); err != nil {
		return nil, err
	}

	if cfg.LLM.APIKey == "" {
		return nil, &ConfigError{Field: EnvAPIKey, Err: ErrMissing}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &ConfigError{Field: "env file", Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return maps.Clone(env), nil
}

func applyEnv(cfg *AppConfig, get LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := get(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvAPIKey, &cfg.LLM.APIKey)
	str(EnvBaseURL, &cfg.LLM.BaseURL)
	str(EnvModel, &cfg.LLM.Model)
	str(EnvTavilyKey, &cfg.News.APIKey)
	str(EnvResultsDir, &cfg.ResultsDir)

	parsers := []struct {
		key   string
		parse func(string) error
	}{
		{EnvTemperature, func(v string) error {
			f, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return err
			}
			cfg.LLM.Temperature = float32(f)
			return nil
		}},
		{EnvMaxTokens, intInto(&cfg.LLM.MaxTokens)},
		{EnvLLMMaxRetries, intInto(&cfg.LLM.MaxRetries)},
		{EnvMaxIterations, intInto(&cfg.MaxIterations)},
		{EnvNewsResults, intInto(&cfg.News.MaxResults)},
		{EnvLLMTimeout, durationInto(&cfg.LLM.Timeout)},
		{EnvFetchTimeout, durationInto(&cfg.FetchTimeout)},
		{EnvVerbose, boolInto(&cfg.Verbose)},
		{EnvSaveResults, boolInto(&cfg.SaveResults)},
	}

	for _, p := range parsers {
		v, ok := get(p.key)
		if !ok || v == "" {
			continue
		}
		if err := p.parse(v); err != nil {
			return &ConfigError{Field: p.key, Err: fmt.Errorf("invalid value %q: %w", v, err)}
		}
	}
	return nil
}

func intInto(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func durationInto(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func boolInto(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}
