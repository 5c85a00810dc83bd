package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoAPIKey is returned when the selected hosted provider has no key.
var ErrNoAPIKey = errors.New("no API key configured")

// envKeyReplacer maps nested keys to TRIAGE_SECTION_FIELD variables.
var envKeyReplacer = strings.NewReplacer(".", "_")

// keyEnv lists the provider-specific variables checked before the config file.
var keyEnv = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// GetAPIKey returns the API key for a hosted provider.
// It checks in order: environment variable, config file.
func GetAPIKey(cfg *Config, provider string) (string, error) {
	env, ok := keyEnv[provider]
	if !ok {
		return "", fmt.Errorf("provider %s does not use an API key", provider)
	}
	if key := os.Getenv(env); key != "" {
		return key, nil
	}
	if key := configuredKey(cfg, provider); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w for %s (set %s)", ErrNoAPIKey, provider, env)
}

func configuredKey(cfg *Config, provider string) string {
	if cfg == nil {
		return ""
	}
	var key string
	switch provider {
	case ProviderAnthropic:
		key = cfg.Provider.Anthropic.APIKey
	case ProviderGemini:
		key = cfg.Provider.Gemini.APIKey
	}
	key = os.ExpandEnv(key)
	if strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}

// MaskAPIKey returns a masked version of the API key for display.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKeySource returns where a provider's API key comes from.
func GetAPIKeySource(cfg *Config, provider string) KeySource {
	if env, ok := keyEnv[provider]; ok && os.Getenv(env) != "" {
		return KeySourceEnv
	}
	if configuredKey(cfg, provider) != "" {
		return KeySourceConfig
	}
	return KeySourceNone
}

// Keys returns every settable dot-notation key in display order.
func Keys() []string {
	return []string{
		"provider.kind",
		"provider.ollama.host",
		"provider.ollama.timeout",
		"provider.anthropic.api_key",
		"provider.anthropic.use_bedrock",
		"provider.anthropic.aws_region",
		"provider.anthropic.aws_profile",
		"provider.gemini.api_key",
		"provider.max_tokens",
		"provider.requests_per_second",
		"provider.burst",
		"models.decision",
		"models.task_breaker",
		"models.worker",
		"routing.strategy",
		"routing.max_depth",
		"routing.strict_classification",
		"history.enabled",
		"history.driver",
		"history.path",
		"lifecycle.ollama_binary",
		"lifecycle.manifest",
		"lifecycle.check_models",
		"debug.log_path",
	}
}

// Get returns a configuration value by dot-notation key. API keys are masked.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "provider.kind":
		return c.Provider.Kind, nil
	case "provider.ollama.host":
		return c.Provider.Ollama.Host, nil
	case "provider.ollama.timeout":
		return c.Provider.Ollama.Timeout.String(), nil
	case "provider.anthropic.api_key":
		return MaskAPIKey(c.Provider.Anthropic.APIKey), nil
	case "provider.anthropic.use_bedrock":
		return strconv.FormatBool(c.Provider.Anthropic.UseBedrock), nil
	case "provider.anthropic.aws_region":
		return c.Provider.Anthropic.AWSRegion, nil
	case "provider.anthropic.aws_profile":
		return c.Provider.Anthropic.AWSProfile, nil
	case "provider.gemini.api_key":
		return MaskAPIKey(c.Provider.Gemini.APIKey), nil
	case "provider.max_tokens":
		return strconv.Itoa(c.Provider.MaxTokens), nil
	case "provider.requests_per_second":
		return strconv.FormatFloat(c.Provider.RequestsPerSecond, 'g', -1, 64), nil
	case "provider.burst":
		return strconv.Itoa(c.Provider.Burst), nil
	case "models.decision":
		return c.Models.Decision, nil
	case "models.task_breaker":
		return c.Models.TaskBreaker, nil
	case "models.worker":
		return c.Models.Worker, nil
	case "routing.strategy":
		return c.Routing.Strategy, nil
	case "routing.max_depth":
		return strconv.Itoa(c.Routing.MaxDepth), nil
	case "routing.strict_classification":
		return strconv.FormatBool(c.Routing.StrictClassification), nil
	case "history.enabled":
		return strconv.FormatBool(c.History.Enabled), nil
	case "history.driver":
		return c.History.Driver, nil
	case "history.path":
		return c.History.Path, nil
	case "lifecycle.ollama_binary":
		return c.Lifecycle.OllamaBinary, nil
	case "lifecycle.manifest":
		return c.Lifecycle.Manifest, nil
	case "lifecycle.check_models":
		return strconv.FormatBool(c.Lifecycle.CheckModels), nil
	case "debug.log_path":
		return c.Debug.LogPath, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// Set assigns a configuration value by dot-notation key.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "provider.kind":
		c.Provider.Kind = value
	case "provider.ollama.host":
		c.Provider.Ollama.Host = value
	case "provider.ollama.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		c.Provider.Ollama.Timeout = d
	case "provider.anthropic.api_key":
		c.Provider.Anthropic.APIKey = value
	case "provider.anthropic.use_bedrock":
		return setBool(&c.Provider.Anthropic.UseBedrock, key, value)
	case "provider.anthropic.aws_region":
		c.Provider.Anthropic.AWSRegion = value
	case "provider.anthropic.aws_profile":
		c.Provider.Anthropic.AWSProfile = value
	case "provider.gemini.api_key":
		c.Provider.Gemini.APIKey = value
	case "provider.max_tokens":
		return setInt(&c.Provider.MaxTokens, key, value)
	case "provider.requests_per_second":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		c.Provider.RequestsPerSecond = f
	case "provider.burst":
		return setInt(&c.Provider.Burst, key, value)
	case "models.decision":
		c.Models.Decision = value
	case "models.task_breaker":
		c.Models.TaskBreaker = value
	case "models.worker":
		c.Models.Worker = value
	case "routing.strategy":
		c.Routing.Strategy = value
	case "routing.max_depth":
		return setInt(&c.Routing.MaxDepth, key, value)
	case "routing.strict_classification":
		return setBool(&c.Routing.StrictClassification, key, value)
	case "history.enabled":
		return setBool(&c.History.Enabled, key, value)
	case "history.driver":
		c.History.Driver = value
	case "history.path":
		c.History.Path = value
	case "lifecycle.ollama_binary":
		c.Lifecycle.OllamaBinary = value
	case "lifecycle.manifest":
		c.Lifecycle.Manifest = value
	case "lifecycle.check_models":
		return setBool(&c.Lifecycle.CheckModels, key, value)
	case "debug.log_path":
		c.Debug.LogPath = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dst = b
	return nil
}
