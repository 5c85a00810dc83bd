// Package config handles configuration loading and management for triage.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/triage/pkg/models"
)

// Provider kinds.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ProjectConfigFile is the per-project override file searched upward from the working directory.
const ProjectConfigFile = ".triage.yaml"

// Config holds all configuration for triage.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	Models    ModelsConfig    `mapstructure:"models"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	History   HistoryConfig   `mapstructure:"history"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// ProviderConfig selects and configures the completion backend.
type ProviderConfig struct {
	// Kind is one of ollama, anthropic or gemini.
	Kind      string          `mapstructure:"kind"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	// MaxTokens caps each hosted-API reply.
	MaxTokens int `mapstructure:"max_tokens"`
	// RequestsPerSecond throttles provider calls. Zero disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// OllamaConfig holds local Ollama settings.
type OllamaConfig struct {
	Host    string        `mapstructure:"host"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// ModelsConfig names the model for each routing role.
type ModelsConfig struct {
	Decision    string `mapstructure:"decision"`
	TaskBreaker string `mapstructure:"task_breaker"`
	Worker      string `mapstructure:"worker"`
}

// RoutingConfig controls decomposition.
type RoutingConfig struct {
	Strategy             string `mapstructure:"strategy"`
	MaxDepth             int    `mapstructure:"max_depth"`
	StrictClassification bool   `mapstructure:"strict_classification"`
}

// HistoryConfig controls run recording.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `mapstructure:"driver"`
	// Path overrides the database location.
	Path string `mapstructure:"path"`
}

// LifecycleConfig controls model management.
type LifecycleConfig struct {
	OllamaBinary string `mapstructure:"ollama_binary"`
	Manifest     string `mapstructure:"manifest"`
	// CheckModels verifies role models are hosted before the first prompt.
	CheckModels bool `mapstructure:"check_models"`
}

// DebugConfig controls the router trace log.
type DebugConfig struct {
	LogPath string `mapstructure:"log_path"`
}

// Roles returns the configured model identities.
func (c *Config) Roles() models.Roles {
	return models.Roles{
		Decision:    models.ModelIdentity(c.Models.Decision),
		TaskBreaker: models.ModelIdentity(c.Models.TaskBreaker),
		Worker:      models.ModelIdentity(c.Models.Worker),
	}
}

// Validate checks values that would otherwise fail deep inside the router.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider.Kind {
	case ProviderOllama, ProviderAnthropic, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("provider.kind: unknown provider %q", c.Provider.Kind))
	}
	if c.Models.Decision == "" {
		errs = append(errs, errors.New("models.decision: must be set"))
	}
	if c.Models.TaskBreaker == "" {
		errs = append(errs, errors.New("models.task_breaker: must be set"))
	}
	strategy := models.Strategy(c.Routing.Strategy)
	if !strategy.Valid() {
		errs = append(errs, fmt.Errorf("routing.strategy: unknown strategy %q", c.Routing.Strategy))
	}
	if strategy == models.StrategyRecursive && c.Routing.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("routing.max_depth: must be at least 1 for recursive strategy, got %d", c.Routing.MaxDepth))
	}
	if c.History.Driver != "sqlite" && c.History.Driver != "sqlite3" {
		errs = append(errs, fmt.Errorf("history.driver: unknown driver %q", c.History.Driver))
	}
	if c.Provider.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("provider.requests_per_second: must not be negative"))
	}
	return errors.Join(errs...)
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TRIAGE_*, ANTHROPIC_API_KEY, GEMINI_API_KEY, OLLAMA_HOST)
// 2. Project config (.triage.yaml in current directory or parent)
// 3. User config (~/.config/triage/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	v.BindEnv("provider.anthropic.api_key", "TRIAGE_PROVIDER_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("provider.gemini.api_key", "TRIAGE_PROVIDER_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("provider.ollama.host", "TRIAGE_PROVIDER_OLLAMA_HOST", "OLLAMA_HOST")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Provider.Anthropic.APIKey = expandEnv(cfg.Provider.Anthropic.APIKey)
	cfg.Provider.Gemini.APIKey = expandEnv(cfg.Provider.Gemini.APIKey)
	cfg.History.Path = expandEnv(cfg.History.Path)

	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	return SaveTo(GetUserConfigPath(), cfg)
}

// SaveTo writes the configuration to path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("provider.kind", cfg.Provider.Kind)
	v.Set("provider.ollama.host", cfg.Provider.Ollama.Host)
	v.Set("provider.ollama.timeout", cfg.Provider.Ollama.Timeout.String())
	v.Set("provider.anthropic.api_key", cfg.Provider.Anthropic.APIKey)
	v.Set("provider.anthropic.use_bedrock", cfg.Provider.Anthropic.UseBedrock)
	v.Set("provider.anthropic.aws_region", cfg.Provider.Anthropic.AWSRegion)
	v.Set("provider.anthropic.aws_profile", cfg.Provider.Anthropic.AWSProfile)
	v.Set("provider.gemini.api_key", cfg.Provider.Gemini.APIKey)
	v.Set("provider.max_tokens", cfg.Provider.MaxTokens)
	v.Set("provider.requests_per_second", cfg.Provider.RequestsPerSecond)
	v.Set("provider.burst", cfg.Provider.Burst)
	v.Set("models.decision", cfg.Models.Decision)
	v.Set("models.task_breaker", cfg.Models.TaskBreaker)
	v.Set("models.worker", cfg.Models.Worker)
	v.Set("routing.strategy", cfg.Routing.Strategy)
	v.Set("routing.max_depth", cfg.Routing.MaxDepth)
	v.Set("routing.strict_classification", cfg.Routing.StrictClassification)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.driver", cfg.History.Driver)
	v.Set("history.path", cfg.History.Path)
	v.Set("lifecycle.ollama_binary", cfg.Lifecycle.OllamaBinary)
	v.Set("lifecycle.manifest", cfg.Lifecycle.Manifest)
	v.Set("lifecycle.check_models", cfg.Lifecycle.CheckModels)
	v.Set("debug.log_path", cfg.Debug.LogPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("provider.kind", d.Provider.Kind)
	v.SetDefault("provider.ollama.host", d.Provider.Ollama.Host)
	v.SetDefault("provider.ollama.timeout", d.Provider.Ollama.Timeout.String())
	v.SetDefault("provider.anthropic.api_key", "")
	v.SetDefault("provider.anthropic.use_bedrock", false)
	v.SetDefault("provider.anthropic.aws_region", "")
	v.SetDefault("provider.anthropic.aws_profile", "")
	v.SetDefault("provider.gemini.api_key", "")
	v.SetDefault("provider.max_tokens", d.Provider.MaxTokens)
	v.SetDefault("provider.requests_per_second", d.Provider.RequestsPerSecond)
	v.SetDefault("provider.burst", d.Provider.Burst)

	v.SetDefault("models.decision", d.Models.Decision)
	v.SetDefault("models.task_breaker", d.Models.TaskBreaker)
	v.SetDefault("models.worker", d.Models.Worker)

	v.SetDefault("routing.strategy", d.Routing.Strategy)
	v.SetDefault("routing.max_depth", d.Routing.MaxDepth)
	v.SetDefault("routing.strict_classification", d.Routing.StrictClassification)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.driver", d.History.Driver)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("lifecycle.ollama_binary", d.Lifecycle.OllamaBinary)
	v.SetDefault("lifecycle.manifest", d.Lifecycle.Manifest)
	v.SetDefault("lifecycle.check_models", d.Lifecycle.CheckModels)

	v.SetDefault("debug.log_path", d.Debug.LogPath)
}

// getUserConfigDir returns the XDG config directory for triage.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "triage")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "triage")
	}
	return filepath.Join(home, ".config", "triage")
}

// findProjectConfig searches for .triage.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Kind: ProviderOllama,
			Ollama: OllamaConfig{
				Host:    "http://localhost:11434",
				Timeout: 5 * time.Minute,
			},
			MaxTokens: 4096,
			Burst:     1,
		},
		Models: ModelsConfig{
			Decision:    "Language",
			TaskBreaker: "Task-Breaker",
			Worker:      "llama3",
		},
		Routing: RoutingConfig{
			Strategy: string(models.StrategySingle),
			MaxDepth: 3,
		},
		History: HistoryConfig{
			Enabled: true,
			Driver:  "sqlite",
		},
		Lifecycle: LifecycleConfig{
			OllamaBinary: "ollama",
			Manifest:     "models.yaml",
		},
	}
}
