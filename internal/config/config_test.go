package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/triage/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Provider.Kind != ProviderOllama {
		t.Errorf("expected default provider 'ollama', got %q", cfg.Provider.Kind)
	}
	if cfg.Provider.Ollama.Host != "http://localhost:11434" {
		t.Errorf("expected default ollama host, got %q", cfg.Provider.Ollama.Host)
	}
	if cfg.Routing.Strategy != "single" {
		t.Errorf("expected default strategy 'single', got %q", cfg.Routing.Strategy)
	}
	if cfg.Routing.StrictClassification {
		t.Error("strict classification should be off by default")
	}
	if !cfg.History.Enabled || cfg.History.Driver != "sqlite" {
		t.Errorf("unexpected history defaults: %+v", cfg.History)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
provider:
  kind: anthropic
  anthropic:
    api_key: test-key
  max_tokens: 1024
  requests_per_second: 2.5
models:
  decision: classifier
  task_breaker: splitter
  worker: mistral
routing:
  strategy: recursive
  max_depth: 4
  strict_classification: true
history:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Provider.Kind != ProviderAnthropic || cfg.Provider.Anthropic.APIKey != "test-key" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Provider.MaxTokens != 1024 || cfg.Provider.RequestsPerSecond != 2.5 {
		t.Errorf("provider limits = %d, %v", cfg.Provider.MaxTokens, cfg.Provider.RequestsPerSecond)
	}
	roles := cfg.Roles()
	if roles.Decision != "classifier" || roles.TaskBreaker != "splitter" || roles.Worker != "mistral" {
		t.Errorf("Roles() = %+v", roles)
	}
	if models.Strategy(cfg.Routing.Strategy) != models.StrategyRecursive || cfg.Routing.MaxDepth != 4 || !cfg.Routing.StrictClassification {
		t.Errorf("routing = %+v", cfg.Routing)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled")
	}
	// Unset values keep defaults.
	if cfg.Provider.Ollama.Timeout != 5*time.Minute {
		t.Errorf("ollama timeout = %v, want default 5m", cfg.Provider.Ollama.Timeout)
	}
	if cfg.History.Driver != "sqlite" {
		t.Errorf("history driver = %q, want default", cfg.History.Driver)
	}
}

func TestLoadFromPath_ExpandsEnv(t *testing.T) {
	t.Setenv("MY_GEMINI_KEY", "gem-secret")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("provider:\n  gemini:\n    api_key: ${MY_GEMINI_KEY}\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Provider.Gemini.APIKey != "gem-secret" {
		t.Errorf("gemini key = %q, want expanded", cfg.Provider.Gemini.APIKey)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_ProjectOverrideAndEnv(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	if err := os.MkdirAll(filepath.Join(xdg, "triage"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(xdg, "triage", "config.yaml"),
		[]byte("models:\n  worker: user-worker\n  decision: user-decision\n"), 0644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	nested := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ProjectConfigFile),
		[]byte("models:\n  worker: project-worker\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	t.Setenv("TRIAGE_ROUTING_STRATEGY", "recursive")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Models.Worker != "project-worker" {
		t.Errorf("worker = %q, want project override", cfg.Models.Worker)
	}
	if cfg.Models.Decision != "user-decision" {
		t.Errorf("decision = %q, want user config value", cfg.Models.Decision)
	}
	if cfg.Routing.Strategy != "recursive" {
		t.Errorf("strategy = %q, want env override", cfg.Routing.Strategy)
	}
	if cfg.Provider.Ollama.Host != "http://gpu:11434" {
		t.Errorf("ollama host = %q, want OLLAMA_HOST", cfg.Provider.Ollama.Host)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Models.Worker = "phi3"
	cfg.Routing.MaxDepth = 5
	cfg.Provider.Ollama.Timeout = 90 * time.Second

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Models.Worker != "phi3" || loaded.Routing.MaxDepth != 5 || loaded.Provider.Ollama.Timeout != 90*time.Second {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.Provider.Kind = "openai" }, "provider.kind"},
		{"missing decision", func(c *Config) { c.Models.Decision = "" }, "models.decision"},
		{"bad strategy", func(c *Config) { c.Routing.Strategy = "breadth" }, "routing.strategy"},
		{"recursive without depth", func(c *Config) {
			c.Routing.Strategy = "recursive"
			c.Routing.MaxDepth = 0
		}, "routing.max_depth"},
		{"bad driver", func(c *Config) { c.History.Driver = "postgres" }, "history.driver"},
		{"negative rate", func(c *Config) { c.Provider.RequestsPerSecond = -1 }, "requests_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	for _, key := range Keys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) failed: %v", key, err)
		}
	}

	tests := []struct {
		key, value, want string
	}{
		{"models.worker", "mistral", "mistral"},
		{"routing.max_depth", "7", "7"},
		{"routing.strict_classification", "true", "true"},
		{"provider.ollama.timeout", "30s", "30s"},
		{"provider.requests_per_second", "0.5", "0.5"},
		{"provider.anthropic.api_key", "sk-ant-abcdefghijklmnop", "sk-ant-...mnop"},
	}
	for _, tt := range tests {
		if err := cfg.Set(tt.key, tt.value); err != nil {
			t.Fatalf("Set(%q) failed: %v", tt.key, err)
		}
		got, _ := cfg.Get(tt.key)
		if got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}

	if err := cfg.Set("routing.max_depth", "deep"); err == nil {
		t.Error("expected error for non-integer max_depth")
	}
	if err := cfg.Set("nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := cfg.Get("nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}
