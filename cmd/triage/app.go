package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ShayCichocki/triage/internal/config"
	iexec "github.com/ShayCichocki/triage/internal/exec"
	"github.com/ShayCichocki/triage/internal/lifecycle"
	"github.com/ShayCichocki/triage/internal/provider"
	"github.com/ShayCichocki/triage/internal/route"
	"github.com/ShayCichocki/triage/internal/state"
	"github.com/ShayCichocki/triage/pkg/models"
)

// app holds everything a routing command needs.
type app struct {
	cfg      *config.Config
	provider provider.CompletionProvider
	tracker  *provider.TokenTracker
	router   *route.Router
	manager  *lifecycle.Manager
	db       *state.DB
	recorder *state.Recorder
	closers  []func() error
}

// loadConfig loads and validates configuration, applying the --worker flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rootWorker != "" {
		cfg.Models.Worker = rootWorker
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp wires provider, router, model manager and history from cfg.
// The caller must Close the result.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		manager: newManager(cfg),
	}

	b, err := createProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if b.close != nil {
		a.closers = append(a.closers, b.close)
	}
	a.provider = b.provider
	a.tracker = b.tracker

	opts := []route.Option{
		route.WithStrategy(models.Strategy(cfg.Routing.Strategy)),
		route.WithMaxDepth(cfg.Routing.MaxDepth),
		route.WithStrictClassification(cfg.Routing.StrictClassification),
	}
	switch {
	case cfg.Debug.LogPath != "":
		logger, err := route.NewDebugLogger(cfg.Debug.LogPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open debug log: %w", err)
		}
		a.closers = append(a.closers, logger.Close)
		opts = append(opts, route.WithLogger(logger))
	case os.Getenv("TRIAGE_DEBUG") != "":
		cwd, _ := os.Getwd()
		logger := route.NewDebugLoggerForDir(cwd)
		a.closers = append(a.closers, logger.Close)
		opts = append(opts, route.WithLogger(logger))
	}

	roles := cfg.Roles()
	router, err := route.New(route.RequiredConfig{
		Provider:    a.provider,
		Decision:    roles.Decision,
		TaskBreaker: roles.TaskBreaker,
	}, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create router: %w", err)
	}
	a.router = router

	if cfg.History.Enabled {
		db, err := openHistory(cfg)
		if err != nil {
			// History is optional; routing still works without it.
			log.Printf("[history] disabled: %v", err)
		} else {
			a.db = db
			a.closers = append(a.closers, db.Close)
			a.recorder = state.NewRecorder(db, roles, router.Strategy())
		}
	}

	if cfg.Lifecycle.CheckModels && cfg.Provider.Kind == config.ProviderOllama {
		missing, err := a.manager.CheckRoles(ctx, roles)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("check models: %w", err)
		}
		if len(missing) > 0 {
			a.Close()
			return nil, fmt.Errorf("models not hosted: %v (run 'triage models sync')", missing)
		}
	}

	return a, nil
}

// Close releases the provider, debug log and history database.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[triage] close: %v", err)
		}
	}
	a.closers = nil
}

// backend is a configured provider ready for routing.
type backend struct {
	// provider is the rate-limited provider handed to the router.
	provider provider.CompletionProvider
	// tracker counts tokens per model on the concrete provider.
	tracker *provider.TokenTracker
	// close may be nil.
	close func() error
}

// createProvider builds the configured provider wrapped in the rate limiter.
func createProvider(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{}

	var p provider.CompletionProvider
	switch cfg.Provider.Kind {
	case config.ProviderOllama:
		op := provider.NewOllamaProvider(provider.OllamaConfig{
			Host:    cfg.Provider.Ollama.Host,
			Timeout: cfg.Provider.Ollama.Timeout,
		})
		p, b.tracker = op, op.Tracker()
	case config.ProviderAnthropic:
		ap, err := provider.NewAnthropicProvider(provider.AnthropicConfig{
			APIKey:        cfg.Provider.Anthropic.APIKey,
			MaxTokens:     int64(cfg.Provider.MaxTokens),
			UseAWSBedrock: cfg.Provider.Anthropic.UseBedrock,
			AWSRegion:     cfg.Provider.Anthropic.AWSRegion,
			AWSProfile:    cfg.Provider.Anthropic.AWSProfile,
		})
		if err != nil {
			return nil, fmt.Errorf("create anthropic provider: %w", err)
		}
		p, b.tracker = ap, ap.Tracker()
	case config.ProviderGemini:
		gp, err := provider.NewGeminiProvider(ctx, provider.GeminiConfig{
			APIKey:    cfg.Provider.Gemini.APIKey,
			MaxTokens: int32(cfg.Provider.MaxTokens),
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini provider: %w", err)
		}
		p, b.tracker = gp, gp.Tracker()
		b.close = gp.Close
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Kind)
	}

	b.provider = provider.NewRateLimited(p, cfg.Provider.RequestsPerSecond, cfg.Provider.Burst)
	return b, nil
}

// openHistory opens the history database and marks runs orphaned by a
// crashed process as interrupted.
func openHistory(cfg *config.Config) (*state.DB, error) {
	path := historyPath(cfg)
	db, err := state.OpenWithDriver(cfg.History.Driver, path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	if n, err := state.NewRecoveryManager(db).MarkInterrupted(); err != nil {
		log.Printf("[history] recovery failed: %v", err)
	} else if n > 0 {
		log.Printf("[history] marked %d orphaned runs interrupted", n)
	}
	return db, nil
}

func historyPath(cfg *config.Config) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return state.DefaultDBPath()
}

func newManager(cfg *config.Config) *lifecycle.Manager {
	return lifecycle.NewManager(iexec.NewRunner(), cfg.Lifecycle.OllamaBinary)
}

// loadManifest reads the configured manifest, or path when non-empty.
func loadManifest(cfg *config.Config, path string) (*lifecycle.Manifest, error) {
	if path == "" {
		path = cfg.Lifecycle.Manifest
	}
	if path == "" {
		path = lifecycle.DefaultManifestFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	return lifecycle.LoadManifest(abs)
}
