package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/triage/internal/config"
	"github.com/ShayCichocki/triage/internal/provider"
)

func TestCreateProvider(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cfg *config.Config)
		wantName string
		wantErr  bool
	}{
		{
			name:     "ollama",
			mutate:   func(cfg *config.Config) {},
			wantName: "ollama",
		},
		{
			name: "ollama rate limited",
			mutate: func(cfg *config.Config) {
				cfg.Provider.RequestsPerSecond = 2
			},
			wantName: "ollama",
		},
		{
			name: "anthropic with key",
			mutate: func(cfg *config.Config) {
				cfg.Provider.Kind = config.ProviderAnthropic
				cfg.Provider.Anthropic.APIKey = "sk-test"
			},
			wantName: "anthropic",
		},
		{
			name: "anthropic without key",
			mutate: func(cfg *config.Config) {
				cfg.Provider.Kind = config.ProviderAnthropic
			},
			wantErr: true,
		},
		{
			name: "unknown provider",
			mutate: func(cfg *config.Config) {
				cfg.Provider.Kind = "openai"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANTHROPIC_API_KEY", "")
			cfg := config.Default()
			tt.mutate(cfg)

			b, err := createProvider(context.Background(), cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("createProvider: %v", err)
			}
			if b.close != nil {
				defer b.close()
			}
			if b.provider.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", b.provider.Name(), tt.wantName)
			}
			if b.tracker == nil {
				t.Error("expected a token tracker")
			}
		})
	}
}

func TestCreateProvider_RateLimitWrapping(t *testing.T) {
	cfg := config.Default()
	cfg.Provider.RequestsPerSecond = 5

	b, err := createProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("createProvider: %v", err)
	}
	if _, ok := b.provider.(*provider.RateLimited); !ok {
		t.Errorf("expected *provider.RateLimited, got %T", b.provider)
	}
	if b.tracker == nil {
		t.Error("tracker lost behind the rate limiter")
	}

	cfg.Provider.RequestsPerSecond = 0
	b, err = createProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("createProvider: %v", err)
	}
	op, ok := b.provider.(*provider.OllamaProvider)
	if !ok {
		t.Fatalf("expected unwrapped *provider.OllamaProvider, got %T", b.provider)
	}
	if op.Tracker() != b.tracker {
		t.Error("tracker is not the provider's own")
	}
}

func TestNewApp_ReportsTokenUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"role":"assistant","content":"simple"},"done":true,"prompt_eval_count":10,"eval_count":2}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Provider.Ollama.Host = srv.URL
	cfg.Provider.RequestsPerSecond = 100
	cfg.History.Enabled = false
	cfg.Lifecycle.CheckModels = false

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if _, err := a.router.Route(context.Background(), "hello", "llama3"); err != nil {
		t.Fatalf("Route: %v", err)
	}

	// One classification plus one worker call.
	if got := a.tracker.Calls(); got != 2 {
		t.Fatalf("Calls() = %d, want 2", got)
	}
	if in, out := a.tracker.Total(); in != 20 || out != 4 {
		t.Errorf("Total() = (%d, %d), want (20, 4)", in, out)
	}

	var buf bytes.Buffer
	printUsage(&buf, a.tracker)
	out := buf.String()
	for _, want := range []string{"Token usage:", "Language", "llama3", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("usage output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintUsage_NothingBeforeFirstCall(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf, provider.NewTokenTracker())
	printUsage(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.n); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestHandlerGroup_WaitBlocksUntilHandlersReturn(t *testing.T) {
	var g handlerGroup
	release := make(chan struct{})
	finished := make(chan struct{})

	g.Go(func() {
		<-release
		close(finished)
	})

	waited := make(chan struct{})
	go func() {
		g.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while a handler was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the handler finished")
	}
	select {
	case <-finished:
	default:
		t.Error("Wait returned before the handler body completed")
	}
}

func TestNewApp_WithHistory(t *testing.T) {
	cfg := config.Default()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Debug.LogPath = filepath.Join(t.TempDir(), "logs", "router-debug.log")
	cfg.Lifecycle.CheckModels = false

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if a.router == nil {
		t.Fatal("router not created")
	}
	if a.db == nil || a.recorder == nil {
		t.Fatal("history not opened")
	}
	if a.router.Strategy() != "single" {
		t.Errorf("strategy = %q, want single", a.router.Strategy())
	}
}

func TestNewApp_HistoryDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.History.Enabled = false
	cfg.Lifecycle.CheckModels = false

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if a.db != nil || a.recorder != nil {
		t.Error("expected no history when disabled")
	}
}
