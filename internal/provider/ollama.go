package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ShayCichocki/triage/pkg/models"
)

// DefaultOllamaHost is the address of a locally running Ollama server.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaProvider implements CompletionProvider against the Ollama chat API.
type OllamaProvider struct {
	host    string
	client  *http.Client
	tracker *TokenTracker
}

// OllamaConfig contains configuration for creating an OllamaProvider.
type OllamaConfig struct {
	// Host is the Ollama base URL. Defaults to DefaultOllamaHost.
	Host string
	// Timeout bounds a single chat call. Zero means no timeout.
	Timeout time.Duration
	// Transport overrides the HTTP transport (used in tests).
	Transport http.RoundTripper
}

// NewOllamaProvider creates a provider for a local Ollama instance.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = DefaultOllamaHost
	}
	return &OllamaProvider{
		host: host,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		tracker: NewTokenTracker(),
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int64         `json:"prompt_eval_count"`
	EvalCount       int64         `json:"eval_count"`
}

type ollamaErrorResponse struct {
	Error string `json:"error"`
}

// Send posts a single user message to /api/chat and returns the assistant reply.
func (p *OllamaProvider) Send(ctx context.Context, model models.ModelIdentity, message string) (string, error) {
	reqBody, err := json.Marshal(ollamaChatRequest{
		Model:    string(model),
		Messages: []ollamaMessage{{Role: "user", Content: message}},
		Stream:   false,
	})
	if err != nil {
		return "", wrapError(p.Name(), model, fmt.Errorf("marshal chat request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/chat", bytes.NewReader(reqBody))
	if err != nil {
		return "", wrapError(p.Name(), model, fmt.Errorf("create chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", wrapError(p.Name(), model, fmt.Errorf("chat request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(body))
		var apiErr ollamaErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if resp.StatusCode == http.StatusNotFound {
			return "", wrapError(p.Name(), model, fmt.Errorf("%w: %s", ErrModelNotFound, msg))
		}
		return "", wrapError(p.Name(), model, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", wrapError(p.Name(), model, fmt.Errorf("decode chat response: %w", err))
	}

	p.tracker.Add(model, chatResp.PromptEvalCount, chatResp.EvalCount)
	return chatResp.Message.Content, nil
}

// Ping checks that the Ollama server answers on its version endpoint.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.host+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("create version request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach ollama at %s: %w", p.host, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s returned status %d", p.host, resp.StatusCode)
	}
	return nil
}

// Tracker returns the token tracker for this provider.
func (p *OllamaProvider) Tracker() *TokenTracker {
	return p.tracker
}

// Host returns the configured base URL.
func (p *OllamaProvider) Host() string {
	return p.host
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

var _ CompletionProvider = (*OllamaProvider)(nil)
