package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ShayCichocki/triage/pkg/models"
)

// GeminiProvider implements CompletionProvider with the Gemini API.
type GeminiProvider struct {
	client    *genai.Client
	maxTokens int32
	tracker   *TokenTracker
}

// GeminiConfig contains configuration for creating a GeminiProvider.
type GeminiConfig struct {
	// APIKey is the Gemini API key. If empty, uses GEMINI_API_KEY env var.
	APIKey string
	// MaxTokens caps each reply. Zero leaves the model default.
	MaxTokens int32
}

// NewGeminiProvider creates a Gemini client. The caller must Close it.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		maxTokens: cfg.MaxTokens,
		tracker:   NewTokenTracker(),
	}, nil
}

// Send generates content for message with the named Gemini model.
func (p *GeminiProvider) Send(ctx context.Context, model models.ModelIdentity, message string) (string, error) {
	gm := p.client.GenerativeModel(string(model))
	if p.maxTokens > 0 {
		gm.SetMaxOutputTokens(p.maxTokens)
	}

	resp, err := gm.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", wrapError(p.Name(), model, err)
	}

	if resp.UsageMetadata != nil {
		p.tracker.Add(model, int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
		// Only the first candidate is used.
		break
	}
	return out.String(), nil
}

// Tracker returns the token tracker for this provider.
func (p *GeminiProvider) Tracker() *TokenTracker {
	return p.tracker
}

// Close releases the underlying client connection.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

var _ CompletionProvider = (*GeminiProvider)(nil)
