package provider

import (
	"context"
	"strings"
	"testing"
)

func TestNewGeminiProvider_NoKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	if err == nil {
		t.Fatal("expected error without an API key")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error should name the env var, got %v", err)
	}
}
