// Package provider sends single-turn completion requests to hosted language models.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShayCichocki/triage/pkg/models"
)

// CompletionProvider sends one user message to a model and returns its reply.
type CompletionProvider interface {
	// Send delivers message to the named model as a single user turn.
	// Failures are reported as *ProviderError.
	Send(ctx context.Context, model models.ModelIdentity, message string) (string, error)

	// Name returns the provider name (e.g., "ollama", "anthropic").
	Name() string
}

// ErrModelNotFound indicates the target model is not hosted by the provider.
var ErrModelNotFound = errors.New("model not found")

// ProviderError wraps a failed completion call.
type ProviderError struct {
	Provider string
	Model    models.ModelIdentity
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("provider %s (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// wrapError builds a ProviderError unless err already is one.
func wrapError(provider string, model models.ModelIdentity, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Model: model, Err: err}
}

// IsModelNotFound reports whether err means the model is not hosted.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
