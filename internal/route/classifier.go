package route

import (
	"context"

	"github.com/ShayCichocki/triage/internal/provider"
	"github.com/ShayCichocki/triage/pkg/models"
)

// Classifier asks the decision model whether a task needs decomposition.
type Classifier struct {
	provider provider.CompletionProvider
	model    models.ModelIdentity
	strict   bool
}

// NewClassifier creates a Classifier that consults model through p.
func NewClassifier(p provider.CompletionProvider, model models.ModelIdentity) *Classifier {
	return &Classifier{provider: p, model: model}
}

// Strict makes Classify reject replies other than "simple" or "complex".
func (c *Classifier) Strict(strict bool) *Classifier {
	c.strict = strict
	return c
}

// Classify sends task verbatim to the decision model.
// Only a reply of exactly "complex" yields ClassificationComplex.
// Provider errors are returned unchanged.
func (c *Classifier) Classify(ctx context.Context, task string) (models.Classification, error) {
	reply, err := c.provider.Send(ctx, c.model, task)
	if err != nil {
		return "", err
	}
	if c.strict {
		return models.ParseClassificationStrict(reply)
	}
	return models.ParseClassification(reply), nil
}

// Model returns the decision model identity.
func (c *Classifier) Model() models.ModelIdentity {
	return c.model
}
