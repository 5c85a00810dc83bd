package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ShayCichocki/triage/pkg/models"
)

// RateLimited throttles calls to an underlying provider.
// Waiting honours context cancellation; a cancelled wait is reported as a ProviderError.
type RateLimited struct {
	next    CompletionProvider
	limiter *rate.Limiter
}

// NewRateLimited wraps next so that at most perSecond calls start each second.
// A non-positive perSecond disables limiting and returns next unchanged.
func NewRateLimited(next CompletionProvider, perSecond float64, burst int) CompletionProvider {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Send waits for a token and forwards the call.
func (r *RateLimited) Send(ctx context.Context, model models.ModelIdentity, message string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", wrapError(r.next.Name(), model, err)
	}
	return r.next.Send(ctx, model, message)
}

// Name returns the wrapped provider's name.
func (r *RateLimited) Name() string {
	return r.next.Name()
}
