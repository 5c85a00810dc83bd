package provider

import (
	"sort"
	"sync"

	"github.com/ShayCichocki/triage/pkg/models"
)

// Usage is the accumulated token count for one model.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	Calls        int
}

// TokenTracker tracks token usage per model across API calls.
type TokenTracker struct {
	mu      sync.Mutex
	byModel map[models.ModelIdentity]*Usage
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{byModel: make(map[models.ModelIdentity]*Usage)}
}

// Add records token usage from one call to model.
func (t *TokenTracker) Add(model models.ModelIdentity, input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.byModel[model]
	if !ok {
		u = &Usage{}
		t.byModel[model] = u
	}
	u.InputTokens += input
	u.OutputTokens += output
	u.Calls++
}

// Usage returns the usage recorded for model.
func (t *TokenTracker) Usage(model models.ModelIdentity) Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u, ok := t.byModel[model]; ok {
		return *u
	}
	return Usage{}
}

// Total returns the input and output tokens across all models.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range t.byModel {
		input += u.InputTokens
		output += u.OutputTokens
	}
	return input, output
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, u := range t.byModel {
		n += u.Calls
	}
	return n
}

// Models returns the tracked model names in sorted order.
func (t *TokenTracker) Models() []models.ModelIdentity {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]models.ModelIdentity, 0, len(t.byModel))
	for m := range t.byModel {
		names = append(names, m)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
