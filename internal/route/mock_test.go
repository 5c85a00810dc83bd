package route

import (
	"context"
	"fmt"
	"sync"

	"github.com/ShayCichocki/triage/internal/provider"
	"github.com/ShayCichocki/triage/pkg/models"
)

const (
	testDecision    models.ModelIdentity = "decision"
	testTaskBreaker models.ModelIdentity = "task-breaker"
	testWorker      models.ModelIdentity = "worker"
)

type call struct {
	Model   models.ModelIdentity
	Message string
}

// scriptedProvider returns canned replies keyed by model and message.
// Worker calls without a script echo "done: <message>".
type scriptedProvider struct {
	mu      sync.Mutex
	replies map[call]string
	failOn  map[call]error
	// failWorkerAt fails the Nth worker call (1-based) when non-zero.
	failWorkerAt int
	workerCalls  int
	calls        []call
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{
		replies: make(map[call]string),
		failOn:  make(map[call]error),
	}
}

func (p *scriptedProvider) on(model models.ModelIdentity, message, reply string) *scriptedProvider {
	p.replies[call{model, message}] = reply
	return p
}

func (p *scriptedProvider) Send(ctx context.Context, model models.ModelIdentity, message string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := call{model, message}
	p.calls = append(p.calls, c)

	if err, ok := p.failOn[c]; ok {
		return "", &provider.ProviderError{Provider: "scripted", Model: model, Err: err}
	}
	if model == testWorker {
		p.workerCalls++
		if p.failWorkerAt != 0 && p.workerCalls == p.failWorkerAt {
			return "", &provider.ProviderError{Provider: "scripted", Model: model, Err: fmt.Errorf("worker unavailable")}
		}
	}
	if reply, ok := p.replies[c]; ok {
		return reply, nil
	}
	switch model {
	case testDecision:
		return "simple", nil
	case testWorker:
		return "done: " + message, nil
	}
	return "", nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

// callsTo returns the messages sent to model in order.
func (p *scriptedProvider) callsTo(model models.ModelIdentity) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.calls {
		if c.Model == model {
			out = append(out, c.Message)
		}
	}
	return out
}
