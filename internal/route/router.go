// Package route classifies prompts, decomposes complex ones and dispatches
// the resulting atomic tasks to a worker model.
package route

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/triage/internal/provider"
	"github.com/ShayCichocki/triage/pkg/models"
)

// HowToPrefix is prepended to every decomposed subtask before dispatch.
const HowToPrefix = "How to: "

// ErrEmptyPrompt is returned when Route is called without prompt text.
var ErrEmptyPrompt = errors.New("empty prompt")

// ResultHandler receives each result as soon as the worker produces it.
type ResultHandler func(models.TaskResult)

// RequiredConfig contains the collaborators every Router needs.
type RequiredConfig struct {
	// Provider answers all three model roles.
	Provider provider.CompletionProvider
	// Decision is the model that labels a task simple or complex.
	Decision models.ModelIdentity
	// TaskBreaker is the model that lists subtasks one per line.
	TaskBreaker models.ModelIdentity
}

// Option configures a Router.
type Option func(*routerOptions)

type routerOptions struct {
	strategy models.Strategy
	maxDepth int
	strict   bool
	logger   *DebugLogger
	onResult ResultHandler
}

// WithStrategy selects single or recursive decomposition.
func WithStrategy(s models.Strategy) Option {
	return func(o *routerOptions) { o.strategy = s }
}

// WithMaxDepth bounds the recursive strategy. Ignored by the single strategy.
func WithMaxDepth(n int) Option {
	return func(o *routerOptions) { o.maxDepth = n }
}

// WithStrictClassification rejects decision replies other than "simple" or "complex".
func WithStrictClassification(b bool) Option {
	return func(o *routerOptions) { o.strict = b }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *routerOptions) { o.logger = l }
}

// WithResultHandler sets the default handler used by Route.
func WithResultHandler(h ResultHandler) Option {
	return func(o *routerOptions) { o.onResult = h }
}

// DefaultMaxDepth is the recursion bound used when none is configured.
const DefaultMaxDepth = 3

// Router runs the classify, decompose and dispatch pipeline for one prompt at a time.
// It holds no per-call state; the worker model is supplied on every call.
type Router struct {
	provider   provider.CompletionProvider
	classifier *Classifier
	decomposer *Decomposer
	strategy   models.Strategy
	maxDepth   int
	logger     *DebugLogger
	onResult   ResultHandler
}

// New creates a Router.
func New(req RequiredConfig, opts ...Option) (*Router, error) {
	if req.Provider == nil {
		return nil, errors.New("router requires a provider")
	}
	if req.Decision == "" || req.TaskBreaker == "" {
		return nil, errors.New("router requires decision and task-breaker models")
	}

	o := routerOptions{
		strategy: models.StrategySingle,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.strategy.Valid() {
		return nil, fmt.Errorf("unknown routing strategy %q", o.strategy)
	}
	if o.strategy == models.StrategyRecursive && o.maxDepth < 1 {
		return nil, fmt.Errorf("recursive strategy requires max depth >= 1, got %d", o.maxDepth)
	}
	if o.logger == nil {
		o.logger = NopLogger()
	}

	return &Router{
		provider:   req.Provider,
		classifier: NewClassifier(req.Provider, req.Decision).Strict(o.strict),
		decomposer: NewDecomposer(req.Provider, req.TaskBreaker),
		strategy:   o.strategy,
		maxDepth:   o.maxDepth,
		logger:     o.logger,
		onResult:   o.onResult,
	}, nil
}

// Strategy returns the configured strategy.
func (r *Router) Strategy() models.Strategy {
	return r.strategy
}

// Route handles prompt with the default result handler.
func (r *Router) Route(ctx context.Context, prompt string, worker models.ModelIdentity) ([]models.TaskResult, error) {
	return r.RouteStream(ctx, prompt, worker, r.onResult)
}

// RouteStream classifies prompt, decomposes it if complex, and dispatches every
// atomic task to worker in discovery order. handler, if non-nil, sees each result
// before the next task starts. On failure the results produced so far are
// returned together with the error.
func (r *Router) RouteStream(ctx context.Context, prompt string, worker models.ModelIdentity, handler ResultHandler) ([]models.TaskResult, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if worker == "" {
		return nil, errors.New("no worker model selected")
	}

	run := &routeRun{router: r, worker: worker, handler: handler}
	root := models.Task{ID: uuid.NewString(), Text: prompt}

	class, err := r.classifier.Classify(ctx, root.Text)
	if err != nil {
		return nil, fmt.Errorf("classify prompt: %w", err)
	}
	root.Classification = class
	r.logger.Log("prompt %s classified %s by %s", shortID(root.ID), class, r.classifier.Model())

	if !class.IsComplex() {
		if err := run.dispatch(ctx, root); err != nil {
			return run.results, err
		}
		return run.results, nil
	}

	worklist, err := r.expand(ctx, root)
	if err != nil {
		return nil, err
	}

	for len(worklist) > 0 {
		task := worklist[0]
		worklist = worklist[1:]

		if task.Depth < r.depthLimit() {
			class, err := r.classifier.Classify(ctx, task.Text)
			if err != nil {
				return run.results, fmt.Errorf("classify subtask %d at depth %d: %w", task.Index, task.Depth, err)
			}
			task.Classification = class
			r.logger.Log("subtask %s depth=%d classified %s", shortID(task.ID), task.Depth, class)

			if class.IsComplex() {
				children, err := r.expand(ctx, task)
				if err != nil {
					return run.results, err
				}
				// Children take the parent's place at the front to keep depth-first order.
				worklist = append(children, worklist...)
				continue
			}
		}

		if err := run.dispatch(ctx, task); err != nil {
			return run.results, err
		}
	}

	return run.results, nil
}

// depthLimit is the depth at which tasks are dispatched without classification.
func (r *Router) depthLimit() int {
	if r.strategy == models.StrategyRecursive {
		return r.maxDepth
	}
	return 1
}

// expand decomposes parent into child tasks one level deeper.
func (r *Router) expand(ctx context.Context, parent models.Task) ([]models.Task, error) {
	lines, err := r.decomposer.Decompose(ctx, parent.Text)
	if err != nil {
		return nil, fmt.Errorf("decompose task at depth %d: %w", parent.Depth, err)
	}
	r.logger.Log("task %s depth=%d decomposed into %d subtasks by %s",
		shortID(parent.ID), parent.Depth, len(lines), r.decomposer.Model())

	children := make([]models.Task, len(lines))
	for i, line := range lines {
		children[i] = models.Task{
			ID:       uuid.NewString(),
			ParentID: parent.ID,
			Text:     line,
			Depth:    parent.Depth + 1,
			Index:    i,
		}
	}
	return children, nil
}

// routeRun accumulates results for a single Route call.
type routeRun struct {
	router  *Router
	worker  models.ModelIdentity
	handler ResultHandler
	results []models.TaskResult
}

// dispatch sends the root prompt verbatim and every subtask with HowToPrefix.
func (rr *routeRun) dispatch(ctx context.Context, task models.Task) error {
	message := task.Text
	if !task.IsRoot() {
		message = HowToPrefix + task.Text
	}
	if task.Text == "" {
		return ErrEmptyPrompt
	}

	output, err := rr.router.provider.Send(ctx, rr.worker, message)
	if err != nil {
		return fmt.Errorf("dispatch task %s to %s: %w", shortID(task.ID), rr.worker, err)
	}

	result := models.TaskResult{
		Seq:         len(rr.results),
		TaskID:      task.ID,
		Task:        task.Text,
		Message:     message,
		Model:       rr.worker,
		Output:      output,
		Depth:       task.Depth,
		CompletedAt: time.Now(),
	}
	rr.results = append(rr.results, result)
	rr.router.logger.Log("dispatched task %s depth=%d to %s (%d chars)",
		shortID(task.ID), task.Depth, rr.worker, len(output))

	if rr.handler != nil {
		rr.handler(result)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
