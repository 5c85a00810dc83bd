package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ShayCichocki/triage/internal/lifecycle"
	"github.com/ShayCichocki/triage/internal/provider"
	"github.com/ShayCichocki/triage/internal/route"
	"github.com/ShayCichocki/triage/internal/state"
	"github.com/ShayCichocki/triage/pkg/models"
)

// ModelLister reports hosted models. lifecycle.Manager implements it.
type ModelLister interface {
	List(ctx context.Context) ([]lifecycle.HostedModel, error)
}

// Router routes one prompt. route.Router implements it.
type Router interface {
	RouteStream(ctx context.Context, prompt string, worker models.ModelIdentity, handler route.ResultHandler) ([]models.TaskResult, error)
}

// Session holds the state of one interactive conversation.
// The worker model is the only state carried between inputs.
type Session struct {
	// Worker is the model atomic tasks are dispatched to.
	Worker models.ModelIdentity

	router   Router
	recorder *state.Recorder
	lister   ModelLister
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRecorder records every routed prompt.
func WithRecorder(r *state.Recorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// WithModelLister enables the models command and hosted checks on change.
func WithModelLister(l ModelLister) SessionOption {
	return func(s *Session) { s.lister = l }
}

// NewSession creates a Session starting with worker.
func NewSession(router Router, worker models.ModelIdentity, opts ...SessionOption) *Session {
	s := &Session{Worker: worker, router: router}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle runs one line of input and reports whether the session should end.
// Failures are reported through p and never end the session.
func (s *Session) Handle(ctx context.Context, input string, p Printer) bool {
	cmd := Parse(input)
	switch cmd.Kind {
	case CommandEmpty:
		return false
	case CommandExit:
		return true
	case CommandHelp:
		p.Info("%s", HelpText)
	case CommandChange:
		s.change(ctx, cmd.Arg, p)
	case CommandModels:
		s.listModels(ctx, p)
	case CommandLoad:
		prompt, err := loadPrompt(cmd.Arg)
		if err != nil {
			p.Error(err)
			return false
		}
		s.route(ctx, prompt, p)
	case CommandPrompt:
		s.route(ctx, cmd.Arg, p)
	}
	return false
}

func (s *Session) change(ctx context.Context, name string, p Printer) {
	if name == "" {
		p.Error(errors.New("usage: change <model>"))
		return
	}
	if s.lister != nil {
		hosted, err := s.lister.List(ctx)
		if err == nil && !hostsModel(hosted, name) {
			p.Info("warning: %s is not hosted locally", name)
		}
	}
	s.Worker = models.ModelIdentity(name)
	p.Info("worker model is now %s", name)
}

func (s *Session) listModels(ctx context.Context, p Printer) {
	if s.lister == nil {
		p.Error(errors.New("model listing is not available for this provider"))
		return
	}
	hosted, err := s.lister.List(ctx)
	if err != nil {
		p.Error(err)
		return
	}
	if len(hosted) == 0 {
		p.Info("no models hosted")
		return
	}
	for _, h := range hosted {
		marker := " "
		if h.Name == string(s.Worker) || h.Name == string(s.Worker)+":latest" {
			marker = "*"
		}
		p.Info("%s %-30s %s", marker, h.Name, h.Size)
	}
}

func (s *Session) route(ctx context.Context, prompt string, p Printer) {
	recording := s.recorder.Begin(prompt, s.Worker)
	handler := func(res models.TaskResult) {
		recording.Record(res)
		p.Result(res)
	}

	results, err := s.router.RouteStream(ctx, prompt, s.Worker, handler)
	recording.Finish(err)

	switch {
	case errors.Is(err, route.ErrEmptyPrompt):
		p.Error(err)
	case err != nil:
		if len(results) > 0 {
			p.Error(fmt.Errorf("stopped after %d of the subtasks: %w", len(results), err))
		} else {
			p.Error(err)
		}
	case len(results) == 0:
		p.Info("the task breaker returned no subtasks")
	}
	if model := unhostedModel(err); model != "" {
		p.Info("model %s is not hosted; try 'models' or 'change <model>'", model)
	}
}

// unhostedModel returns the model err reports as not hosted, if any.
func unhostedModel(err error) models.ModelIdentity {
	var pe *provider.ProviderError
	if !provider.IsModelNotFound(err) || !errors.As(err, &pe) {
		return ""
	}
	return pe.Model
}

func loadPrompt(path string) (string, error) {
	if path == "" {
		return "", errors.New("usage: load <path>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}
	prompt := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("load prompt: %s is empty", path)
	}
	return prompt, nil
}

func hostsModel(hosted []lifecycle.HostedModel, name string) bool {
	for _, h := range hosted {
		if h.Name == name || h.Name == name+":latest" {
			return true
		}
	}
	return false
}
