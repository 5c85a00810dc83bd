package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ShayCichocki/triage/internal/config"
	"github.com/ShayCichocki/triage/internal/shell"
	"github.com/ShayCichocki/triage/internal/tui"
	"github.com/ShayCichocki/triage/pkg/models"
)

func runInteractive(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Models.Worker == "" {
		return fmt.Errorf("no worker model: set models.worker or pass --worker")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []shell.SessionOption{shell.WithRecorder(a.recorder)}
	if cfg.Provider.Kind == config.ProviderOllama && a.manager.Available() {
		opts = append(opts, shell.WithModelLister(a.manager))
	}
	session := shell.NewSession(a.router, models.ModelIdentity(cfg.Models.Worker), opts...)

	if rootPlain {
		err = shell.Run(ctx, session, os.Stdin, os.Stdout)
	} else {
		err = runChatTUI(ctx, session, string(a.router.Strategy()))
	}
	printUsage(os.Stderr, a.tracker)
	return err
}

// handlerGroup runs submitted inputs off the UI goroutine and lets shutdown
// wait for the ones still in flight.
type handlerGroup struct {
	wg sync.WaitGroup
}

func (g *handlerGroup) Go(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

// Wait blocks until every handler started by Go has returned.
func (g *handlerGroup) Wait() {
	g.wg.Wait()
}

// runChatTUI runs session inside the full-screen chat interface.
func runChatTUI(ctx context.Context, session *shell.Session, strategy string) error {
	// Suppress log output while TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program, app := tui.NewChatProgram(string(session.Worker), strategy)
	printer := tui.NewPrinter(program.Send)

	// Handle runs off the UI goroutine; the app ignores input until InputDoneMsg.
	var handlers handlerGroup
	app.SetSubmitHandler(func(input string) {
		handlers.Go(func() {
			exit := session.Handle(ctx, input, printer)
			program.Send(tui.InputDoneMsg{Exit: exit, Worker: string(session.Worker)})
		})
	})

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, err := program.Run()
	// A route still in flight holds the history DB; stop it before the
	// caller closes the app.
	cancel()
	handlers.Wait()
	if err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
