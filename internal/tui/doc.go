// Package tui provides the full-screen chat interface for triage.
//
// ChatApp shows a scrolling transcript above a prompt field. Input is handed
// to a submit handler, which runs it off the UI goroutine and reports back
// through Printer:
//
//	program, app := tui.NewChatProgram(worker, strategy)
//	app.SetSubmitHandler(func(input string) {
//	    go func() {
//	        exit := session.Handle(ctx, input, tui.NewPrinter(program.Send))
//	        program.Send(tui.InputDoneMsg{Exit: exit, Worker: string(session.Worker)})
//	    }()
//	})
//	program.Run()
//
// While an input is being handled the field is disabled and a spinner runs.
package tui
