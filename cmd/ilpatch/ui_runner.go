package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"ilpatch/internal/patch"
	"ilpatch/internal/pipeline"
	"ilpatch/internal/ui"
)

type patchOutcome struct {
	result *patch.Result
	err    error
}

func runPatchWithUI(ctx context.Context, out io.Writer, title string, files []string, opts patch.Options) (*patch.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan patchOutcome, 1)

	go func() {
		opts.Progress = pipeline.ChannelSink{Ch: events}
		res, err := patch.Run(ctx, files, opts)
		outcomeCh <- patchOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	final, uiErr := program.Run()
	if uiErr != nil || ui.Aborted(final) {
		cancel()
	}
	// the view may stop early; keep the producer from blocking
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
