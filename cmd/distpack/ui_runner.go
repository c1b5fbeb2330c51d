package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"distpack/internal/host"
	"distpack/internal/observ"
	"distpack/internal/pipeline"
	"distpack/internal/ui"
)

type bundleOutcome struct {
	results []host.Result
	err     error
}

func runBundleWithUI(ctx context.Context, title string, requests []host.Request, opts bundleOptions, timer *observ.Timer) ([]host.Result, error) {
	names := make([]string, len(requests))
	for i, req := range requests {
		names[i] = req.Name
	}
	final := pipeline.StageWrite
	if opts.dryRun {
		final = pipeline.StageMinify
	}

	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan bundleOutcome, 1)
	go func() {
		results, err := bundleAll(ctx, requests, opts, timer, pipeline.ChannelSink{Ch: events})
		outcomeCh <- bundleOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, final, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
