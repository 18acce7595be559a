package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/toyz/ngmod/internal/cli"
)

// Watch runs the initial load and then regenerates on every change-set
type Watch struct{}

// Run is called by Kong when the watch command is executed.
func (w *Watch) Run(logger *slog.Logger, globals *Globals, project *Project) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession(globals.Diagnostics(), globals.Reporter())
	return s.watch(ctx, *project, logger)
}

// watch keeps running after a failed initial pass; the next change-set
// retries it. The watcher exists before the initial scan, so metadata
// written while the first pass runs still produces a change-set.
func (s *session) watch(ctx context.Context, project Project, logger *slog.Logger) error {
	g, config, err := s.prepare(project, logger)
	if err != nil {
		return err
	}
	watcher, err := cli.NewWatcher(config.WatchDirs(), g.Scanner(), config.Debounce, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	results, err := s.load(ctx, g)
	if err != nil {
		return err
	}
	if err := s.summarize(results); err != nil {
		s.reporter.ReportError(err)
		s.reporter.ReportWarning("initial pass failed, the next metadata change retries it")
	}

	s.out.PhaseHeader("Watching for metadata changes")
	s.out.Indent()
	for _, dir := range config.WatchDirs() {
		s.out.List("%s", dir)
	}
	s.out.Unindent()

	var wg sync.WaitGroup
	err = watcher.Run(ctx, func(ctx context.Context, cs cli.ChangeSet) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := g.Notify(ctx, cs)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.reporter.ReportError(err)
			}
			if err := s.report(results); err != nil {
				s.reporter.ReportError(err)
			}
		}()
	})
	wg.Wait()

	if errors.Is(err, context.Canceled) {
		s.out.Info("Stopped watching")
		return nil
	}
	return err
}
