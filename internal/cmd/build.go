package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/toyz/ngmod/internal/cli"
	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/utils"
)

// Build runs the initial load and exits
type Build struct{}

// Run is called by Kong when the build command is executed.
func (b *Build) Run(logger *slog.Logger, globals *Globals, project *Project) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession(globals.Diagnostics(), globals.Reporter())
	_, err := s.build(ctx, *project, logger)
	return err
}

// session prints pass results to the console
type session struct {
	mu       sync.Mutex
	out      *utils.DiagnosticSystem
	reporter *cli.DiagnosticReporter
	outDir   string

	passes   int
	written  int
	removed  int
	errors   int
	warnings int
	elapsed  time.Duration
}

func newSession(out *utils.DiagnosticSystem, reporter *cli.DiagnosticReporter) *session {
	return &session{out: out, reporter: reporter}
}

// build resolves the project, runs the initial load and prints a summary
func (s *session) build(ctx context.Context, project Project, logger *slog.Logger) (*cli.Generator, error) {
	g, _, err := s.prepare(project, logger)
	if err != nil {
		return nil, err
	}
	results, err := s.load(ctx, g)
	if err != nil {
		return nil, err
	}
	return g, s.summarize(results)
}

// prepare resolves the project and creates the generator without loading it
func (s *session) prepare(project Project, logger *slog.Logger) (*cli.Generator, cli.Config, error) {
	config, err := project.Config()
	if err != nil {
		return nil, cli.Config{}, err
	}
	s.outDir = config.OutputDir

	s.out.Header("generating Angular modules")
	s.out.SourcePath(config.SrcDir)
	s.out.Verbose("Output: %s", config.OutputDir)
	for _, dir := range config.LibraryDirs {
		s.out.Verbose("Library: %s", dir)
	}

	g, err := cli.NewGenerator(config, logger)
	if err != nil {
		return nil, cli.Config{}, err
	}
	return g, config, nil
}

// load runs the initial load
func (s *session) load(ctx context.Context, g *cli.Generator) ([]*cli.PassResult, error) {
	s.out.PhaseHeader("Initial load")
	return g.Load(ctx)
}

// summarize prints the initial passes and the summary. It returns the error
// of the last failed pass.
func (s *session) summarize(results []*cli.PassResult) error {
	reportErr := s.report(results)

	s.out.Summary("Summary", map[string]interface{}{
		"Files written": s.written,
		"Files removed": s.removed,
		"Errors":        s.errors,
		"Warnings":      s.warnings,
		"Duration":      s.elapsed.Round(time.Millisecond),
	})
	if reportErr != nil {
		return reportErr
	}
	s.out.GenerationComplete()
	return nil
}

// report prints each pass and returns the error of the last failed one
func (s *session) report(results []*cli.PassResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last error
	for _, r := range results {
		s.passes++
		s.written += len(r.Written)
		s.removed += len(r.Removed)
		s.errors += r.Diagnostics.Count(models.SeverityError) + r.Diagnostics.Count(models.SeverityFatal)
		s.warnings += r.Diagnostics.Count(models.SeverityWarning)
		s.elapsed += r.Duration

		s.reporter.ReportDiagnostics(r.Diagnostics)
		if s.out.Level() >= utils.DiagnosticVerbose {
			for _, path := range r.Written {
				s.out.PhaseProgress("Writing " + s.rel(path))
			}
			for _, path := range r.Removed {
				s.out.PhaseProgress("Removing " + s.rel(path))
			}
		}

		switch {
		case r.Aborted:
			last = cli.AbortedError(r)
		case r.Err != nil:
			last = r.Err
		default:
			s.out.PhaseItem(fmt.Sprintf("Pass %s: %d written, %d removed (%s)",
				shortID(r.ID), len(r.Written), len(r.Removed), r.Duration.Round(time.Millisecond)))
		}
	}
	return last
}

func (s *session) rel(path string) string {
	if s.outDir == "" {
		return path
	}
	if rel, err := filepath.Rel(s.outDir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
