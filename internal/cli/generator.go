package cli

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toyz/ngmod/internal/emit"
	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/generator"
	"github.com/toyz/ngmod/internal/log"
	"github.com/toyz/ngmod/internal/metadata"
	"github.com/toyz/ngmod/internal/models"
)

// ChangeSet lists metadata files reported changed or removed
type ChangeSet struct {
	Changed []string
	Removed []string
}

// IsEmpty reports whether the change-set carries no paths
func (cs ChangeSet) IsEmpty() bool {
	return len(cs.Changed) == 0 && len(cs.Removed) == 0
}

// PassResult reports one generation pass
type PassResult struct {
	ID          string
	Diagnostics models.Diagnostics
	Written     []string
	Removed     []string
	Aborted     bool
	// Err holds the file system failures of the emission, which is retried
	// with the next change-set
	Err      error
	Duration time.Duration
}

// batch accumulates notifications; the latest report of a path wins
type batch struct {
	changed map[string]bool
	removed map[string]bool
}

func newBatch() *batch {
	return &batch{changed: make(map[string]bool), removed: make(map[string]bool)}
}

func (b *batch) merge(cs ChangeSet) {
	for _, p := range cs.Changed {
		b.changed[p] = true
		delete(b.removed, p)
	}
	for _, p := range cs.Removed {
		b.removed[p] = true
		delete(b.changed, p)
	}
}

func (b *batch) isEmpty() bool {
	return len(b.changed) == 0 && len(b.removed) == 0
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Generator drives generation passes. It owns the module registry, the
// generation cache and the planner with its definition cache. Passes never
// overlap: notifications arriving during a pass are picked up by the loop
// running it.
type Generator struct {
	config   Config
	registry *metadata.Registry
	planner  generator.Planner
	cache    *emit.Cache
	scanner  *MetadataScanner
	logger   *slog.Logger
	readFile func(string) ([]byte, error)

	mu      sync.Mutex
	pending *batch
	running bool
}

// NewGenerator creates a driver for a resolved configuration
func NewGenerator(config Config, logger *slog.Logger) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Discard()
	}
	planner, err := generator.NewGenerator(config.Layout(), config.CacheSize, logger)
	if err != nil {
		return nil, err
	}
	return &Generator{
		config:   config,
		registry: metadata.NewRegistry(config.SrcDir, NewPackageResolver()),
		planner:  planner,
		cache:    emit.NewCache(config.OutputDir, config.Concurrency, logger),
		scanner:  NewMetadataScanner(config.OutputDir),
		logger:   logger,
		readFile: os.ReadFile,
		pending:  newBatch(),
	}, nil
}

// Scanner returns the metadata scanner, shared with the watcher
func (g *Generator) Scanner() *MetadataScanner {
	return g.scanner
}

// Load warms the generation cache from disk, registers every metadata file
// below the source and library directories and runs the first pass
func (g *Generator) Load(ctx context.Context) ([]*PassResult, error) {
	if err := g.cache.Load(ctx); err != nil {
		return nil, err
	}
	files, err := g.scanner.Scan(g.config.WatchDirs())
	if err != nil {
		return nil, err
	}
	g.logger.Debug("initial scan", "files", len(files), "cached", g.cache.Len())
	return g.notify(ctx, ChangeSet{Changed: files}, true)
}

// Notify merges a change-set into the pending batch and, unless a pass is
// already in flight, runs passes until the batch is drained
func (g *Generator) Notify(ctx context.Context, cs ChangeSet) ([]*PassResult, error) {
	return g.notify(ctx, cs, false)
}

func (g *Generator) notify(ctx context.Context, cs ChangeSet, force bool) ([]*PassResult, error) {
	g.mu.Lock()
	g.pending.merge(cs)
	if g.running {
		g.mu.Unlock()
		g.logger.Debug("pass in flight, change-set queued", "changed", len(cs.Changed), "removed", len(cs.Removed))
		return nil, nil
	}
	g.running = true
	g.mu.Unlock()

	var results []*PassResult
	for first := true; ; first = false {
		current, err := g.next(ctx, first && force)
		if current == nil {
			return results, err
		}
		results = append(results, g.runPass(ctx, current))
	}
}

// next takes the pending batch for the next pass. When there is nothing to
// run it clears running in the same critical section, so a Notify that finds
// a pass in flight can rely on that pass picking up its change-set.
func (g *Generator) next(ctx context.Context, force bool) (*batch, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		g.running = false
		return nil, err
	}
	if g.pending.isEmpty() && !force {
		g.running = false
		return nil, nil
	}
	current := g.pending
	g.pending = newBatch()
	return current, nil
}

// runPass applies a batch to the registry and runs one generation pass
func (g *Generator) runPass(ctx context.Context, b *batch) *PassResult {
	start := time.Now()
	result := &PassResult{ID: uuid.NewString()}
	logger := g.logger.With("pass", result.ID)

	for _, path := range sortedSet(b.removed) {
		if g.registry.Unregister(path) {
			logger.Log(ctx, log.LevelTrace, "unregistered", "file", path)
		}
	}
	for _, path := range sortedSet(b.changed) {
		g.load(ctx, logger, path, &result.Diagnostics)
	}

	plan := g.planner.Plan(g.registry.Snapshot())
	result.Diagnostics = append(result.Diagnostics, plan.Diagnostics...)

	if plan.Aborted {
		result.Aborted = true
		result.Duration = time.Since(start)
		logger.Warn("pass aborted", "fatal", result.Diagnostics.Count(models.SeverityFatal))
		return result
	}

	emitted, err := g.cache.Emit(ctx, plan.Artifacts, plan.Retained)
	result.Written = emitted.Written
	result.Removed = emitted.Removed
	if err != nil {
		result.Err = err
		if multi, ok := err.(*errors.MultipleErrors); ok {
			for _, e := range multi.Errors {
				result.Diagnostics.Add(e, models.SeverityError)
			}
		}
		logger.Error("emission incomplete", "error", err)
	}

	result.Duration = time.Since(start)
	logger.Info("pass finished",
		"records", g.registry.Len(),
		"artifacts", len(plan.Artifacts),
		"written", len(result.Written),
		"removed", len(result.Removed),
		"diagnostics", len(result.Diagnostics),
		"duration", result.Duration)
	return result
}

// load registers one changed file. A file that cannot be read or parsed is
// reported and unregistered.
func (g *Generator) load(ctx context.Context, logger *slog.Logger, path string, diags *models.Diagnostics) {
	raw, err := g.readFile(path)
	if err != nil {
		g.registry.Unregister(path)
		diags.Add(errors.WrapFileSystemError("read", path, err).
			WithLocation(errors.SourceLocation{File: path}), models.SeverityError)
		return
	}

	record, err := g.registry.Register(path, raw)
	if err != nil {
		g.registry.Unregister(path)
		diags.Add(asNgmodError(err, path), models.SeverityError)
		return
	}
	for _, shapeErr := range record.ShapeErrors {
		diags.Add(shapeErr, models.SeverityWarning)
	}
	logger.Log(ctx, log.LevelTrace, "registered", "file", path, "module", record.ModuleName, "library", record.IsLibrary)
}

func asNgmodError(err error, file string) errors.NgmodError {
	if ne, ok := err.(errors.NgmodError); ok {
		return ne
	}
	return errors.Wrap(errors.MetadataShapeErrorCode, "invalid metadata", err).
		WithLocation(errors.SourceLocation{File: file})
}
