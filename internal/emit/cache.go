// Package emit owns the generation cache: it writes rendered artifacts whose
// content changed and sweeps generated files that are no longer produced.
package emit

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/utils/fileops"
)

// GeneratedPattern selects the generated files below the output root
const GeneratedPattern = "**/*.ts"

// DefaultConcurrency bounds parallel reads, writes and removals
const DefaultConcurrency = 8

// Cache maps output paths to the content last written there
type Cache struct {
	fo          *fileops.FileOps
	concurrency int
	logger      *slog.Logger

	mu      sync.Mutex
	entries map[string]string
	// dirty paths have an unknown on-disk state and are always rewritten or swept
	dirty  map[string]bool
	loaded bool
}

// Result reports the file system effects of one emission
type Result struct {
	Written     []string
	Removed     []string
	RemovedDirs []string
}

// NewCache creates a cache for the output root
func NewCache(root string, concurrency int, logger *slog.Logger) *Cache {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		fo:          fileops.NewFileOps(root),
		concurrency: concurrency,
		logger:      logger,
		entries:     make(map[string]string),
		dirty:       make(map[string]bool),
	}
}

// Root returns the output root
func (c *Cache) Root() string {
	return c.fo.Root()
}

// Len returns the number of cached paths
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries) + len(c.dirty)
}

// Content returns the cached content of path
func (c *Cache) Content(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.entries[path]
	return content, ok
}

// Paths returns every tracked path, sorted
func (c *Cache) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trackedLocked()
}

// Load populates the cache from the generated files already on disk. It runs
// once; later calls are no-ops.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return nil
	}
	c.loaded = true
	c.mu.Unlock()

	paths, err := c.fo.Glob(GeneratedPattern)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := c.fo.ReadFile(path)

			c.mu.Lock()
			defer c.mu.Unlock()
			if err != nil {
				c.logger.Warn("unreadable generated file", "path", path, "error", err)
				c.dirty[path] = true
				return nil
			}
			c.entries[path] = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.Debug("generation cache loaded", "root", c.Root(), "files", len(paths))
	return nil
}

// Emit writes every artifact whose content differs from the cache, then
// removes every tracked path that is neither produced nor retained, then
// removes empty directories below the output root. Retained paths belong to
// files whose generation failed this pass and keep their previous output.
//
// Failed operations are collected and returned together; the cache only
// records operations that completed.
func (c *Cache) Emit(ctx context.Context, artifacts []models.Artifact, retained []string) (*Result, error) {
	result := &Result{}
	failures := &errors.MultipleErrors{}

	produced := make(map[string]bool, len(artifacts))
	var writes []models.Artifact
	c.mu.Lock()
	for _, artifact := range artifacts {
		produced[artifact.Path] = true
		if current, ok := c.entries[artifact.Path]; ok && current == artifact.Content && !c.dirty[artifact.Path] {
			continue
		}
		writes = append(writes, artifact)
	}
	keep := make(map[string]bool, len(retained))
	for _, path := range retained {
		keep[path] = true
	}
	var removals []string
	for _, path := range c.trackedLocked() {
		if !produced[path] && !keep[path] {
			removals = append(removals, path)
		}
	}
	c.mu.Unlock()

	c.run(ctx, len(writes), failures, func(i int) error {
		artifact := writes[i]
		if err := c.fo.WriteFile(artifact.Path, artifact.Content); err != nil {
			c.mu.Lock()
			delete(c.entries, artifact.Path)
			c.dirty[artifact.Path] = true
			c.mu.Unlock()
			return err
		}
		c.mu.Lock()
		c.entries[artifact.Path] = artifact.Content
		delete(c.dirty, artifact.Path)
		result.Written = append(result.Written, artifact.Path)
		c.mu.Unlock()
		return nil
	})

	c.run(ctx, len(removals), failures, func(i int) error {
		path := removals[i]
		if err := c.fo.RemoveFile(path); err != nil {
			return err
		}
		c.mu.Lock()
		delete(c.entries, path)
		delete(c.dirty, path)
		result.Removed = append(result.Removed, path)
		c.mu.Unlock()
		return nil
	})

	dirs, err := c.fo.RemoveEmptyDirs()
	result.RemovedDirs = dirs
	if err != nil {
		failures.Add(asNgmodError(err))
	}

	sort.Strings(result.Written)
	sort.Strings(result.Removed)
	c.logger.Debug("emission finished",
		"written", len(result.Written),
		"removed", len(result.Removed),
		"dirs", len(result.RemovedDirs),
		"failures", failures.Count())

	if !failures.IsEmpty() {
		return result, failures
	}
	return result, nil
}

// Clear forgets every tracked path
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	c.dirty = make(map[string]bool)
}

// run applies op to n items with bounded parallelism, collecting failures
func (c *Cache) run(ctx context.Context, n int, failures *errors.MultipleErrors, op func(i int) error) {
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = op(i)
			}
			if err != nil {
				mu.Lock()
				failures.Add(asNgmodError(err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Cache) trackedLocked() []string {
	paths := make([]string, 0, len(c.entries)+len(c.dirty))
	for path := range c.entries {
		paths = append(paths, path)
	}
	for path := range c.dirty {
		if _, ok := c.entries[path]; !ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

func asNgmodError(err error) errors.NgmodError {
	if ne, ok := err.(errors.NgmodError); ok {
		return ne
	}
	return errors.Wrap(errors.FileSystemErrorCode, "file system operation failed", err)
}
