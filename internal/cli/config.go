package cli

import (
	"path/filepath"
	"time"

	"github.com/toyz/ngmod/internal/emit"
	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/synth"
	"github.com/toyz/ngmod/internal/utils"
)

// DefaultDebounce is the quiet period that closes a watch change-set
const DefaultDebounce = 300 * time.Millisecond

// Config holds the resolved configuration of the generator
type Config struct {
	// SrcDir is the application source root; metadata outside it belongs to libraries
	SrcDir string
	// PagesDir is the root of the page directory convention, empty to disable routes
	PagesDir string
	// OutputDir is the generated output root
	OutputDir string
	// LibraryDirs are scanned for pre-built library metadata
	LibraryDirs []string
	// Excludes are doublestar globs, relative to SrcDir, of files that never get a module
	Excludes []string

	Debounce    time.Duration
	Concurrency int
	CacheSize   int
}

// Resolve makes every directory absolute against root and fills defaults
func (c Config) Resolve(root string) (Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return c, errors.WrapConfigurationError("root", "resolve", err)
	}
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(absRoot, p)
	}

	out := c
	out.SrcDir = abs(c.SrcDir)
	out.OutputDir = abs(c.OutputDir)
	if c.PagesDir != "" {
		out.PagesDir = abs(c.PagesDir)
	}
	out.LibraryDirs = nil
	for _, dir := range c.LibraryDirs {
		out.LibraryDirs = append(out.LibraryDirs, abs(dir))
	}
	if out.Debounce <= 0 {
		out.Debounce = DefaultDebounce
	}
	if out.Concurrency <= 0 {
		out.Concurrency = emit.DefaultConcurrency
	}
	if out.CacheSize <= 0 {
		out.CacheSize = synth.DefaultCacheSize
	}
	return out, out.Validate()
}

// Validate checks the directory relationships
func (c Config) Validate() error {
	if c.SrcDir == "" || c.SrcDir == "." {
		return errors.New(errors.ConfigurationErrorCode, "source directory is required").
			WithSuggestion("Set src-dir in ngmod.yaml or pass --src-dir")
	}
	if c.OutputDir == "" || c.OutputDir == "." {
		return errors.New(errors.ConfigurationErrorCode, "output directory is required").
			WithSuggestion("Set output-dir in ngmod.yaml or pass --output-dir")
	}
	if utils.IsWithin(c.OutputDir, c.SrcDir) {
		return errors.Newf(errors.ConfigurationErrorCode, "output directory %s contains the source directory", c.OutputDir).
			WithSuggestion("Generated files are swept; point output-dir at a dedicated directory such as src/_modules")
	}
	if c.PagesDir != "" && !utils.IsWithin(c.SrcDir, c.PagesDir) {
		return errors.Newf(errors.ConfigurationErrorCode, "pages directory %s is outside the source directory", c.PagesDir)
	}
	return nil
}

// Layout returns the path layout of generated files
func (c Config) Layout() models.Layout {
	return models.Layout{
		SrcDir:    c.SrcDir,
		PagesDir:  c.PagesDir,
		OutputDir: c.OutputDir,
		Excludes:  c.Excludes,
	}
}

// WatchDirs returns the directories holding input metadata
func (c Config) WatchDirs() []string {
	return append([]string{c.SrcDir}, c.LibraryDirs...)
}
