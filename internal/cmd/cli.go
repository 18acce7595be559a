// Package cmd holds the kong command tree of the ngmod binary.
package cmd

import (
	"time"

	"github.com/toyz/ngmod/internal/cli"
	"github.com/toyz/ngmod/internal/utils"
)

// CLI is the root of the command tree
type CLI struct {
	Globals `embed:""`
	Project `embed:""`

	Build  Build         `cmd:"" default:"1" help:"Generate modules once and exit"`
	Watch  Watch         `cmd:"" help:"Generate modules and regenerate on metadata changes"`
	Clean  Clean         `cmd:"" help:"Remove the generated output root"`
	Config ConfigCommand `cmd:"" help:"Manage configuration files"`
}

// Globals are accepted by every command
type Globals struct {
	ConfigFile string   `name:"config" help:"Config file (json, yaml or toml)" placeholder:"PATH"`
	Verbose    bool     `short:"v" help:"Show warnings and every written file"`
	Quiet      bool     `short:"q" help:"Only show errors"`
	Debug      bool     `help:"Show debug output"`
	Log        LogFlags `embed:"" prefix:"log-"`
}

// LogFlags configure the structured logger
type LogFlags struct {
	Level string `help:"Log level (trace, debug, info, warn, error)" default:"warn"`
	File  string `help:"Also write JSON logs to this file" placeholder:"PATH"`
}

// Diagnostics returns the console output for the verbosity flags
func (g *Globals) Diagnostics() *utils.DiagnosticSystem {
	return utils.NewDiagnosticSystem(utils.ParseDiagnosticLevel(g.Quiet, g.Verbose, g.Debug))
}

// Reporter returns the diagnostic reporter for the verbosity flags
func (g *Globals) Reporter() *cli.DiagnosticReporter {
	return cli.NewDiagnosticReporter(g.Verbose || g.Debug)
}

// Project is the directory layout. Its flags live on the root so config
// files set them without a command prefix.
type Project struct {
	Root        string        `help:"Directory that relative paths resolve against" default:"."`
	SrcDir      string        `help:"Application source root" default:"src"`
	PagesDir    string        `help:"Root of the page directory convention, empty disables routes"`
	OutputDir   string        `help:"Generated output root" default:"src/_modules"`
	LibraryDirs []string      `help:"Directories scanned for pre-built library metadata" default:"node_modules"`
	Excludes    []string      `help:"Globs, relative to the source root, of files that never get a module"`
	Debounce    time.Duration `help:"Quiet period that closes a watch change-set" default:"300ms"`
	Concurrency int           `help:"Parallel file reads and writes" default:"8"`
	CacheSize   int           `help:"Definition cache capacity" default:"4096"`
}

// Config resolves the layout against Root
func (p Project) Config() (cli.Config, error) {
	return cli.Config{
		SrcDir:      p.SrcDir,
		PagesDir:    p.PagesDir,
		OutputDir:   p.OutputDir,
		LibraryDirs: p.LibraryDirs,
		Excludes:    p.Excludes,
		Debounce:    p.Debounce,
		Concurrency: p.Concurrency,
		CacheSize:   p.CacheSize,
	}.Resolve(p.Root)
}
