package cmd

import (
	"log/slog"

	"github.com/toyz/ngmod/internal/cli"
)

// Clean removes the generated output root
type Clean struct{}

// Run is called by Kong when the clean command is executed.
func (c *Clean) Run(logger *slog.Logger, globals *Globals, project *Project) error {
	out := globals.Diagnostics()

	config, err := project.Config()
	if err != nil {
		return err
	}

	out.Header("clean")
	out.Info("Removing %s", config.OutputDir)
	files, err := cli.NewCleaner(config.OutputDir).CleanGeneratedFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		out.Verbose("removed %s", f)
	}
	logger.Debug("output root removed", "dir", config.OutputDir, "files", len(files))
	out.Success("Removed %d generated file(s)", len(files))
	return nil
}
