package cli

import (
	"github.com/toyz/ngmod/internal/emit"
	"github.com/toyz/ngmod/internal/utils/fileops"
)

// Cleaner removes the generated output root
type Cleaner struct {
	fo *fileops.FileOps
}

// NewCleaner creates a cleaner for outputDir
func NewCleaner(outputDir string) *Cleaner {
	return &Cleaner{fo: fileops.NewFileOps(outputDir)}
}

// CleanGeneratedFiles removes the output root and returns the generated
// files that were in it
func (c *Cleaner) CleanGeneratedFiles() ([]string, error) {
	files, err := c.fo.Glob(emit.GeneratedPattern)
	if err != nil {
		return nil, err
	}
	if err := c.fo.RemoveAll(); err != nil {
		return nil, err
	}
	return files, nil
}
