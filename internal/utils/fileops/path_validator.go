package fileops

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/toyz/ngmod/internal/utils"
)

// PathValidator confines paths to a root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator for paths below root
func NewPathValidator(root string) *PathValidator {
	return &PathValidator{root: filepath.Clean(root)}
}

// Root returns the confining directory
func (pv *PathValidator) Root() string {
	return pv.root
}

// ValidateAndClean cleans a path and ensures it lies inside the root and exists
func (pv *PathValidator) ValidateAndClean(path string) (string, error) {
	cleanPath, err := pv.ValidateAndCleanOptional(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(cleanPath); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", cleanPath)
	}
	return cleanPath, nil
}

// ValidateAndCleanOptional cleans a path and ensures it lies inside the
// root, without requiring it to exist
func (pv *PathValidator) ValidateAndCleanOptional(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	cleanPath := filepath.Clean(path)
	if !utils.IsWithin(pv.root, cleanPath) {
		return "", fmt.Errorf("path %s is outside of %s", cleanPath, pv.root)
	}
	return cleanPath, nil
}

// Exists checks if a path exists
func (pv *PathValidator) Exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsDir checks if a path exists and is a directory
func (pv *PathValidator) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
