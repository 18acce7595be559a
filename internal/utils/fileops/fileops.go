// Package fileops performs file operations confined to a single root
// directory, the output root of generated files.
package fileops

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FileOps provides file operations below a root directory
type FileOps struct {
	pathValidator *PathValidator
	errorWrapper  *ErrorWrapper
}

// NewFileOps creates a FileOps confined to root
func NewFileOps(root string) *FileOps {
	return &FileOps{
		pathValidator: NewPathValidator(root),
		errorWrapper:  NewErrorWrapper(),
	}
}

// Root returns the directory the operations are confined to
func (fo *FileOps) Root() string {
	return fo.pathValidator.Root()
}

// ReadFile reads a file
func (fo *FileOps) ReadFile(path string) (string, error) {
	cleanPath, err := fo.pathValidator.ValidateAndClean(path)
	if err != nil {
		return "", fo.errorWrapper.WrapPathError(path, err)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fo.errorWrapper.WrapFileReadError(cleanPath, err)
	}
	return string(content), nil
}

// WriteFile writes content, creating missing parent directories
func (fo *FileOps) WriteFile(path, content string) error {
	cleanPath, err := fo.pathValidator.ValidateAndCleanOptional(path)
	if err != nil {
		return fo.errorWrapper.WrapPathError(path, err)
	}

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return fo.errorWrapper.WrapFileWriteError(cleanPath, err)
	}
	if err := os.WriteFile(cleanPath, []byte(content), 0644); err != nil {
		return fo.errorWrapper.WrapFileWriteError(cleanPath, err)
	}
	return nil
}

// RemoveFile removes a file. Removing a missing file is not an error.
func (fo *FileOps) RemoveFile(path string) error {
	cleanPath, err := fo.pathValidator.ValidateAndCleanOptional(path)
	if err != nil {
		return fo.errorWrapper.WrapPathError(path, err)
	}
	if err := os.Remove(cleanPath); err != nil && !os.IsNotExist(err) {
		return fo.errorWrapper.WrapFileRemovalError(cleanPath, err)
	}
	return nil
}

// Glob returns the files below the root matching a doublestar pattern
// relative to the root, sorted
func (fo *FileOps) Glob(pattern string) ([]string, error) {
	root := fo.Root()
	if !fo.pathValidator.IsDir(root) {
		return nil, nil
	}

	var matches []string
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(path string, d os.DirEntry) error {
		if !d.IsDir() {
			matches = append(matches, filepath.Join(root, filepath.FromSlash(path)))
		}
		return nil
	})
	if err != nil {
		return nil, fo.errorWrapper.WrapGlobError(pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// RemoveEmptyDirs removes every empty directory below the root, deepest
// first. The root itself is kept.
func (fo *FileOps) RemoveEmptyDirs() ([]string, error) {
	root := fo.Root()
	if !fo.pathValidator.IsDir(root) {
		return nil, nil
	}

	var removed []string
	var visit func(dir string) (bool, error)
	visit = func(dir string) (bool, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return false, fo.errorWrapper.WrapDirectoryReadError(dir, err)
		}
		empty := true
		for _, entry := range entries {
			if !entry.IsDir() {
				empty = false
				continue
			}
			child := filepath.Join(dir, entry.Name())
			childEmpty, err := visit(child)
			if err != nil {
				return false, err
			}
			if !childEmpty {
				empty = false
				continue
			}
			if err := os.Remove(child); err != nil {
				return false, fo.errorWrapper.WrapFileRemovalError(child, err)
			}
			removed = append(removed, child)
		}
		return empty, nil
	}

	if _, err := visit(root); err != nil {
		return removed, err
	}
	return removed, nil
}

// RemoveAll removes the root directory and everything below it
func (fo *FileOps) RemoveAll() error {
	root := fo.Root()
	if err := os.RemoveAll(root); err != nil {
		return fo.errorWrapper.WrapFileRemovalError(root, err)
	}
	return nil
}

// Exists checks if a path below the root exists
func (fo *FileOps) Exists(path string) bool {
	cleanPath, err := fo.pathValidator.ValidateAndCleanOptional(path)
	if err != nil {
		return false
	}
	return fo.pathValidator.Exists(cleanPath)
}
