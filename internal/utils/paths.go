package utils

import (
	"path/filepath"
	"strings"
)

// IsWithin reports whether path lies inside root (or is root itself)
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// TrimExt removes the final extension of a file name
func TrimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
