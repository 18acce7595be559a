package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/utils"
)

// MetadataPattern selects compiled metadata files
const MetadataPattern = "**/*.metadata.json"

const metadataSuffix = ".metadata.json"

// MetadataScanner finds metadata files, never inside the output root
type MetadataScanner struct {
	outputDir string
}

// NewMetadataScanner creates a scanner that skips outputDir
func NewMetadataScanner(outputDir string) *MetadataScanner {
	return &MetadataScanner{outputDir: filepath.Clean(outputDir)}
}

// Matches reports whether path is a metadata file the generator consumes
func (s *MetadataScanner) Matches(path string) bool {
	return strings.HasSuffix(path, metadataSuffix) && !utils.IsWithin(s.outputDir, path)
}

// Scan returns the metadata files below dirs, sorted and deduplicated.
// Missing directories are skipped.
func (s *MetadataScanner) Scan(dirs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.WrapFileSystemError("scan", dir, err)
		}
		if !info.IsDir() {
			return nil, errors.Newf(errors.FileSystemErrorCode, "%s is not a directory", dir)
		}

		err = doublestar.GlobWalk(os.DirFS(dir), MetadataPattern, func(path string, d os.DirEntry) error {
			if d.IsDir() {
				return nil
			}
			full := filepath.Join(dir, filepath.FromSlash(path))
			if s.Matches(full) && !seen[full] {
				seen[full] = true
				files = append(files, full)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapFileSystemError("scan", dir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
