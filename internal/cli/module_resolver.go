package cli

import (
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/toyz/ngmod/internal/utils"
)

// packageName is the resolution of one directory
type packageName struct {
	name  string
	found bool
}

// PackageResolver names library files after the nearest package.json above them
type PackageResolver struct {
	names *utils.Cache[string, packageName] // directory -> resolution
}

// NewPackageResolver creates a resolver with an empty cache
func NewPackageResolver() *PackageResolver {
	return &PackageResolver{names: utils.NewCache[string, packageName]()}
}

// PackageName returns the name of the nearest package.json above filePath
func (r *PackageResolver) PackageName(filePath string) (string, bool) {
	res := r.lookup(filepath.Dir(filepath.Clean(filePath)))
	return res.name, res.found
}

// Reset forgets every cached resolution
func (r *PackageResolver) Reset() {
	r.names.Clear()
}

func (r *PackageResolver) lookup(dir string) packageName {
	if res, ok := r.names.Get(dir); ok {
		return res
	}

	var res packageName
	if name, ok := readPackageName(filepath.Join(dir, "package.json")); ok {
		res = packageName{name: name, found: true}
	} else if parent := filepath.Dir(dir); parent != dir {
		res = r.lookup(parent)
	}
	r.names.Set(dir, res)
	return res
}

func readPackageName(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return "", false
	}
	return pkg.Name, true
}
