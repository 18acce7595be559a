package templates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/ngmod/internal/models"
)

// ImportManager collects the named imports of one generated file and renders
// one import line per require key
type ImportManager struct {
	fromFile string
	imports  map[string]map[string]bool // require key -> names
}

// NewImportManager creates an import manager for the file at fromFile
func NewImportManager(fromFile string) *ImportManager {
	return &ImportManager{
		fromFile: fromFile,
		imports:  make(map[string]map[string]bool),
	}
}

// AddImport adds a name imported from a require key
func (im *ImportManager) AddImport(requireKey, name string) {
	if requireKey == "" || name == "" {
		return
	}
	names, ok := im.imports[requireKey]
	if !ok {
		names = make(map[string]bool)
		im.imports[requireKey] = names
	}
	names[name] = true
}

// AddModule imports a module class, by relative path when it is local
func (im *ImportManager) AddModule(ref models.ModuleRef) {
	im.AddImport(models.RequireKeyFor(im.fromFile, ref), ref.ClassName)
}

// AddSource imports a class from its source file
func (im *ImportManager) AddSource(fileKey, name string) {
	im.AddImport(models.RelativeRequireKey(im.fromFile, fileKey), name)
}

// GenerateImports renders the import lines sorted by require key, names sorted
func (im *ImportManager) GenerateImports() string {
	keys := make([]string, 0, len(im.imports))
	for key := range im.imports {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result strings.Builder
	for _, key := range keys {
		names := make([]string, 0, len(im.imports[key]))
		for name := range im.imports[key] {
			names = append(names, name)
		}
		sort.Strings(names)
		result.WriteString(fmt.Sprintf("import { %s } from %q;\n", strings.Join(names, ", "), key))
	}
	return result.String()
}
