package metadata

import (
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/utils"
)

// PackageNameResolver finds the package name that owns a file
type PackageNameResolver interface {
	PackageName(filePath string) (string, bool)
}

// Registry holds the live module records, keyed by file path
type Registry struct {
	records  *utils.BaseRegistry[string, *models.ModuleRecord]
	srcRoot  string
	packages PackageNameResolver
	revision atomic.Uint64
}

// NewRegistry creates a registry. Files outside srcRoot are libraries.
// Records without an importAs are named after their package; packages may be
// nil. Without a package, a library record falls back to its file key and an
// application record to srcRoot, so every application file shares one name.
func NewRegistry(srcRoot string, packages PackageNameResolver) *Registry {
	records := utils.NewBaseRegistry[string, *models.ModuleRecord]("module", "file path", "module record")
	records.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[*models.ModuleRecord]("file path"),
		utils.NotNilValueValidator[string, models.ModuleRecord]("module record"),
	))
	return &Registry{
		records:  records,
		srcRoot:  filepath.Clean(srcRoot),
		packages: packages,
	}
}

// Register replaces the record for filePath with the parsed raw metadata
func (r *Registry) Register(filePath string, raw []byte) (*models.ModuleRecord, error) {
	filePath = filepath.Clean(filePath)
	doc, err := Parse(filePath, raw)
	if err != nil {
		return nil, err
	}

	record := &models.ModuleRecord{
		FilePath:    filePath,
		FileKey:     FileKey(filePath),
		Symbols:     doc.Symbols,
		Imports:     doc.Imports,
		IsLibrary:   !utils.IsWithin(r.srcRoot, filePath),
		Revision:    r.revision.Add(1),
		ShapeErrors: doc.ShapeErrors,
	}
	record.ModuleName = r.moduleName(record, doc.ImportAs)

	if err := r.records.Register(filePath, record); err != nil {
		return nil, errors.NewInvariantError("%v", err).
			WithLocation(errors.SourceLocation{File: filePath})
	}
	return record, nil
}

// Unregister removes the record for filePath
func (r *Registry) Unregister(filePath string) bool {
	return r.records.Delete(filepath.Clean(filePath))
}

// Get returns the record registered for filePath
func (r *Registry) Get(filePath string) (*models.ModuleRecord, bool) {
	return r.records.Get(filepath.Clean(filePath))
}

// Len returns the number of live records
func (r *Registry) Len() int {
	return r.records.Size()
}

// Snapshot captures the live records for one generation pass
func (r *Registry) Snapshot() *Snapshot {
	return NewSnapshot(r.records.Values())
}

func (r *Registry) moduleName(record *models.ModuleRecord, importAs string) string {
	if importAs != "" {
		return importAs
	}
	if r.packages != nil {
		if name, ok := r.packages.PackageName(record.FilePath); ok {
			return name
		}
	}
	if record.IsLibrary {
		return record.FileKey
	}
	return r.srcRoot
}

// Snapshot is an immutable view of the module records
type Snapshot struct {
	records  []*models.ModuleRecord
	byPath   map[string]*models.ModuleRecord
	byKey    map[string][]*models.ModuleRecord
	byModule map[string][]*models.ModuleRecord
}

// NewSnapshot indexes records by path, file key and module name
func NewSnapshot(records []*models.ModuleRecord) *Snapshot {
	sorted := append([]*models.ModuleRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })

	s := &Snapshot{
		records:  sorted,
		byPath:   make(map[string]*models.ModuleRecord, len(sorted)),
		byKey:    make(map[string][]*models.ModuleRecord),
		byModule: make(map[string][]*models.ModuleRecord),
	}
	for _, rec := range sorted {
		s.byPath[rec.FilePath] = rec
		s.byKey[rec.FileKey] = append(s.byKey[rec.FileKey], rec)
		s.byModule[rec.ModuleName] = append(s.byModule[rec.ModuleName], rec)
	}
	return s
}

// Records returns the records ordered by file path
func (s *Snapshot) Records() []*models.ModuleRecord {
	return s.records
}

// Record returns the record registered for filePath
func (s *Snapshot) Record(filePath string) (*models.ModuleRecord, bool) {
	rec, ok := s.byPath[filePath]
	return rec, ok
}

// Candidates returns the records an import specifier can refer to from a record
func (s *Snapshot) Candidates(from *models.ModuleRecord, specifier string) []*models.ModuleRecord {
	if !isRelative(specifier) {
		return s.byModule[specifier]
	}
	key := filepath.Clean(filepath.Join(filepath.Dir(from.FileKey), filepath.FromSlash(specifier)))
	out := append([]*models.ModuleRecord(nil), s.byKey[key]...)
	return append(out, s.byKey[filepath.Join(key, "index")]...)
}

// ModuleNames returns the module names an import specifier maps to
func (s *Snapshot) ModuleNames(from *models.ModuleRecord, specifier string) []string {
	if !isRelative(specifier) {
		return []string{specifier}
	}
	seen := make(map[string]bool)
	var names []string
	for _, rec := range s.Candidates(from, specifier) {
		if !seen[rec.ModuleName] {
			seen[rec.ModuleName] = true
			names = append(names, rec.ModuleName)
		}
	}
	return names
}

// Lookup finds the declaration a reference names, trying each candidate
// module until one defines it
func (s *Snapshot) Lookup(from *models.ModuleRecord, ref models.SymbolRef) (*models.ModuleRecord, models.Node, bool) {
	if !ref.IsImported() {
		node, ok := from.Symbols[ref.Name]
		return from, node, ok
	}
	for _, rec := range s.Candidates(from, ref.Module) {
		if node, ok := rec.Symbols[ref.Name]; ok {
			return rec, node, true
		}
	}
	return nil, nil, false
}

// Resolve follows references until it reaches a structural node. It returns
// the node together with the record it was declared in. A reference chain
// that loops back on itself is unresolved.
func (s *Snapshot) Resolve(from *models.ModuleRecord, node models.Node) (models.Node, *models.ModuleRecord, error) {
	visited := make(map[string]bool)
	rec := from
	for {
		ref, ok := node.(*models.ReferenceNode)
		if !ok {
			return node, rec, nil
		}
		mark := rec.FilePath + "\x00" + ref.Ref.Module + "\x00" + ref.Ref.Name
		if visited[mark] {
			return nil, nil, errors.NewResolutionError(from.FilePath, ref.Ref.Name, ref.Ref.Module, ref.Ref.Name).
				WithContext("reason", "reference cycle")
		}
		visited[mark] = true

		next, target, found := s.Lookup(rec, ref.Ref)
		if !found {
			return nil, nil, errors.NewResolutionError(from.FilePath, ref.Ref.Name, ref.Ref.Module, ref.Ref.Name)
		}
		rec, node = next, target
	}
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == ".."
}
