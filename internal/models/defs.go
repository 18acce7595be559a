package models

import (
	"path/filepath"
	"sort"
	"strings"
)

// ExportKey identifies an exported symbol by its originating module
type ExportKey struct {
	Module string
	Symbol string
}

// ModuleRef points at an aggregation module, generated or pre-built
type ModuleRef struct {
	ClassName  string
	ModuleName string // import specifier of a library module; empty for generated modules
	FilePath   string // path of a generated or in-tree module; empty for library modules
}

// IsLocal reports whether the module is imported by relative path
func (r ModuleRef) IsLocal() bool {
	return r.FilePath != ""
}

// ID returns a key that is unique per module
func (r ModuleRef) ID() string {
	if r.IsLocal() {
		return r.FilePath + "#" + r.ClassName
	}
	return r.ModuleName + "#" + r.ClassName
}

// ExportEntry records which module exports a symbol
type ExportEntry struct {
	Owner     ModuleRef
	OwnerFile string // the source or library file that claims the export
	Selector  string
	PipeName  string
}

// SourceSymbol is a class imported into a generated module from its origin file
type SourceSymbol struct {
	FileKey string
	Name    string
}

// ImportedSymbol is one name of one import line
type ImportedSymbol struct {
	RequireKey string
	Name       string
}

// AggregationModuleDef describes one generated aggregation module
type AggregationModuleDef struct {
	OriginFilePath    string
	GeneratedFilePath string
	ClassName         string
	Sources           []SourceSymbol
	Imports           []ModuleRef
	Declarations      []string
	Exports           []string
	EntryComponents   []string
	Providers         []string
}

// Ref returns a reference to the generated module
func (d *AggregationModuleDef) Ref() ModuleRef {
	return ModuleRef{ClassName: d.ClassName, FilePath: d.GeneratedFilePath}
}

// IsEmpty reports whether the module would neither declare nor provide anything
func (d *AggregationModuleDef) IsEmpty() bool {
	return len(d.Declarations) == 0 && len(d.Providers) == 0
}

// ImportedSymbols returns the deduplicated import table, sorted by require key and name
func (d *AggregationModuleDef) ImportedSymbols() []ImportedSymbol {
	seen := make(map[ImportedSymbol]bool)
	var out []ImportedSymbol
	add := func(s ImportedSymbol) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, src := range d.Sources {
		add(ImportedSymbol{RequireKey: RelativeRequireKey(d.GeneratedFilePath, src.FileKey), Name: src.Name})
	}
	for _, imp := range d.Imports {
		add(ImportedSymbol{RequireKey: RequireKeyFor(d.GeneratedFilePath, imp), Name: imp.ClassName})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequireKey != out[j].RequireKey {
			return out[i].RequireKey < out[j].RequireKey
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ImportTableSize counts the distinct require keys of the import table
func (d *AggregationModuleDef) ImportTableSize() int {
	keys := make(map[string]bool)
	for _, s := range d.ImportedSymbols() {
		keys[s.RequireKey] = true
	}
	return len(keys)
}

// RequireKeyFor returns the import specifier used from fromFile to reach ref
func RequireKeyFor(fromFile string, ref ModuleRef) string {
	if !ref.IsLocal() {
		return ref.ModuleName
	}
	return RelativeRequireKey(fromFile, TrimTSExt(ref.FilePath))
}

// RelativeRequireKey returns a "./"-prefixed slash path from fromFile's directory to target
func RelativeRequireKey(fromFile, target string) string {
	rel, err := filepath.Rel(filepath.Dir(fromFile), target)
	if err != nil {
		rel = target
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// TrimTSExt strips a trailing ".ts"
func TrimTSExt(path string) string {
	return strings.TrimSuffix(path, ".ts")
}

// SortModuleRefs orders module references by class name, then by identity
func SortModuleRefs(refs []ModuleRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].ClassName != refs[j].ClassName {
			return refs[i].ClassName < refs[j].ClassName
		}
		return refs[i].ID() < refs[j].ID()
	})
}

// MergeNames returns the sorted union of name lists
func MergeNames(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// RouteNode is one entry of a route list
type RouteNode struct {
	Path         string
	LoadChildren *ModuleRef // generated route module loaded lazily
	Children     []RouteNode
}

// IsGroup reports whether the node only groups children
func (n RouteNode) IsGroup() bool {
	return n.LoadChildren == nil
}

// RouteModuleDef describes the generated route module of one page
type RouteModuleDef struct {
	FilePath    string
	ClassName   string
	PageClass   string
	PageFileKey string
	PageModule  ModuleRef
	Children    []RouteNode
}

// RouteListDef is the flat route list at the pages root
type RouteListDef struct {
	FilePath string
	Children []RouteNode
}

// LazyEntry maps a route code to a lazily loaded aggregation module
type LazyEntry struct {
	Code   string
	Module ModuleRef
}

// LazyRegistryDef is the generated lazy component registry
type LazyRegistryDef struct {
	FilePath string
	Entries  []LazyEntry
}

// Artifact is a rendered output file
type Artifact struct {
	Path    string
	Content string
}
