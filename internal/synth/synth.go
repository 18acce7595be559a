// Package synth builds the aggregation module definition of every eligible
// source file from the export, selector and pipe indices.
package synth

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/index"
	"github.com/toyz/ngmod/internal/metadata"
	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/selector"
)

const (
	commonModuleName  = "@angular/common"
	browserModuleName = "@angular/platform-browser"
)

// CommonModule is imported by every generated aggregation module
var CommonModule = models.ModuleRef{ClassName: "CommonModule", ModuleName: commonModuleName}

// DefaultCacheSize bounds the number of cached definitions
const DefaultCacheSize = 4096

type cacheKey struct {
	filePath    string
	revision    uint64
	fingerprint uint64
}

type cached struct {
	def   *models.AggregationModuleDef
	diags models.Diagnostics
}

// Synthesizer produces aggregation module definitions. Definitions are
// cached per origin file, record revision and index fingerprint; cached
// definitions are shared and must be treated as read-only.
type Synthesizer struct {
	layout models.Layout
	cache  *lru.Cache[cacheKey, cached]
}

// New creates a synthesizer with a definition cache of the given size
func New(layout models.Layout, cacheSize int) (*Synthesizer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, cached](cacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigurationErrorCode, "failed to create definition cache", err)
	}
	return &Synthesizer{layout: layout, cache: cache}, nil
}

// CacheLen returns the number of cached definitions
func (s *Synthesizer) CacheLen() int {
	return s.cache.Len()
}

// Synthesize builds the definitions of every candidate file of the index,
// ordered by generated path
func (s *Synthesizer) Synthesize(snap *metadata.Snapshot, ix *index.Index) ([]*models.AggregationModuleDef, models.Diagnostics) {
	var (
		defs  []*models.AggregationModuleDef
		diags models.Diagnostics
	)
	for _, file := range ix.CandidateFiles() {
		rec, ok := snap.Record(file)
		if !ok {
			continue
		}
		key := cacheKey{filePath: file, revision: rec.Revision, fingerprint: ix.Fingerprint}
		entry, hit := s.cache.Get(key)
		if !hit {
			entry.def, entry.diags = s.build(snap, ix, rec)
			s.cache.Add(key, entry)
		}
		defs = append(defs, entry.def)
		diags = append(diags, entry.diags...)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].GeneratedFilePath < defs[j].GeneratedFilePath })
	return defs, diags
}

func (s *Synthesizer) build(snap *metadata.Snapshot, ix *index.Index, rec *models.ModuleRecord) (*models.AggregationModuleDef, models.Diagnostics) {
	def := &models.AggregationModuleDef{
		OriginFilePath:    rec.FilePath,
		GeneratedFilePath: s.layout.ModuleFilePath(rec.FileKey),
		ClassName:         s.layout.ModuleClassName(rec.FileKey),
	}
	self := def.Ref().ID()
	imports := newRefSet(self)
	imports.add(CommonModule)

	var diags models.Diagnostics
	for _, cand := range ix.Candidates[rec.FilePath] {
		def.Sources = append(def.Sources, models.SourceSymbol{FileKey: rec.FileKey, Name: cand.Class.Name})
		switch cand.Kind {
		case metadata.DecoratorComponent:
			def.Declarations = append(def.Declarations, cand.Class.Name)
			def.Exports = append(def.Exports, cand.Class.Name)
			def.EntryComponents = append(def.EntryComponents, cand.Class.Name)
			if cand.HasInline {
				if err := templateImports(ix, cand.Template, imports); err != nil {
					diags.Add(errors.Wrap(errors.MetadataShapeErrorCode, "failed to parse template", err).
						WithLocation(errors.SourceLocation{File: rec.FilePath, Symbol: cand.Class.Name}), models.SeverityWarning)
				}
			}
		case metadata.DecoratorDirective, metadata.DecoratorPipe:
			def.Declarations = append(def.Declarations, cand.Class.Name)
			def.Exports = append(def.Exports, cand.Class.Name)
		case metadata.DecoratorInjectable:
			def.Providers = append(def.Providers, cand.Class.Name)
		}
	}

	for _, stmt := range rec.Imports {
		for _, module := range snap.ModuleNames(rec, stmt.Module) {
			for _, name := range stmt.Names {
				if entry, ok := ix.Lookup(module, name); ok {
					imports.add(entry.Owner)
				}
			}
		}
		if stmt.Module == browserModuleName {
			imports.add(CommonModule)
		}
	}

	def.Imports = imports.sorted()
	def.Declarations = models.MergeNames(def.Declarations)
	def.Exports = models.MergeNames(def.Exports)
	def.EntryComponents = models.MergeNames(def.EntryComponents)
	def.Providers = models.MergeNames(def.Providers)
	return def, diags
}

// templateImports adds the owners of every selector and pipe used by a template
func templateImports(ix *index.Index, template string, imports *refSet) error {
	markup, err := selector.ParseMarkup(template)
	if err != nil {
		return err
	}
	for _, entry := range ix.Selectors {
		if entry.Selector.Matches(markup) {
			imports.add(entry.Entry.Owner)
		}
	}
	for _, entry := range ix.Pipes {
		if entry.Pattern.MatchString(template) {
			imports.add(entry.Entry.Owner)
		}
	}
	return nil
}

// refSet collects module references, dropping the owning module itself
type refSet struct {
	self string
	refs map[string]models.ModuleRef
}

func newRefSet(self string) *refSet {
	return &refSet{self: self, refs: make(map[string]models.ModuleRef)}
}

func (s *refSet) add(ref models.ModuleRef) {
	ref = normalize(ref)
	if id := ref.ID(); id != s.self {
		s.refs[id] = ref
	}
}

func (s *refSet) sorted() []models.ModuleRef {
	out := make([]models.ModuleRef, 0, len(s.refs))
	for _, ref := range s.refs {
		out = append(out, ref)
	}
	models.SortModuleRefs(out)
	return out
}

// normalize rewrites BrowserModule, which may only be imported once by the
// application root, to CommonModule
func normalize(ref models.ModuleRef) models.ModuleRef {
	if ref.ClassName == "BrowserModule" && ref.ModuleName == browserModuleName {
		return CommonModule
	}
	return ref
}
