// Package index builds the export, selector and pipe indices that resolve a
// used symbol, template tag or pipe to the aggregation module that exports it.
package index

import (
	"regexp"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/metadata"
	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/selector"
)

// Candidate is an eligible class of a source file
type Candidate struct {
	Class     *models.ClassNode
	Kind      metadata.DecoratorKind
	Selector  string
	PipeName  string
	Template  string
	HasInline bool // Template holds a literal template
}

// SelectorEntry is a parsed template selector with its owning module
type SelectorEntry struct {
	Selector *selector.Selector
	Entry    models.ExportEntry
}

// PipeEntry is a pipe name pattern with its owning module
type PipeEntry struct {
	Pattern *regexp.Regexp
	Entry   models.ExportEntry
}

// Index is the result of one rebuild over the live records
type Index struct {
	Exports    map[models.ExportKey]models.ExportEntry
	Selectors  []SelectorEntry
	Pipes      []PipeEntry
	Candidates map[string][]Candidate // source file path -> eligible classes, by class name
	Failed     map[string]bool        // source files whose classes could not be resolved
	// Fingerprint changes whenever any export, selector or pipe changes
	Fingerprint uint64
}

// Lookup returns the export entry for a symbol of a module
func (ix *Index) Lookup(module, symbol string) (models.ExportEntry, bool) {
	entry, ok := ix.Exports[models.ExportKey{Module: module, Symbol: symbol}]
	return entry, ok
}

// CandidateFiles returns the source files that need an aggregation module, sorted
func (ix *Index) CandidateFiles() []string {
	files := make([]string, 0, len(ix.Candidates))
	for file := range ix.Candidates {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

type builder struct {
	snap   *metadata.Snapshot
	layout models.Layout
	ix     *Index
	diags  models.Diagnostics
	dupes  map[models.ExportKey]bool
}

// Build rebuilds the indices from every live record. A symbol claimed by two
// different owning files yields a fatal diagnostic.
func Build(snap *metadata.Snapshot, layout models.Layout) (*Index, models.Diagnostics) {
	b := &builder{
		snap:   snap,
		layout: layout,
		ix: &Index{
			Exports:    make(map[models.ExportKey]models.ExportEntry),
			Candidates: make(map[string][]Candidate),
			Failed:     make(map[string]bool),
		},
		dupes: make(map[models.ExportKey]bool),
	}

	for _, rec := range snap.Records() {
		for _, name := range rec.SymbolNames() {
			cls, ok := rec.Symbols[name].(*models.ClassNode)
			if !ok {
				continue
			}
			if rec.IsLibrary || layout.IsExcluded(rec.FilePath) {
				b.addLibraryClass(rec, cls)
			} else {
				b.addSourceClass(rec, cls)
			}
		}
	}

	b.finish()
	return b.ix, b.diags
}

func (b *builder) addSourceClass(rec *models.ModuleRecord, cls *models.ClassNode) {
	c, err := b.snap.Classify(rec, cls)
	if err != nil {
		b.fail(rec, err)
		return
	}
	if c.IsNgModule {
		b.addNgModule(rec, cls, ngModuleRef(rec, cls))
		return
	}
	if !c.Eligible {
		return
	}

	cand := Candidate{Class: cls, Kind: c.Primary.Kind}
	if err := b.describe(&cand, c.Primary); err != nil {
		b.fail(rec, err)
		return
	}
	b.ix.Candidates[rec.FilePath] = append(b.ix.Candidates[rec.FilePath], cand)

	owner := models.ModuleRef{
		ClassName: b.layout.ModuleClassName(rec.FileKey),
		FilePath:  b.layout.ModuleFilePath(rec.FileKey),
	}
	b.claim(models.ExportKey{Module: rec.ModuleName, Symbol: cls.Name}, models.ExportEntry{
		Owner:     owner,
		OwnerFile: rec.FilePath,
		Selector:  cand.Selector,
		PipeName:  cand.PipeName,
	})
}

func (b *builder) addLibraryClass(rec *models.ModuleRecord, cls *models.ClassNode) {
	decorators, err := b.snap.Decorators(rec, cls)
	if err != nil {
		b.report(rec, err)
		return
	}
	for _, dec := range decorators {
		if dec.Kind == metadata.DecoratorNgModule {
			b.addNgModule(rec, cls, ngModuleRef(rec, cls))
			return
		}
	}
}

// describe fills the selector, pipe name and template of a candidate
func (b *builder) describe(cand *Candidate, dec metadata.Decorator) error {
	var err error
	switch dec.Kind {
	case metadata.DecoratorComponent:
		if cand.Selector, _, err = b.snap.StringOption(dec, "selector"); err != nil {
			return err
		}
		if cand.Template, cand.HasInline, err = b.snap.StringOption(dec, "template"); err != nil {
			return err
		}
	case metadata.DecoratorDirective:
		if cand.Selector, _, err = b.snap.StringOption(dec, "selector"); err != nil {
			return err
		}
	case metadata.DecoratorPipe:
		if cand.PipeName, _, err = b.snap.StringOption(dec, "name"); err != nil {
			return err
		}
	}
	return nil
}

// addNgModule records the module itself and every class it exports or provides
func (b *builder) addNgModule(rec *models.ModuleRecord, cls *models.ClassNode, owner models.ModuleRef) {
	b.claim(models.ExportKey{Module: rec.ModuleName, Symbol: cls.Name}, models.ExportEntry{Owner: owner, OwnerFile: rec.FilePath})

	decorators, err := b.snap.Decorators(rec, cls)
	if err != nil {
		b.report(rec, err)
		return
	}

	var exported []resolvedClass
	for _, dec := range decorators {
		if dec.Kind != metadata.DecoratorNgModule || dec.Options == nil {
			continue
		}
		if node, ok := dec.Options.Entries["exports"]; ok {
			exported = append(exported, b.classes(dec.Record, node, false)...)
		}
		if node, ok := dec.Options.Entries["providers"]; ok {
			exported = append(exported, b.classes(dec.Record, node, true)...)
		}
	}
	for _, name := range models.SortedKeys(cls.Statics) {
		fn, ok := cls.Statics[name].(*models.FunctionNode)
		if !ok {
			continue
		}
		if providers := models.Entry(fn.Value, "providers"); providers != nil {
			exported = append(exported, b.classes(rec, providers, true)...)
		}
	}

	for _, rc := range exported {
		entry := models.ExportEntry{Owner: owner, OwnerFile: rec.FilePath}
		decs, err := b.snap.Decorators(rc.rec, rc.cls)
		if err != nil {
			b.report(rec, err)
			continue
		}
		reexportedModule := false
		for _, dec := range decs {
			switch dec.Kind {
			case metadata.DecoratorNgModule:
				reexportedModule = true
			case metadata.DecoratorComponent, metadata.DecoratorDirective:
				if sel, ok, err := b.snap.StringOption(dec, "selector"); err == nil && ok {
					entry.Selector = sel
				}
			case metadata.DecoratorPipe:
				if name, ok, err := b.snap.StringOption(dec, "name"); err == nil && ok {
					entry.PipeName = name
				}
			}
		}
		// a re-exported module keeps its own entry
		if reexportedModule {
			continue
		}
		b.claim(models.ExportKey{Module: rc.rec.ModuleName, Symbol: rc.cls.Name}, entry)
	}
}

// ngModuleRef points at a hand-written NgModule: by module name for libraries,
// by path for in-tree files
func ngModuleRef(rec *models.ModuleRecord, cls *models.ClassNode) models.ModuleRef {
	if rec.IsLibrary {
		return models.ModuleRef{ClassName: cls.Name, ModuleName: rec.ModuleName}
	}
	return models.ModuleRef{ClassName: cls.Name, FilePath: rec.FileKey + ".ts"}
}

type resolvedClass struct {
	rec *models.ModuleRecord
	cls *models.ClassNode
}

// classes flattens an exports or providers list into the classes it names.
// Provider lists may nest arrays, {provide: X} objects and function values.
func (b *builder) classes(rec *models.ModuleRecord, node models.Node, providers bool) []resolvedClass {
	resolved, at, err := b.snap.Resolve(rec, node)
	if err != nil {
		b.report(rec, err)
		return nil
	}

	switch n := resolved.(type) {
	case *models.ClassNode:
		return []resolvedClass{{rec: at, cls: n}}
	case *models.ArrayNode:
		var out []resolvedClass
		for _, item := range n.Items {
			out = append(out, b.classes(at, item, providers)...)
		}
		return out
	case *models.ObjectNode:
		if provide, ok := n.Entries["provide"]; ok && providers {
			return b.classes(at, provide, providers)
		}
	case *models.FunctionNode:
		if providers && n.Value != nil {
			return b.classes(at, n.Value, providers)
		}
	}
	return nil
}

func (b *builder) claim(key models.ExportKey, entry models.ExportEntry) {
	existing, ok := b.ix.Exports[key]
	if !ok {
		b.ix.Exports[key] = entry
		return
	}
	if existing.OwnerFile == entry.OwnerFile || b.dupes[key] {
		return
	}
	b.dupes[key] = true
	b.diags.Add(errors.NewDuplicateExportError(key.Module, key.Symbol, existing.OwnerFile, entry.OwnerFile), models.SeverityFatal)
}

func (b *builder) fail(rec *models.ModuleRecord, err error) {
	b.ix.Failed[rec.FilePath] = true
	delete(b.ix.Candidates, rec.FilePath)
	b.diags.Add(asNgmodError(err, rec.FilePath), models.SeverityError)
}

// report records a non-fatal NgModule failure, graded by where the module lives
func (b *builder) report(rec *models.ModuleRecord, err error) {
	severity := models.SeverityError
	if rec.IsLibrary {
		severity = models.SeverityWarning
	}
	b.diags.Add(asNgmodError(err, rec.FilePath), severity)
}

// finish drops candidates of failed files, builds the selector and pipe
// lists and computes the fingerprint
func (b *builder) finish() {
	for file := range b.ix.Failed {
		delete(b.ix.Candidates, file)
	}
	for file, cands := range b.ix.Candidates {
		sort.Slice(cands, func(i, j int) bool { return cands[i].Class.Name < cands[j].Class.Name })
		b.ix.Candidates[file] = cands
	}

	keys := make([]models.ExportKey, 0, len(b.ix.Exports))
	for key := range b.ix.Exports {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Module != keys[j].Module {
			return keys[i].Module < keys[j].Module
		}
		return keys[i].Symbol < keys[j].Symbol
	})

	h := xxh3.New()
	for _, key := range keys {
		entry := b.ix.Exports[key]
		_, _ = h.WriteString(strings.Join([]string{key.Module, key.Symbol, entry.Owner.ID(), entry.Selector, entry.PipeName}, "\x00"))
		_, _ = h.WriteString("\n")

		if entry.Selector != "" {
			sel, err := selector.Parse(entry.Selector)
			if err != nil {
				b.diags.Add(errors.Wrap(errors.MetadataShapeErrorCode, "invalid template selector", err).
					WithLocation(errors.SourceLocation{File: entry.OwnerFile, Symbol: key.Symbol}), models.SeverityWarning)
			} else {
				b.ix.Selectors = append(b.ix.Selectors, SelectorEntry{Selector: sel, Entry: entry})
			}
		}
		if entry.PipeName != "" {
			b.ix.Pipes = append(b.ix.Pipes, PipeEntry{Pattern: selector.PipeMatcher(entry.PipeName), Entry: entry})
		}
	}
	b.ix.Fingerprint = h.Sum64()
}

func asNgmodError(err error, file string) errors.NgmodError {
	if ne, ok := err.(errors.NgmodError); ok {
		return ne
	}
	return errors.Wrap(errors.UnknownErrorCode, "unexpected failure", err).
		WithLocation(errors.SourceLocation{File: file})
}
