// Package routes mirrors the page directory convention into route modules,
// the flat route list and the lazy page registry.
package routes

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/metadata"
	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/utils"
)

// Result holds the route artifacts of one pass
type Result struct {
	Modules []*models.RouteModuleDef
	List    *models.RouteListDef    // nil when no pages directory is configured
	Lazy    *models.LazyRegistryDef // nil when there are no lazy pages
}

type dirNode struct {
	files map[string]string // base name -> file key
	dirs  map[string]*dirNode
}

func newDirNode() *dirNode {
	return &dirNode{files: make(map[string]string), dirs: make(map[string]*dirNode)}
}

type builder struct {
	layout  models.Layout
	owners  map[string]*models.AggregationModuleDef // file key + "#" + class -> def
	modules []*models.RouteModuleDef
	lazy    []models.LazyEntry
	diags   models.Diagnostics
}

// Build walks the source files below the pages directory. A page file
// "XPage" becomes a route "x"; a sibling directory "x" holds its nested
// routes. Any other directory groups its contents under its own name.
func Build(snap *metadata.Snapshot, layout models.Layout, defs []*models.AggregationModuleDef) (*Result, models.Diagnostics) {
	if layout.PagesDir == "" {
		return &Result{}, nil
	}

	b := &builder{layout: layout, owners: make(map[string]*models.AggregationModuleDef)}
	for _, def := range defs {
		for _, src := range def.Sources {
			b.owners[src.FileKey+"#"+src.Name] = def
		}
	}

	root := newDirNode()
	for _, rec := range snap.Records() {
		if rec.IsLibrary || layout.IsExcluded(rec.FilePath) || !utils.IsWithin(layout.PagesDir, rec.FileKey) {
			continue
		}
		rel, err := filepath.Rel(layout.PagesDir, rec.FileKey)
		if err != nil {
			continue
		}
		segments := strings.Split(filepath.ToSlash(rel), "/")
		node := root
		for _, seg := range segments[:len(segments)-1] {
			next, ok := node.dirs[seg]
			if !ok {
				next = newDirNode()
				node.dirs[seg] = next
			}
			node = next
		}
		node.files[segments[len(segments)-1]] = rec.FileKey
	}

	result := &Result{
		List: &models.RouteListDef{
			FilePath: layout.RoutesFilePath(),
			Children: b.walk(root, nil),
		},
	}

	sort.Slice(b.modules, func(i, j int) bool { return b.modules[i].FilePath < b.modules[j].FilePath })
	result.Modules = b.modules

	if len(b.lazy) > 0 {
		sort.Slice(b.lazy, func(i, j int) bool { return b.lazy[i].Code < b.lazy[j].Code })
		result.Lazy = &models.LazyRegistryDef{FilePath: layout.LazyRegistryFilePath(), Entries: b.lazy}
	}
	return result, b.diags
}

// walk returns the routes of one directory: pages first, then groups.
// segments are the directory names below the pages root.
func (b *builder) walk(dir *dirNode, segments []string) []models.RouteNode {
	var (
		routes   []models.RouteNode
		consumed = make(map[string]bool)
	)

	for _, name := range sortedKeys(dir.files) {
		fileKey := dir.files[name]

		if strings.HasSuffix(name, models.LazyPageSuffix) && len(name) > len(models.LazyPageSuffix) {
			b.addLazy(name, fileKey, segments)
			continue
		}
		if !strings.HasSuffix(name, models.PageSuffix) || len(name) <= len(models.PageSuffix) {
			continue
		}

		path := utils.ToKebabCase(strings.TrimSuffix(name, models.PageSuffix))
		childDir, hasChildren := dir.dirs[path]
		if hasChildren {
			consumed[path] = true
		}

		def, ok := b.owners[fileKey+"#"+name]
		if !ok {
			b.diags.Add(errors.Newf(errors.GenerationErrorCode, "page %s has no aggregation module", name).
				WithLocation(errors.SourceLocation{File: fileKey + ".ts", Symbol: name}).
				WithSuggestion("Decorate the page class with @Component"), models.SeverityWarning)
			continue
		}

		var children []models.RouteNode
		if hasChildren {
			children = b.walk(childDir, appendSegment(segments, path))
		}

		module := &models.RouteModuleDef{
			FilePath:    b.layout.RoutingFilePath(fileKey),
			ClassName:   b.layout.RoutingClassName(fileKey),
			PageClass:   name,
			PageFileKey: fileKey,
			PageModule:  def.Ref(),
			Children:    children,
		}
		b.modules = append(b.modules, module)

		routes = append(routes, models.RouteNode{
			Path:         path,
			LoadChildren: &models.ModuleRef{ClassName: module.ClassName, FilePath: module.FilePath},
		})
	}

	for _, name := range sortedKeys(dir.dirs) {
		if consumed[name] {
			continue
		}
		children := b.walk(dir.dirs[name], appendSegment(segments, name))
		if len(children) == 0 {
			continue
		}
		routes = append(routes, models.RouteNode{Path: name, Children: children})
	}
	return routes
}

func (b *builder) addLazy(name, fileKey string, segments []string) {
	def, ok := b.owners[fileKey+"#"+name]
	if !ok {
		b.diags.Add(errors.Newf(errors.GenerationErrorCode, "lazy page %s has no aggregation module", name).
			WithLocation(errors.SourceLocation{File: fileKey + ".ts", Symbol: name}), models.SeverityWarning)
		return
	}

	parts := make([]string, 0, len(segments)+1)
	for _, seg := range segments {
		parts = append(parts, utils.ToKebabCase(seg))
	}
	parts = append(parts, utils.ToKebabCase(strings.TrimSuffix(name, models.LazyPageSuffix)))

	b.lazy = append(b.lazy, models.LazyEntry{Code: strings.Join(parts, "."), Module: def.Ref()})
}

func appendSegment(segments []string, name string) []string {
	out := make([]string, 0, len(segments)+1)
	out = append(out, segments...)
	return append(out, name)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
