// Package cycles merges aggregation modules that import each other in a
// cycle into one representative module.
package cycles

import (
	"sort"

	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/routes"
)

// Merge records that a set of modules was folded into a representative
type Merge struct {
	Representative models.ModuleRef
	Members        []models.ModuleRef // merged away, excluding the representative
}

// Result is the acyclic module set and the route artifacts pointing at it
type Result struct {
	Defs   []*models.AggregationModuleDef
	Routes *routes.Result
	Merges []Merge
}

// Resolve detects import cycles between generated modules and merges every
// group of overlapping cycles into one module, repeating until no cycle is
// left. Input definitions and route results are never modified.
func Resolve(defs []*models.AggregationModuleDef, rt *routes.Result) *Result {
	current := append([]*models.AggregationModuleDef(nil), defs...)
	alias := make(map[string]models.ModuleRef) // merged module path -> representative
	var merges []Merge

	for {
		groups := findGroups(current)
		if len(groups) == 0 {
			break
		}
		var sweep map[string]models.ModuleRef
		current, sweep, merges = mergeGroups(current, groups, merges)
		for path, rep := range sweep {
			alias[path] = rep
		}
	}

	return &Result{
		Defs:   current,
		Routes: rewriteRoutes(rt, alias),
		Merges: merges,
	}
}

// findGroups runs a depth-first search with an explicit path stack from
// every module and returns the unions of overlapping cycles, as sets of
// generated paths
func findGroups(defs []*models.AggregationModuleDef) [][]string {
	byPath := make(map[string]*models.AggregationModuleDef, len(defs))
	for _, def := range defs {
		byPath[def.GeneratedFilePath] = def
	}
	edges := func(def *models.AggregationModuleDef) []string {
		var out []string
		for _, ref := range def.Imports {
			if _, ok := byPath[ref.FilePath]; ok && ref.IsLocal() && ref.FilePath != def.GeneratedFilePath {
				out = append(out, ref.FilePath)
			}
		}
		sort.Strings(out)
		return out
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(defs))
	var (
		stack  []string
		cycles [][]string
		visit  func(path string)
	)
	visit = func(path string) {
		state[path] = onStack
		stack = append(stack, path)
		for _, next := range edges(byPath[path]) {
			switch state[next] {
			case unvisited:
				visit(next)
			case onStack:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycles = append(cycles, append([]string(nil), stack[i:]...))
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[path] = done
	}

	paths := make([]string, 0, len(byPath))
	for path := range byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if state[path] == unvisited {
			visit(path)
		}
	}
	if len(cycles) == 0 {
		return nil
	}

	uf := newUnionFind()
	for _, cycle := range cycles {
		for _, path := range cycle[1:] {
			uf.union(cycle[0], path)
		}
	}
	return uf.groups()
}

// mergeGroups builds a new module set where each group is replaced by its
// representative
func mergeGroups(defs []*models.AggregationModuleDef, groups [][]string, merges []Merge) ([]*models.AggregationModuleDef, map[string]models.ModuleRef, []Merge) {
	byPath := make(map[string]*models.AggregationModuleDef, len(defs))
	for _, def := range defs {
		byPath[def.GeneratedFilePath] = def
	}

	alias := make(map[string]models.ModuleRef)
	merged := make(map[string]*models.AggregationModuleDef)
	for _, group := range groups {
		members := make([]*models.AggregationModuleDef, 0, len(group))
		for _, path := range group {
			members = append(members, byPath[path])
		}
		rep := representative(members)

		out := &models.AggregationModuleDef{
			OriginFilePath:    rep.OriginFilePath,
			GeneratedFilePath: rep.GeneratedFilePath,
			ClassName:         rep.ClassName,
		}
		merge := Merge{Representative: rep.Ref()}
		for _, m := range members {
			out.Sources = append(out.Sources, m.Sources...)
			out.Imports = append(out.Imports, m.Imports...)
			out.Declarations = append(out.Declarations, m.Declarations...)
			out.Exports = append(out.Exports, m.Exports...)
			out.EntryComponents = append(out.EntryComponents, m.EntryComponents...)
			out.Providers = append(out.Providers, m.Providers...)
			alias[m.GeneratedFilePath] = rep.Ref()
			if m != rep {
				merge.Members = append(merge.Members, m.Ref())
			}
		}
		out.Sources = mergeSources(out.Sources)
		out.Declarations = models.MergeNames(out.Declarations)
		out.Exports = models.MergeNames(out.Exports)
		out.EntryComponents = models.MergeNames(out.EntryComponents)
		out.Providers = models.MergeNames(out.Providers)

		merged[rep.GeneratedFilePath] = out
		merges = append(merges, merge)
	}

	next := make([]*models.AggregationModuleDef, 0, len(defs))
	for _, def := range defs {
		if out, ok := merged[def.GeneratedFilePath]; ok {
			out.Imports = rewriteImports(out.Imports, alias, out.Ref())
			next = append(next, out)
			continue
		}
		if _, gone := alias[def.GeneratedFilePath]; gone {
			continue
		}
		copied := *def
		copied.Imports = rewriteImports(def.Imports, alias, def.Ref())
		next = append(next, &copied)
	}
	return next, alias, merges
}

// representative prefers the richest import table, then the longest class
// name, then the lexically smallest class name
func representative(members []*models.AggregationModuleDef) *models.AggregationModuleDef {
	best := members[0]
	bestSize := best.ImportTableSize()
	for _, m := range members[1:] {
		size := m.ImportTableSize()
		switch {
		case size > bestSize:
		case size == bestSize && len(m.ClassName) > len(best.ClassName):
		case size == bestSize && len(m.ClassName) == len(best.ClassName) && m.ClassName < best.ClassName:
		default:
			continue
		}
		best, bestSize = m, size
	}
	return best
}

// rewriteImports points imports of merged modules at their representative,
// drops self references and deduplicates
func rewriteImports(imports []models.ModuleRef, alias map[string]models.ModuleRef, self models.ModuleRef) []models.ModuleRef {
	seen := make(map[string]bool)
	out := make([]models.ModuleRef, 0, len(imports))
	for _, ref := range imports {
		if ref.IsLocal() {
			if rep, ok := alias[ref.FilePath]; ok {
				ref = rep
			}
		}
		id := ref.ID()
		if id == self.ID() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, ref)
	}
	models.SortModuleRefs(out)
	return out
}

func mergeSources(sources []models.SourceSymbol) []models.SourceSymbol {
	seen := make(map[models.SourceSymbol]bool)
	out := make([]models.SourceSymbol, 0, len(sources))
	for _, s := range sources {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FileKey != out[j].FileKey {
			return out[i].FileKey < out[j].FileKey
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// rewriteRoutes copies the route artifacts, pointing page modules and lazy
// entries at representatives
func rewriteRoutes(rt *routes.Result, alias map[string]models.ModuleRef) *routes.Result {
	if rt == nil {
		return nil
	}
	resolve := func(ref models.ModuleRef) models.ModuleRef {
		for ref.IsLocal() {
			rep, ok := alias[ref.FilePath]
			if !ok || rep.FilePath == ref.FilePath {
				break
			}
			ref = rep
		}
		return ref
	}

	out := &routes.Result{List: rt.List}
	for _, m := range rt.Modules {
		copied := *m
		copied.PageModule = resolve(m.PageModule)
		out.Modules = append(out.Modules, &copied)
	}
	if rt.Lazy != nil {
		lazy := &models.LazyRegistryDef{FilePath: rt.Lazy.FilePath}
		for _, e := range rt.Lazy.Entries {
			lazy.Entries = append(lazy.Entries, models.LazyEntry{Code: e.Code, Module: resolve(e.Module)})
		}
		out.Lazy = lazy
	}
	return out
}

type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
	}
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}

// groups returns the sets, each sorted, ordered by their smallest member
func (u *unionFind) groups() [][]string {
	sets := make(map[string][]string)
	for x := range u.parent {
		root := u.find(x)
		sets[root] = append(sets[root], x)
	}
	out := make([][]string, 0, len(sets))
	for _, set := range sets {
		sort.Strings(set)
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
