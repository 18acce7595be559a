// Package templates renders aggregation modules, route modules, the route
// list and the lazy page registry as TypeScript source.
package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/models"
)

const (
	frameworkModule = "@angular/core"
	routerModule    = "@angular/router"
)

// ModuleData is the template data of an aggregation module
type ModuleData struct {
	ImportLines     string
	ClassName       string
	Modules         []string
	Declarations    []string
	Exports         []string
	EntryComponents []string
	Providers       []string
}

// RoutingData is the template data of a route module
type RoutingData struct {
	ImportLines string
	FilePath    string
	ClassName   string
	PageClass   string
	PageModule  string
	Children    []models.RouteNode
}

// RouteListData is the template data of the flat route list
type RouteListData struct {
	FilePath string
	Children []models.RouteNode
}

// LazyData is the template data of the lazy page registry
type LazyData struct {
	FilePath string
	Entries  []models.LazyEntry
}

// RenderAggregationModule renders a generated aggregation module
func RenderAggregationModule(def *models.AggregationModuleDef) (models.Artifact, error) {
	im := NewImportManager(def.GeneratedFilePath)
	im.AddImport(frameworkModule, "NgModule")
	for _, src := range def.Sources {
		im.AddSource(src.FileKey, src.Name)
	}
	for _, ref := range def.Imports {
		im.AddModule(ref)
	}

	data := ModuleData{
		ImportLines:     im.GenerateImports(),
		ClassName:       def.ClassName,
		Declarations:    def.Declarations,
		Exports:         def.Exports,
		EntryComponents: def.EntryComponents,
		Providers:       def.Providers,
	}
	for _, ref := range def.Imports {
		data.Modules = append(data.Modules, ref.ClassName)
	}

	return render(def.GeneratedFilePath, "aggregation-module", data)
}

// RenderRoutingModule renders the route module of a page
func RenderRoutingModule(def *models.RouteModuleDef) (models.Artifact, error) {
	var lines strings.Builder
	lines.WriteString(importLine("NgModule", frameworkModule))
	lines.WriteString(importLine("RouterModule", routerModule))
	lines.WriteString(importLine(def.PageModule.ClassName, models.RequireKeyFor(def.FilePath, def.PageModule)))
	lines.WriteString(importLine(def.PageClass, models.RelativeRequireKey(def.FilePath, def.PageFileKey)))

	data := RoutingData{
		ImportLines: lines.String(),
		FilePath:    def.FilePath,
		ClassName:   def.ClassName,
		PageClass:   def.PageClass,
		PageModule:  def.PageModule.ClassName,
		Children:    def.Children,
	}
	return render(def.FilePath, "routing-module", data)
}

// RenderRouteList renders the flat route list at the output root
func RenderRouteList(def *models.RouteListDef) (models.Artifact, error) {
	return render(def.FilePath, "route-list", RouteListData{FilePath: def.FilePath, Children: def.Children})
}

// RenderLazyRegistry renders the lazy page registry
func RenderLazyRegistry(def *models.LazyRegistryDef) (models.Artifact, error) {
	return render(def.FilePath, "lazy-registry", LazyData{FilePath: def.FilePath, Entries: def.Entries})
}

func render(path, name string, data interface{}) (models.Artifact, error) {
	content, err := executeTemplate(name, DefaultTemplateRegistry.MustGet(name), data)
	if err != nil {
		return models.Artifact{}, errors.WrapGenerateError(path, err)
	}
	return models.Artifact{Path: path, Content: content}, nil
}

// executeTemplate executes a template with the given data
func executeTemplate(name, templateStr string, data interface{}) (string, error) {
	funcMap := template.FuncMap{
		"list":   renderList,
		"routes": renderRoutes,
		"lazy":   renderLazy,
	}

	tmpl, err := template.New(name).Funcs(funcMap).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func importLine(name, requireKey string) string {
	return fmt.Sprintf("import { %s } from %q;\n", name, requireKey)
}

// renderList renders "[]" or one entry per line at the declaration block's indent
func renderList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	return "[\n    " + strings.Join(items, ",\n    ") + "\n  ]"
}

// renderRoutes renders a route array whose opening line is indented by indent spaces
func renderRoutes(fromFile string, nodes []models.RouteNode, indent int) string {
	if len(nodes) == 0 {
		return "[]"
	}
	pad := strings.Repeat(" ", indent)
	items := make([]string, 0, len(nodes))
	for _, node := range nodes {
		var b strings.Builder
		b.WriteString(pad + "  {\n")
		b.WriteString(fmt.Sprintf("%s    path: %q,\n", pad, node.Path))
		if node.IsGroup() {
			b.WriteString(fmt.Sprintf("%s    children: %s\n", pad, renderRoutes(fromFile, node.Children, indent+4)))
		} else {
			b.WriteString(fmt.Sprintf("%s    loadChildren: %s\n", pad, loadExpression(fromFile, *node.LoadChildren)))
		}
		b.WriteString(pad + "  }")
		items = append(items, b.String())
	}
	return "[\n" + strings.Join(items, ",\n") + "\n" + pad + "]"
}

// renderLazy renders the registry object literal
func renderLazy(fromFile string, entries []models.LazyEntry) string {
	if len(entries) == 0 {
		return "{}"
	}
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, fmt.Sprintf("  %q: %s", e.Code, loadExpression(fromFile, e.Module)))
	}
	return "{\n" + strings.Join(items, ",\n") + "\n}"
}

func loadExpression(fromFile string, ref models.ModuleRef) string {
	return fmt.Sprintf("async () => await import(%q).then((m) => m.%s)", models.RequireKeyFor(fromFile, ref), ref.ClassName)
}
