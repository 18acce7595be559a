package models

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/toyz/ngmod/internal/utils"
)

// Layout maps source files to generated artifact paths
type Layout struct {
	SrcDir    string   // root of the application sources; files outside are libraries
	PagesDir  string   // root of the page directory convention
	OutputDir string   // generated output root; nothing is written outside it
	Excludes  []string // doublestar globs relative to SrcDir
}

const (
	PageSuffix      = "Page"
	LazyPageSuffix  = "LazyPage"
	RoutesFileName  = "_routes.ts"
	LazyFileName    = "_lazy-pages.ts"
	moduleSuffix    = "Module"
	routingSuffix   = "RoutingModule"
	sourceExtension = ".ts"
)

// ModuleClassName returns the class name of the aggregation module generated for a file
func (l Layout) ModuleClassName(fileKey string) string {
	return utils.ToPascalCase(filepath.Base(fileKey)) + moduleSuffix
}

// ModuleFilePath returns the output path of the aggregation module generated for a file
func (l Layout) ModuleFilePath(fileKey string) string {
	return filepath.Join(l.outputDirFor(fileKey), l.ModuleClassName(fileKey)+sourceExtension)
}

// RoutingClassName returns the class name of the route module generated for a page file
func (l Layout) RoutingClassName(pageFileKey string) string {
	return utils.ToPascalCase(filepath.Base(pageFileKey)) + routingSuffix
}

// RoutingFilePath returns the output path of the route module generated for a page file
func (l Layout) RoutingFilePath(pageFileKey string) string {
	return filepath.Join(l.outputDirFor(pageFileKey), l.RoutingClassName(pageFileKey)+sourceExtension)
}

// RoutesFilePath returns the output path of the flat route list
func (l Layout) RoutesFilePath() string {
	return filepath.Join(l.OutputDir, RoutesFileName)
}

// LazyRegistryFilePath returns the output path of the lazy component registry
func (l Layout) LazyRegistryFilePath() string {
	return filepath.Join(l.OutputDir, LazyFileName)
}

// IsExcluded reports whether a source file matches one of the exclude globs
func (l Layout) IsExcluded(filePath string) bool {
	rel, err := filepath.Rel(l.SrcDir, filePath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range l.Excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (l Layout) outputDirFor(fileKey string) string {
	rel, err := filepath.Rel(l.SrcDir, filepath.Dir(fileKey))
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = "."
	}
	return filepath.Join(l.OutputDir, rel)
}
