// Package generator runs the pure part of a generation pass: index build,
// module synthesis, route synthesis, cycle resolution and rendering.
package generator

import (
	"log/slog"
	"sort"

	"github.com/toyz/ngmod/internal/cycles"
	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/index"
	"github.com/toyz/ngmod/internal/metadata"
	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/routes"
	"github.com/toyz/ngmod/internal/synth"
	"github.com/toyz/ngmod/internal/templates"
	"github.com/toyz/ngmod/internal/utils"
)

// Plan is the outcome of one pass over a snapshot
type Plan struct {
	Artifacts []models.Artifact // sorted by path
	// Retained are output paths of files that failed this pass; their
	// previous output must survive the sweep
	Retained    []string
	Diagnostics models.Diagnostics
	Merges      []cycles.Merge
	Fingerprint uint64
	// Aborted is set when a fatal diagnostic was raised. Artifacts is empty.
	Aborted bool
}

// Generator plans generation passes. It keeps the definition cache between
// passes and is not safe for concurrent use.
type Generator struct {
	layout models.Layout
	synth  *synth.Synthesizer
	logger *slog.Logger
}

// NewGenerator creates a generator for a layout
func NewGenerator(layout models.Layout, cacheSize int, logger *slog.Logger) (*Generator, error) {
	if layout.OutputDir == "" {
		return nil, errors.New(errors.ConfigurationErrorCode, "output directory is required")
	}
	if cacheSize <= 0 {
		cacheSize = synth.DefaultCacheSize
	}
	s, err := synth.New(layout, cacheSize)
	if err != nil {
		return nil, errors.WrapConfigurationError("definition cache", "create", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{layout: layout, synth: s, logger: logger}, nil
}

// Layout returns the path layout of generated files
func (g *Generator) Layout() models.Layout {
	return g.layout
}

// Plan computes every artifact the snapshot produces
func (g *Generator) Plan(snap *metadata.Snapshot) *Plan {
	plan := &Plan{}

	ix, diags := index.Build(snap, g.layout)
	plan.Diagnostics = append(plan.Diagnostics, diags...)
	plan.Fingerprint = ix.Fingerprint
	plan.Retained = g.retained(snap, ix)
	if plan.Diagnostics.HasFatal() {
		return g.abort(plan, "index")
	}

	defs, diags := g.synth.Synthesize(snap, ix)
	plan.Diagnostics = append(plan.Diagnostics, diags...)

	rt, diags := routes.Build(snap, g.layout, defs)
	plan.Diagnostics = append(plan.Diagnostics, diags...)

	resolved := cycles.Resolve(defs, rt)
	plan.Merges = resolved.Merges
	for _, merge := range resolved.Merges {
		g.logger.Debug("merged cyclic modules",
			"representative", merge.Representative.ClassName,
			"members", len(merge.Members))
	}

	artifacts, diags := render(resolved)
	plan.Diagnostics = append(plan.Diagnostics, diags...)
	if plan.Diagnostics.HasFatal() {
		return g.abort(plan, "render")
	}

	plan.Artifacts = artifacts
	g.logger.Debug("pass planned",
		"records", len(snap.Records()),
		"modules", len(resolved.Defs),
		"artifacts", len(artifacts),
		"diagnostics", len(plan.Diagnostics),
		"cached_defs", g.synth.CacheLen())
	return plan
}

func (g *Generator) abort(plan *Plan, phase string) *Plan {
	plan.Aborted = true
	plan.Artifacts = nil
	g.logger.Debug("pass aborted", "phase", phase, "diagnostics", len(plan.Diagnostics))
	return plan
}

// retained lists the outputs a failed source file may have produced before
func (g *Generator) retained(snap *metadata.Snapshot, ix *index.Index) []string {
	var paths []string
	for file := range ix.Failed {
		rec, ok := snap.Record(file)
		if !ok {
			continue
		}
		paths = append(paths, g.layout.ModuleFilePath(rec.FileKey))
		if g.layout.PagesDir != "" && utils.IsWithin(g.layout.PagesDir, rec.FileKey) {
			paths = append(paths, g.layout.RoutingFilePath(rec.FileKey))
		}
	}
	sort.Strings(paths)
	return paths
}

// render renders every surviving definition. Two artifacts claiming the same
// path is an invariant violation.
func render(resolved *cycles.Result) ([]models.Artifact, models.Diagnostics) {
	var (
		artifacts []models.Artifact
		diags     models.Diagnostics
		owners    = make(map[string]string)
	)
	add := func(artifact models.Artifact, err error, owner string) {
		if err != nil {
			diags.Add(errors.NewInvariantError("render %s: %v", owner, err).
				WithLocation(errors.SourceLocation{File: owner}), models.SeverityFatal)
			return
		}
		if prev, ok := owners[artifact.Path]; ok {
			diags.Add(errors.NewInvariantError("%s and %s render to the same file", prev, owner).
				WithLocation(errors.SourceLocation{File: artifact.Path}), models.SeverityFatal)
			return
		}
		owners[artifact.Path] = owner
		artifacts = append(artifacts, artifact)
	}

	for _, def := range resolved.Defs {
		if def.IsEmpty() {
			continue
		}
		artifact, err := templates.RenderAggregationModule(def)
		add(artifact, err, def.OriginFilePath)
	}

	if rt := resolved.Routes; rt != nil {
		for _, def := range rt.Modules {
			artifact, err := templates.RenderRoutingModule(def)
			add(artifact, err, def.PageFileKey)
		}
		if rt.List != nil {
			artifact, err := templates.RenderRouteList(rt.List)
			add(artifact, err, rt.List.FilePath)
		}
		if rt.Lazy != nil {
			artifact, err := templates.RenderLazyRegistry(rt.Lazy)
			add(artifact, err, rt.Lazy.FilePath)
		}
	}

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Path < artifacts[j].Path })
	return artifacts, diags
}
