package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/ngmod/internal/models"
	tu "github.com/toyz/ngmod/internal/testutil"
)

type project struct {
	root   string
	config Config
}

func (p project) src(name string) string {
	return filepath.Join(p.root, "src", filepath.FromSlash(name))
}

func (p project) out(name string) string {
	return filepath.Join(p.config.OutputDir, filepath.FromSlash(name))
}

func newProject(t *testing.T) project {
	t.Helper()
	root := t.TempDir()
	tu.WriteArchive(t, root, `
-- node_modules/@acme/ui/package.json --
{"name": "@acme/ui", "version": "1.0.0"}
`)
	tu.WriteFile(t, root, "node_modules/@acme/ui/ui.metadata.json", tu.Module(tu.Object{
		"UiButtonComponent": tu.Class(tu.Component("ui-button", "")),
		"UiModule": tu.Class(tu.Decorator("NgModule", tu.Object{
			"exports": []any{tu.Ref("", "UiButtonComponent")},
		})),
	}))
	tu.WriteFile(t, root, "src/controls/sd-button.metadata.json", tu.Module(tu.Object{
		"SdButtonControl": tu.Class(tu.Component("sd-button", "")),
	}))
	tu.WriteFile(t, root, "src/pages/HomePage.metadata.json", tu.Module(tu.Object{
		"HomePage": tu.Class(tu.Component("app-home", `<sd-button></sd-button>`)),
	}, tu.Import("@acme/ui", "UiButtonComponent")))

	config, err := Config{
		SrcDir:      "src",
		PagesDir:    "src/pages",
		OutputDir:   "src/_modules",
		LibraryDirs: []string{"node_modules"},
	}.Resolve(root)
	require.NoError(t, err)
	return project{root: root, config: config}
}

func newDriver(t *testing.T, p project) *Generator {
	t.Helper()
	g, err := NewGenerator(p.config, nil)
	require.NoError(t, err)
	return g
}

func load(t *testing.T, g *Generator) *PassResult {
	t.Helper()
	results, err := g.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results[0]
}

func TestGenerator_InitialLoad(t *testing.T) {
	p := newProject(t)
	result := load(t, newDriver(t, p))

	require.False(t, result.Aborted)
	require.NoError(t, result.Err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, []string{
		p.out("_routes.ts"),
		p.out("controls/SdButtonModule.ts"),
		p.out("pages/HomePageModule.ts"),
		p.out("pages/HomePageRoutingModule.ts"),
	}, result.Written)

	home, err := os.ReadFile(p.out("pages/HomePageModule.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(home), `import { UiModule } from "@acme/ui";`)
	assert.Contains(t, string(home), `import { SdButtonModule } from "../controls/SdButtonModule";`)
}

func TestGenerator_SecondPassIsIdempotent(t *testing.T) {
	p := newProject(t)
	g := newDriver(t, p)
	load(t, g)

	results, err := g.Notify(context.Background(), ChangeSet{Changed: []string{
		p.src("pages/HomePage.metadata.json"),
		p.src("controls/sd-button.metadata.json"),
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Written)
	assert.Empty(t, results[0].Removed)

	// a fresh process warms its cache from disk and writes nothing either
	again := load(t, newDriver(t, p))
	assert.Empty(t, again.Written)
	assert.Empty(t, again.Removed)
}

func TestGenerator_RemovedFileIsSwept(t *testing.T) {
	p := newProject(t)
	g := newDriver(t, p)
	load(t, g)

	button := p.src("controls/sd-button.metadata.json")
	require.NoError(t, os.Remove(button))
	results, err := g.Notify(context.Background(), ChangeSet{Removed: []string{button}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, []string{p.out("controls/SdButtonModule.ts")}, results[0].Removed)
	assert.Equal(t, []string{p.out("pages/HomePageModule.ts")}, results[0].Written)
	assert.NoDirExists(t, p.out("controls"))

	home, err := os.ReadFile(p.out("pages/HomePageModule.ts"))
	require.NoError(t, err)
	assert.NotContains(t, string(home), "SdButtonModule")
}

func TestGenerator_StaleOutputIsSweptOnLoad(t *testing.T) {
	p := newProject(t)
	stale := tu.WriteFile(t, p.config.OutputDir, "old/OldModule.ts", []byte("export class OldModule {}\n"))

	result := load(t, newDriver(t, p))
	assert.Equal(t, []string{stale}, result.Removed)
	assert.NoFileExists(t, stale)
}

func TestGenerator_DuplicateExportWritesNothing(t *testing.T) {
	p := newProject(t)
	module := tu.Class(tu.Decorator("NgModule", tu.Object{
		"exports": []any{tu.Ref("@acme/ui", "UiButtonComponent")},
	}))
	tu.WriteFile(t, p.root, "node_modules/@acme/extra/extra.metadata.json", tu.Library("@acme/extra", tu.Object{
		"ExtraModule": module,
	}))
	tu.WriteFile(t, p.root, "node_modules/@acme/more/more.metadata.json", tu.Library("@acme/more", tu.Object{
		"MoreModule": module,
	}))

	result := load(t, newDriver(t, p))
	assert.True(t, result.Aborted)
	assert.True(t, result.Diagnostics.HasFatal())
	assert.Empty(t, result.Written)
	assert.NoDirExists(t, p.config.OutputDir)

	genErr := AbortedError(result)
	assert.Equal(t, models.ErrorTypeConflict, genErr.Type)
	assert.Contains(t, genErr.Context["fatal"], "UiButtonComponent")
}

func TestGenerator_UnreadableMetadataIsReported(t *testing.T) {
	p := newProject(t)
	broken := tu.WriteFile(t, p.root, "src/controls/sd-broken.metadata.json", []byte("{not json"))

	result := load(t, newDriver(t, p))
	require.False(t, result.Aborted)
	require.Equal(t, 1, result.Diagnostics.Count(models.SeverityError))
	assert.Equal(t, broken, result.Diagnostics[0].FilePath)
	assert.Contains(t, result.Written, p.out("controls/SdButtonModule.ts"))
}

func TestGenerator_NotifyDuringPassIsPickedUp(t *testing.T) {
	p := newProject(t)
	g := newDriver(t, p)
	load(t, g)

	page := tu.WriteFile(t, p.root, "src/pages/AboutPage.metadata.json", tu.Module(tu.Object{
		"AboutPage": tu.Class(tu.Component("app-about", "")),
	}))
	button := p.src("controls/sd-button.metadata.json")

	nested := false
	var nestedResults []*PassResult
	g.readFile = func(path string) ([]byte, error) {
		if path == button && !nested {
			nested = true
			var err error
			nestedResults, err = g.Notify(context.Background(), ChangeSet{Changed: []string{page}})
			require.NoError(t, err)
		}
		return os.ReadFile(path)
	}

	results, err := g.Notify(context.Background(), ChangeSet{Changed: []string{button}})
	require.NoError(t, err)
	require.True(t, nested)
	assert.Empty(t, nestedResults, "a notification during a pass only queues")
	require.Len(t, results, 2)
	assert.Contains(t, results[1].Written, p.out("pages/AboutPageModule.ts"))
}

func TestGenerator_DrainedLoopReleasesTheDriver(t *testing.T) {
	p := newProject(t)
	g := newDriver(t, p)

	g.running = true
	current, err := g.next(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.False(t, g.running, "an empty batch ends the pass loop atomically")

	results, err := g.Notify(context.Background(), ChangeSet{Changed: []string{p.src("controls/sd-button.metadata.json")}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Written, p.out("controls/SdButtonModule.ts"))
}

func TestGenerator_CanceledLoopReleasesTheDriver(t *testing.T) {
	g := newDriver(t, newProject(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := g.Notify(ctx, ChangeSet{Changed: []string{"x.metadata.json"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.False(t, g.running)
	assert.False(t, g.pending.isEmpty(), "a canceled loop keeps the queued change-set")
}

func TestBatch_LatestReportWins(t *testing.T) {
	b := newBatch()
	b.merge(ChangeSet{Changed: []string{"a", "b"}})
	b.merge(ChangeSet{Removed: []string{"a"}})
	b.merge(ChangeSet{Changed: []string{"c"}, Removed: []string{"d"}})
	b.merge(ChangeSet{Changed: []string{"d"}})

	assert.Equal(t, []string{"b", "c", "d"}, sortedSet(b.changed))
	assert.Equal(t, []string{"a"}, sortedSet(b.removed))
	assert.False(t, b.isEmpty())
	assert.True(t, newBatch().isEmpty())
}
