package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/ngmod/internal/index"
	"github.com/toyz/ngmod/internal/metadata"
	"github.com/toyz/ngmod/internal/models"
	tu "github.com/toyz/ngmod/internal/testutil"
)

var layout = models.Layout{
	SrcDir:    "/work/src",
	PagesDir:  "/work/src/pages",
	OutputDir: "/work/src/_modules",
}

type fixture struct {
	path string
	raw  []byte
}

func fixtures() []fixture {
	return []fixture{
		{"/work/src/controls/sd-button.metadata.json", tu.Module(tu.Object{
			"SdButtonControl": tu.Class(tu.Component("sd-button", "<button><ng-content></ng-content></button>")),
		})},
		{"/work/src/pipes/sd-date.metadata.json", tu.Module(tu.Object{
			"SdDatePipe": tu.Class(tu.Decorator("Pipe", tu.Object{"name": "sdDate"})),
		})},
		{"/work/src/providers/sd-toast.metadata.json", tu.Module(tu.Object{
			"SdToastProvider": tu.Class(tu.Decorator("Injectable", nil)),
		})},
		{"/work/node_modules/@acme/ui/ui.metadata.json", tu.Library("@acme/ui", tu.Object{
			"UiButtonComponent": tu.Class(tu.Component("ui-button", "")),
			"UiModule": tu.Class(tu.Decorator("NgModule", tu.Object{
				"exports": []any{tu.Ref("", "UiButtonComponent")},
			})),
		})},
		{"/work/src/pages/HomePage.metadata.json", tu.Module(tu.Object{
			"HomePage":     tu.Class(tu.Component("app-home", `<sd-button>{{ today | sdDate }}</sd-button>`)),
			"HomeHelper":   tu.Class(tu.Component("app-home-helper", "")),
			"HomeProvider": tu.Class(tu.Decorator("Injectable", tu.Object{"providedIn": "root"})),
		},
			tu.Import("@angular/core", "Component"),
			tu.Import("@angular/platform-browser", "BrowserModule"),
			tu.Import("../providers/sd-toast", "SdToastProvider"),
			tu.Import("@acme/ui", "UiButtonComponent"),
		)},
	}
}

func synthesize(t *testing.T, syn *Synthesizer, files []fixture) []*models.AggregationModuleDef {
	t.Helper()
	reg := metadata.NewRegistry(layout.SrcDir, nil)
	for _, f := range files {
		_, err := reg.Register(f.path, f.raw)
		require.NoError(t, err)
	}
	snap := reg.Snapshot()
	ix, diags := index.Build(snap, layout)
	require.Empty(t, diags)

	defs, diags := syn.Synthesize(snap, ix)
	require.Empty(t, diags)
	return defs
}

func findDef(defs []*models.AggregationModuleDef, className string) *models.AggregationModuleDef {
	for _, def := range defs {
		if def.ClassName == className {
			return def
		}
	}
	return nil
}

func TestSynthesize_PageModule(t *testing.T) {
	syn, err := New(layout, 0)
	require.NoError(t, err)

	defs := synthesize(t, syn, fixtures())
	require.Len(t, defs, 4)

	home := findDef(defs, "HomePageModule")
	require.NotNil(t, home)
	assert.Equal(t, "/work/src/pages/HomePage.metadata.json", home.OriginFilePath)
	assert.Equal(t, "/work/src/_modules/pages/HomePageModule.ts", home.GeneratedFilePath)
	assert.Equal(t, []models.SourceSymbol{{FileKey: "/work/src/pages/HomePage", Name: "HomePage"}}, home.Sources)
	assert.Equal(t, []string{"HomePage"}, home.Declarations)
	assert.Equal(t, []string{"HomePage"}, home.Exports)
	assert.Equal(t, []string{"HomePage"}, home.EntryComponents)
	assert.Empty(t, home.Providers)

	assert.Equal(t, []models.ModuleRef{
		CommonModule,
		{ClassName: "SdButtonModule", FilePath: "/work/src/_modules/controls/SdButtonModule.ts"},
		{ClassName: "SdDateModule", FilePath: "/work/src/_modules/pipes/SdDateModule.ts"},
		{ClassName: "SdToastModule", FilePath: "/work/src/_modules/providers/SdToastModule.ts"},
		{ClassName: "UiModule", ModuleName: "@acme/ui"},
	}, home.Imports)
}

func TestSynthesize_Classification(t *testing.T) {
	syn, err := New(layout, 0)
	require.NoError(t, err)
	defs := synthesize(t, syn, fixtures())

	toast := findDef(defs, "SdToastModule")
	require.NotNil(t, toast)
	assert.Equal(t, []string{"SdToastProvider"}, toast.Providers)
	assert.Empty(t, toast.Declarations)
	assert.Equal(t, []models.ModuleRef{CommonModule}, toast.Imports)

	pipe := findDef(defs, "SdDateModule")
	require.NotNil(t, pipe)
	assert.Equal(t, []string{"SdDatePipe"}, pipe.Declarations)
	assert.Empty(t, pipe.EntryComponents)

	button := findDef(defs, "SdButtonModule")
	require.NotNil(t, button)
	for _, ref := range button.Imports {
		assert.NotEqual(t, "SdButtonModule", ref.ClassName, "a module never imports itself")
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	files := fixtures()
	reversed := make([]fixture, len(files))
	for i, f := range files {
		reversed[len(files)-1-i] = f
	}

	first, err := New(layout, 0)
	require.NoError(t, err)
	second, err := New(layout, 0)
	require.NoError(t, err)

	assert.Equal(t, synthesize(t, first, files), synthesize(t, second, reversed))
}

func TestSynthesize_Cache(t *testing.T) {
	syn, err := New(layout, 0)
	require.NoError(t, err)

	reg := metadata.NewRegistry(layout.SrcDir, nil)
	for _, f := range fixtures() {
		_, err := reg.Register(f.path, f.raw)
		require.NoError(t, err)
	}

	snap := reg.Snapshot()
	ix, _ := index.Build(snap, layout)
	first, _ := syn.Synthesize(snap, ix)
	again, _ := syn.Synthesize(snap, ix)
	require.Len(t, again, len(first))
	for i := range first {
		assert.Same(t, first[i], again[i])
	}
	assert.Equal(t, 4, syn.CacheLen())

	_, err = reg.Register("/work/src/providers/sd-toast.metadata.json", tu.Module(tu.Object{
		"SdToastProvider":  tu.Class(tu.Decorator("Injectable", nil)),
		"SdNoticeProvider": tu.Class(tu.Decorator("Injectable", nil)),
	}))
	require.NoError(t, err)

	snap = reg.Snapshot()
	ix, _ = index.Build(snap, layout)
	changed, _ := syn.Synthesize(snap, ix)
	toast := findDef(changed, "SdToastModule")
	require.NotNil(t, toast)
	assert.Equal(t, []string{"SdNoticeProvider", "SdToastProvider"}, toast.Providers)
}

func TestNormalize_BrowserModule(t *testing.T) {
	assert.Equal(t, CommonModule, normalize(models.ModuleRef{ClassName: "BrowserModule", ModuleName: "@angular/platform-browser"}))

	forms := models.ModuleRef{ClassName: "FormsModule", ModuleName: "@angular/forms"}
	assert.Equal(t, forms, normalize(forms))
}
