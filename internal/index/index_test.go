package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/metadata"
	"github.com/toyz/ngmod/internal/models"
	tu "github.com/toyz/ngmod/internal/testutil"
)

var layout = models.Layout{
	SrcDir:    "/work/src",
	PagesDir:  "/work/src/pages",
	OutputDir: "/work/src/_modules",
	Excludes:  []string{"**/*.spec.metadata.json"},
}

func register(t *testing.T, reg *metadata.Registry, path string, raw []byte) {
	t.Helper()
	_, err := reg.Register(path, raw)
	require.NoError(t, err)
}

func TestBuild_SourceExports(t *testing.T) {
	reg := metadata.NewRegistry(layout.SrcDir, nil)
	register(t, reg, "/work/src/controls/sd-button.metadata.json", tu.Module(tu.Object{
		"SdButtonControl": tu.Class(tu.Component("sd-button", "<button></button>")),
		"SdButtonHelper":  tu.Class(tu.Component("sd-button-helper", "")),
	}))
	register(t, reg, "/work/src/pipes/date.metadata.json", tu.Module(tu.Object{
		"SdDatePipe": tu.Class(tu.Decorator("Pipe", tu.Object{"name": "sdDate"})),
	}))
	register(t, reg, "/work/src/providers/root.metadata.json", tu.Module(tu.Object{
		"SdRootProvider": tu.Class(tu.Decorator("Injectable", tu.Object{"providedIn": "root"})),
	}))
	register(t, reg, "/work/src/controls/sd-button.spec.metadata.json", tu.Module(tu.Object{
		"SdFakeControl": tu.Class(tu.Component("sd-fake", "")),
	}))

	ix, diags := Build(reg.Snapshot(), layout)
	assert.Empty(t, diags)

	entry, ok := ix.Lookup(layout.SrcDir, "SdButtonControl")
	require.True(t, ok)
	assert.Equal(t, "SdButtonModule", entry.Owner.ClassName)
	assert.Equal(t, "/work/src/_modules/controls/SdButtonModule.ts", entry.Owner.FilePath)
	assert.Equal(t, "sd-button", entry.Selector)

	_, ok = ix.Lookup(layout.SrcDir, "SdButtonHelper")
	assert.False(t, ok, "a class without a recognised suffix is not exported")

	_, ok = ix.Lookup(layout.SrcDir, "SdRootProvider")
	assert.False(t, ok, "a root-provided service needs no module")

	_, ok = ix.Lookup(layout.SrcDir, "SdFakeControl")
	assert.False(t, ok, "excluded files are not candidates")

	assert.Equal(t, []string{
		"/work/src/controls/sd-button.metadata.json",
		"/work/src/pipes/date.metadata.json",
	}, ix.CandidateFiles())

	require.Len(t, ix.Selectors, 1)
	assert.Equal(t, "sd-button", ix.Selectors[0].Selector.Raw)
	require.Len(t, ix.Pipes, 1)
	assert.True(t, ix.Pipes[0].Pattern.MatchString("{{ x | sdDate }}"))
}

func TestBuild_LibraryNgModule(t *testing.T) {
	reg := metadata.NewRegistry(layout.SrcDir, nil)
	register(t, reg, "/work/node_modules/@acme/ui/ui.metadata.json", tu.Library("@acme/ui", tu.Object{
		"UiButtonComponent": tu.Class(tu.Component("ui-button", "")),
		"UiFormatPipe":      tu.Class(tu.Decorator("Pipe", tu.Object{"name": "uiFormat"})),
		"UiToastProvider":   tu.Class(tu.Decorator("Injectable", nil)),
		"UiConfigProvider":  tu.Class(tu.Decorator("Injectable", nil)),
		"UiModule": tu.Object{
			"__symbolic": "class",
			"decorators": []any{tu.Decorator("NgModule", tu.Object{
				"exports":   []any{tu.Ref("", "UiButtonComponent"), tu.Ref("", "UiFormatPipe"), tu.Ref("@angular/common", "CommonModule")},
				"providers": []any{[]any{tu.Object{"provide": tu.Ref("", "UiToastProvider"), "useClass": tu.Ref("", "UiToastProvider")}}},
			})},
			"statics": tu.Object{
				"forRoot": tu.Function(tu.Object{
					"ngModule":  tu.Ref("", "UiModule"),
					"providers": []any{tu.Ref("", "UiConfigProvider")},
				}),
			},
		},
	}))
	register(t, reg, "/work/node_modules/@angular/common/common.metadata.json", tu.Library("@angular/common", tu.Object{
		"CommonModule": tu.Class(tu.Decorator("NgModule", tu.Object{})),
	}))

	ix, diags := Build(reg.Snapshot(), layout)
	assert.Empty(t, diags)

	owner := models.ModuleRef{ClassName: "UiModule", ModuleName: "@acme/ui"}
	for _, symbol := range []string{"UiModule", "UiButtonComponent", "UiFormatPipe", "UiToastProvider", "UiConfigProvider"} {
		entry, ok := ix.Lookup("@acme/ui", symbol)
		require.True(t, ok, symbol)
		assert.Equal(t, owner, entry.Owner, symbol)
	}

	button, _ := ix.Lookup("@acme/ui", "UiButtonComponent")
	assert.Equal(t, "ui-button", button.Selector)
	pipe, _ := ix.Lookup("@acme/ui", "UiFormatPipe")
	assert.Equal(t, "uiFormat", pipe.PipeName)

	common, ok := ix.Lookup("@angular/common", "CommonModule")
	require.True(t, ok)
	assert.Equal(t, models.ModuleRef{ClassName: "CommonModule", ModuleName: "@angular/common"}, common.Owner)

	assert.Empty(t, ix.CandidateFiles(), "library classes never get a generated module")
}

func TestBuild_DuplicateExportIsFatal(t *testing.T) {
	reg := metadata.NewRegistry(layout.SrcDir, nil)
	module := tu.Class(tu.Decorator("NgModule", tu.Object{
		"exports": []any{tu.Ref("@acme/ui", "UiButtonComponent")},
	}))
	register(t, reg, "/work/node_modules/@acme/ui/ui.metadata.json", tu.Library("@acme/ui", tu.Object{
		"UiButtonComponent": tu.Class(tu.Component("ui-button", "")),
		"UiModule":          module,
	}))
	register(t, reg, "/work/node_modules/@acme/extra/extra.metadata.json", tu.Library("@acme/extra", tu.Object{
		"ExtraModule": module,
	}))

	_, diags := Build(reg.Snapshot(), layout)
	require.True(t, diags.HasFatal())
	require.Equal(t, 1, diags.Count(models.SeverityFatal))
	assert.Equal(t, errors.DuplicateExportErrorCode, diags[0].Code)
	assert.Contains(t, diags[0].Message, "UiButtonComponent")
}

func TestBuild_DuplicateSourceClassIsFatal(t *testing.T) {
	reg := metadata.NewRegistry(layout.SrcDir, nil)
	register(t, reg, "/work/src/a/foo.metadata.json", tu.Module(tu.Object{
		"FooComponent": tu.Class(tu.Component("app-foo", "")),
	}))
	register(t, reg, "/work/src/b/foo.metadata.json", tu.Module(tu.Object{
		"FooComponent": tu.Class(tu.Component("app-foo", "")),
	}))

	_, diags := Build(reg.Snapshot(), layout)
	require.Equal(t, 1, diags.Count(models.SeverityFatal))
	assert.Equal(t, errors.DuplicateExportErrorCode, diags[0].Code)
	assert.Contains(t, diags[0].Message, "FooComponent")
}

func TestBuild_ResolutionFailureDropsFile(t *testing.T) {
	reg := metadata.NewRegistry(layout.SrcDir, nil)
	register(t, reg, "/work/src/controls/sd-list.metadata.json", tu.Module(tu.Object{
		"SdListControl": tu.Class(tu.Decorator("Component", nil)),
		"SdListItemControl": tu.Class(tu.Object{
			"__symbolic": "call",
			"expression": tu.Ref("@angular/core", "Component"),
			"arguments":  []any{tu.Ref("./missing", "OPTIONS")},
		}),
	}))
	register(t, reg, "/work/src/controls/sd-card.metadata.json", tu.Module(tu.Object{
		"SdCardControl": tu.Class(tu.Component("sd-card", "")),
	}))

	ix, diags := Build(reg.Snapshot(), layout)
	assert.False(t, diags.HasFatal())
	require.Equal(t, 1, diags.Count(models.SeverityError))
	assert.Equal(t, "/work/src/controls/sd-list.metadata.json", diags[0].FilePath)

	assert.True(t, ix.Failed["/work/src/controls/sd-list.metadata.json"])
	assert.Equal(t, []string{"/work/src/controls/sd-card.metadata.json"}, ix.CandidateFiles())
}

func TestBuild_FingerprintTracksExports(t *testing.T) {
	build := func(selector string) uint64 {
		reg := metadata.NewRegistry(layout.SrcDir, nil)
		register(t, reg, "/work/src/a.metadata.json", tu.Module(tu.Object{
			"AComponent": tu.Class(tu.Component(selector, "")),
		}))
		register(t, reg, "/work/src/b.metadata.json", tu.Module(tu.Object{
			"BComponent": tu.Class(tu.Component("app-b", "")),
		}))
		ix, _ := Build(reg.Snapshot(), layout)
		return ix.Fingerprint
	}

	assert.Equal(t, build("app-a"), build("app-a"))
	assert.NotEqual(t, build("app-a"), build("app-a2"))
}
