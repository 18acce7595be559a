package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

func TestMarshalDefaults(t *testing.T) {
	tests := []struct {
		format    string
		unmarshal func([]byte, any) error
		srcKey    string
		libKey    string
	}{
		{"json", json.Unmarshal, "src_dir", "library_dirs"},
		{"yaml", yaml.Unmarshal, "src-dir", "library-dirs"},
		{"yml", yaml.Unmarshal, "src-dir", "library-dirs"},
		{"toml", toml.Unmarshal, "src-dir", "library-dirs"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := MarshalDefaults(tt.format)
			require.NoError(t, err)

			doc := map[string]any{}
			require.NoError(t, tt.unmarshal(data, &doc))
			assert.Equal(t, "src", doc[tt.srcKey])
			assert.Equal(t, "300ms", doc["debounce"])
			assert.Equal(t, []any{"node_modules"}, doc[tt.libKey])
			assert.Contains(t, doc, "concurrency")
			assert.NotContains(t, doc, "level", "global flags stay out of project config")
		})
	}

	_, err := MarshalDefaults("ini")
	assert.Error(t, err)
}

func TestConfigKey(t *testing.T) {
	assert.Equal(t, "src_dir", configKey("SrcDir", '_'))
	assert.Equal(t, "library-dirs", configKey("LibraryDirs", '-'))
	assert.Equal(t, "root", configKey("Root", '-'))
}

func TestConfigInit_Run(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "conf", "ngmod.yaml")
	globals := &Globals{Quiet: true}

	require.NoError(t, (&ConfigInit{Format: "yaml", Output: dest}).Run(globals))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "output-dir: src/_modules")

	err = (&ConfigInit{Format: "yaml", Output: dest}).Run(globals)
	assert.ErrorContains(t, err, "--force")

	require.NoError(t, (&ConfigInit{Format: "json", Output: dest, Force: true}).Run(globals))
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"output_dir": "src/_modules"`)
}

func TestCLI_Parse(t *testing.T) {
	parse := func(t *testing.T, args []string, options ...kong.Option) (*CLI, *kong.Context) {
		t.Helper()
		var c CLI
		parser, err := kong.New(&c, append([]kong.Option{kong.Name("ngmod"), kong.DefaultEnvars("NGMOD")}, options...)...)
		require.NoError(t, err)
		ctx, err := parser.Parse(args)
		require.NoError(t, err)
		return &c, ctx
	}

	t.Run("defaults", func(t *testing.T) {
		c, ctx := parse(t, []string{})
		assert.Equal(t, "build", ctx.Command())
		assert.Equal(t, "src", c.SrcDir)
		assert.Equal(t, "src/_modules", c.OutputDir)
		assert.Equal(t, []string{"node_modules"}, c.LibraryDirs)
		assert.Equal(t, 300*time.Millisecond, c.Debounce)
		assert.Equal(t, "warn", c.Log.Level)
	})

	t.Run("flags", func(t *testing.T) {
		c, ctx := parse(t, []string{"watch", "--src-dir", "app", "--pages-dir", "app/pages", "-v", "--log-level", "debug"})
		assert.Equal(t, "watch", ctx.Command())
		assert.Equal(t, "app", c.SrcDir)
		assert.Equal(t, "app/pages", c.PagesDir)
		assert.True(t, c.Verbose)
		assert.Equal(t, "debug", c.Log.Level)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("NGMOD_OUTPUT_DIR", "generated")
		c, _ := parse(t, []string{"clean"})
		assert.Equal(t, "generated", c.OutputDir)
	})

	t.Run("json config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ngmod.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"src_dir": "client"}`), 0o644))
		c, _ := parse(t, []string{"build"}, kong.Configuration(kong.JSON, path))
		assert.Equal(t, "client", c.SrcDir)
	})
}
