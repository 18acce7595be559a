package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/toyz/ngmod/internal/testutil"
)

func TestPackageResolver(t *testing.T) {
	root := t.TempDir()
	tu.WriteArchive(t, root, `
-- node_modules/@acme/ui/package.json --
{"name": "@acme/ui"}
-- node_modules/@acme/ui/src/button/button.metadata.json --
{}
-- node_modules/@acme/unnamed/package.json --
{"version": "1.0.0"}
-- node_modules/@acme/unnamed/x.metadata.json --
{}
-- node_modules/broken/package.json --
{oops
`)
	r := NewPackageResolver()

	name, ok := r.PackageName(filepath.Join(root, "node_modules/@acme/ui/src/button/button.metadata.json"))
	require.True(t, ok)
	assert.Equal(t, "@acme/ui", name)

	// a package.json without a name is skipped in favour of an outer one
	_, ok = r.PackageName(filepath.Join(root, "node_modules/@acme/unnamed/x.metadata.json"))
	assert.False(t, ok)

	_, ok = r.PackageName(filepath.Join(root, "node_modules/broken/y.metadata.json"))
	assert.False(t, ok)
}

func TestPackageResolver_CachesUntilReset(t *testing.T) {
	root := t.TempDir()
	pkg := tu.WriteFile(t, root, "lib/package.json", []byte(`{"name":"first"}`))
	file := filepath.Join(root, "lib", "a.metadata.json")

	r := NewPackageResolver()
	name, _ := r.PackageName(file)
	assert.Equal(t, "first", name)

	require.NoError(t, os.WriteFile(pkg, []byte(`{"name":"second"}`), 0644))
	name, _ = r.PackageName(file)
	assert.Equal(t, "first", name)

	r.Reset()
	name, _ = r.PackageName(file)
	assert.Equal(t, "second", name)
}
