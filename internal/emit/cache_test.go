package emit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/ngmod/internal/models"
	"github.com/toyz/ngmod/internal/testutil"
)

func TestCache_LoadReadsExistingOutput(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArchive(t, root, `
-- pages/HomePageModule.ts --
export class HomePageModule {}
-- _routes.ts --
export const routes = [];
-- README.md --
not generated
`)

	cache := NewCache(root, 2, nil)
	require.NoError(t, cache.Load(context.Background()))

	assert.Equal(t, 2, cache.Len())
	content, ok := cache.Content(filepath.Join(root, "pages", "HomePageModule.ts"))
	require.True(t, ok)
	assert.Equal(t, "export class HomePageModule {}\n", content)

	// a second load does not re-read
	require.NoError(t, os.Remove(filepath.Join(root, "_routes.ts")))
	require.NoError(t, cache.Load(context.Background()))
	assert.Equal(t, 2, cache.Len())
}

func TestCache_EmitIsIdempotent(t *testing.T) {
	root := t.TempDir()
	cache := NewCache(root, 4, nil)
	require.NoError(t, cache.Load(context.Background()))

	artifacts := []models.Artifact{
		{Path: filepath.Join(root, "a", "AModule.ts"), Content: "a\n"},
		{Path: filepath.Join(root, "b", "BModule.ts"), Content: "b\n"},
	}

	first, err := cache.Emit(context.Background(), artifacts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{artifacts[0].Path, artifacts[1].Path}, first.Written)
	assert.Empty(t, first.Removed)

	second, err := cache.Emit(context.Background(), artifacts, nil)
	require.NoError(t, err)
	assert.Empty(t, second.Written)
	assert.Empty(t, second.Removed)

	artifacts[1].Content = "b2\n"
	third, err := cache.Emit(context.Background(), artifacts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{artifacts[1].Path}, third.Written)

	data, err := os.ReadFile(artifacts[1].Path)
	require.NoError(t, err)
	assert.Equal(t, "b2\n", string(data))
}

func TestCache_WarmCacheSkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	path := testutil.WriteFile(t, root, "AModule.ts", []byte("a\n"))

	cache := NewCache(root, 1, nil)
	require.NoError(t, cache.Load(context.Background()))

	result, err := cache.Emit(context.Background(), []models.Artifact{{Path: path, Content: "a\n"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Written)
}

func TestCache_SweepRemovesStaleFiles(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArchive(t, root, `
-- controls/SdButtonModule.ts --
button
-- pages/deep/GonePageModule.ts --
gone
-- pages/FailedPageModule.ts --
failed
`)

	cache := NewCache(root, 4, nil)
	require.NoError(t, cache.Load(context.Background()))

	button := filepath.Join(root, "controls", "SdButtonModule.ts")
	failed := filepath.Join(root, "pages", "FailedPageModule.ts")
	gone := filepath.Join(root, "pages", "deep", "GonePageModule.ts")

	result, err := cache.Emit(context.Background(), []models.Artifact{{Path: button, Content: "button\n"}}, []string{failed})
	require.NoError(t, err)

	assert.Empty(t, result.Written)
	assert.Equal(t, []string{gone}, result.Removed)
	assert.Equal(t, []string{filepath.Join(root, "pages", "deep")}, result.RemovedDirs)

	assert.NoFileExists(t, gone)
	assert.FileExists(t, failed)
	assert.Equal(t, []string{button, failed}, cache.Paths())

	// once no longer retained, the failed file's old output is swept too
	result, err = cache.Emit(context.Background(), []models.Artifact{{Path: button, Content: "button\n"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{failed}, result.Removed)
	assert.NoDirExists(t, filepath.Join(root, "pages"))
	assert.DirExists(t, root)
}

func TestCache_FailedWriteIsRetried(t *testing.T) {
	root := t.TempDir()
	blocker := testutil.WriteFile(t, root, "pages", []byte("not a directory"))
	cache := NewCache(root, 2, nil)

	page := models.Artifact{Path: filepath.Join(root, "pages", "HomePageModule.ts"), Content: "home\n"}
	result, err := cache.Emit(context.Background(), []models.Artifact{page}, nil)
	require.Error(t, err)
	assert.Empty(t, result.Written)
	assert.Contains(t, cache.Paths(), page.Path)

	require.NoError(t, os.Remove(blocker))
	result, err = cache.Emit(context.Background(), []models.Artifact{page}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{page.Path}, result.Written)

	data, err := os.ReadFile(page.Path)
	require.NoError(t, err)
	assert.Equal(t, "home\n", string(data))
}

func TestCache_FailedRemoveIsRetried(t *testing.T) {
	root := t.TempDir()
	cache := NewCache(root, 2, nil)

	stale := filepath.Join(root, "pages", "GonePageModule.ts")
	_, err := cache.Emit(context.Background(), []models.Artifact{{Path: stale, Content: "gone\n"}}, nil)
	require.NoError(t, err)

	// a non-empty directory in place of the file cannot be removed
	require.NoError(t, os.Remove(stale))
	testutil.WriteFile(t, root, "pages/GonePageModule.ts/keep", []byte("x"))

	result, err := cache.Emit(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Empty(t, result.Removed)
	assert.Equal(t, []string{stale}, cache.Paths())

	require.NoError(t, os.RemoveAll(stale))
	testutil.WriteFile(t, root, "pages/GonePageModule.ts", []byte("gone\n"))

	result, err = cache.Emit(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{stale}, result.Removed)
	assert.NoFileExists(t, stale)
	assert.Empty(t, cache.Paths())
}

func TestCache_RejectsWritesOutsideRoot(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "_modules")
	cache := NewCache(root, 1, nil)

	outside := filepath.Join(dir, "escape.ts")
	result, err := cache.Emit(context.Background(), []models.Artifact{{Path: outside, Content: "x"}}, nil)
	require.Error(t, err)
	assert.Empty(t, result.Written)
	assert.NoFileExists(t, outside)
}
