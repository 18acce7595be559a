package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/toyz/ngmod/internal/testutil"
)

func TestMetadataScanner_Scan(t *testing.T) {
	root := t.TempDir()
	tu.WriteArchive(t, root, `
-- src/pages/HomePage.metadata.json --
{}
-- src/pages/HomePage.ts --
-- src/controls/deep/sd-button.metadata.json --
{}
-- src/_modules/pages/Stale.metadata.json --
{}
-- lib/ui.metadata.json --
{}
`)
	out := filepath.Join(root, "src", "_modules")
	s := NewMetadataScanner(out)

	files, err := s.Scan([]string{
		filepath.Join(root, "src"),
		filepath.Join(root, "lib"),
		filepath.Join(root, "src"),
		filepath.Join(root, "missing"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "lib", "ui.metadata.json"),
		filepath.Join(root, "src", "controls", "deep", "sd-button.metadata.json"),
		filepath.Join(root, "src", "pages", "HomePage.metadata.json"),
	}, files)
}

func TestMetadataScanner_Matches(t *testing.T) {
	s := NewMetadataScanner("/work/src/_modules")
	assert.True(t, s.Matches("/work/src/a.metadata.json"))
	assert.False(t, s.Matches("/work/src/a.ts"))
	assert.False(t, s.Matches("/work/src/_modules/a.metadata.json"))
}

func TestMetadataScanner_RejectsFile(t *testing.T) {
	root := t.TempDir()
	file := tu.WriteFile(t, root, "a.metadata.json", []byte("{}"))
	_, err := NewMetadataScanner(filepath.Join(root, "out")).Scan([]string{file})
	assert.Error(t, err)
}
