package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/ngmod/internal/log"
	tu "github.com/toyz/ngmod/internal/testutil"
	"github.com/toyz/ngmod/internal/utils"
)

func TestSession_WatchRegeneratesOnChange(t *testing.T) {
	project := newProject(t)
	project.Debounce = 20 * time.Millisecond
	s, buf := newTestSession(utils.DiagnosticInfo)
	outDir := filepath.Join(project.Root, "src", "_modules")
	exists := func(name string) func() bool {
		return func() bool {
			_, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(name)))
			return err == nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- s.watch(ctx, project, log.Discard())
	}()

	require.Eventually(t, exists("_routes.ts"), 5*time.Second, 10*time.Millisecond)

	tu.WriteFile(t, project.Root, "src/pages/AboutPage.metadata.json", tu.Module(tu.Object{
		"AboutPage": tu.Class(tu.Component("app-about", "")),
	}))
	require.Eventually(t, exists("pages/AboutPageModule.ts"), 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, buf.String(), "Stopped watching")
}
