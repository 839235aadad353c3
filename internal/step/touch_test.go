package step

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouch(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.top, "phony", "all")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale content"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	n := chain(t, ' ', "phony/all", "a", "b")

	before := time.Now().Add(-time.Second)
	_, err := Touch{}.Execute(context.Background(), env, n)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.True(t, info.ModTime().After(before))
	assert.Contains(t, env.console.String(), "touch phony/all")
}

func TestTouch_DryRun(t *testing.T) {
	env := newTestEnv(t)
	env.dryRun = true
	n := chain(t, ' ', "all", "a")

	_, err := Touch{}.Execute(context.Background(), env, n)

	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(env.top, "all"))
}
