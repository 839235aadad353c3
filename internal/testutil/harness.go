// Package testutil holds the harness shared by the end-to-end tests: it lays
// out a throwaway project root and drives the App against it.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gridmake/internal/app"
)

// WriteProject creates a project root holding buildHCL as build.hcl and the
// given plain files, all stamped an hour in the past.
func WriteProject(t *testing.T, buildHCL string, files map[string]string) string {
	t.Helper()
	top := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(top, "build.hcl"), []byte(buildHCL), 0600))
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	for name, content := range files {
		path := filepath.Join(top, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		require.NoError(t, os.Chtimes(path, past, past))
	}
	return top
}

// RunApp runs one App with cfg and returns its console output.
func RunApp(t *testing.T, cfg app.Config) (string, error) {
	t.Helper()
	testApp, console, _ := app.SetupAppTest(t, &cfg)
	err := testApp.Run(context.Background())
	return console.String(), err
}
