package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// ReadFile returns the content of name under top.
func ReadFile(t *testing.T, top, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(top, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// ModTime returns the timestamp of name under top.
func ModTime(t *testing.T, top, name string) time.Time {
	t.Helper()
	info, err := os.Stat(filepath.Join(top, filepath.FromSlash(name)))
	require.NoError(t, err)
	return info.ModTime()
}
