// Package fsutil provides file system helpers for locating the project root
// and reading target timestamps.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrMarkerNotFound is returned when no ancestor holds the marker file.
var ErrMarkerNotFound = errors.New("marker file not found")

// FindRoot walks from start towards the file system root and returns the
// first directory containing a file named marker.
func FindRoot(start, marker string) (string, error) {
	if marker == "" {
		panic("marker must not be empty")
	}

	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		info, err := os.Stat(filepath.Join(dir, marker))
		if err == nil && !info.IsDir() {
			return dir, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("error accessing %s: %w", dir, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s marks the top of the project hierarchy", ErrMarkerNotFound, marker)
		}
		dir = parent
	}
}

// ModTime returns the modification time of path, or the zero time if the
// file does not exist.
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
