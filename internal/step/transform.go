package step

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/gridmake/internal/dag"
)

// Defaults for Transform's plausibility checks on the input read.
const (
	DefaultMinBytes = 1000
	DefaultMaxBytes = 100000
	DefaultMarker   = "/* WARNING: MACHINE GENERATED FILE!  DO NOT EDIT!*/"
)

// Replacement is one literal find/replace pair.
type Replacement struct {
	From string
	To   string
}

// Transform derives the target from its first source by literal
// substitution, in order, and prepends a generated-file marker.
type Transform struct {
	Replacements []Replacement
	Marker       string
	// MinBytes rejects inputs shorter than this.
	MinBytes int
	// MaxBytes is the read buffer size. An input that fills it exactly is
	// treated as truncated.
	MaxBytes int
}

// NewTransform returns a Transform with the default marker and limits.
func NewTransform(replacements ...Replacement) *Transform {
	return &Transform{
		Replacements: replacements,
		Marker:       DefaultMarker,
		MinBytes:     DefaultMinBytes,
		MaxBytes:     DefaultMaxBytes,
	}
}

// Execute reads the first source, rewrites it and writes the target.
func (t *Transform) Execute(_ context.Context, env dag.Env, n *dag.Node) ([]byte, error) {
	srcs := n.Sources()
	if len(srcs) == 0 {
		return nil, fmt.Errorf("transform for %s has no source", n.Target())
	}
	src := srcs[0]

	fmt.Fprintln(env.Console(), t.describe(src.Target(), n.Target()))
	if env.DryRun() {
		return nil, nil
	}

	in, err := t.read(src.Path(env.Top()), src.Target())
	if err != nil {
		return nil, fmt.Errorf("unable to make file %s: %w", n.Target(), err)
	}

	s := string(in)
	for _, r := range t.Replacements {
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	if t.Marker != "" {
		s = t.Marker + "\n" + s
	}

	dst := n.Path(env.Top())
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("unable to make file %s: %w", n.Target(), err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("unable to make file %s: %w", n.Target(), err)
	}
	if err := os.WriteFile(dst, []byte(s), 0o644); err != nil {
		return nil, fmt.Errorf("unable to make file %s: %w", n.Target(), err)
	}
	return nil, nil
}

func (t *Transform) read(path, target string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	max := t.MaxBytes
	if max <= 0 {
		max = DefaultMaxBytes
	}
	buf := make([]byte, max)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n < t.MinBytes || n == len(buf) {
		return nil, fmt.Errorf("unexpected file length read, %d bytes read from %s", n, target)
	}
	return buf[:n], nil
}

func (t *Transform) describe(src, dst string) string {
	var b strings.Builder
	for _, r := range t.Replacements {
		fmt.Fprintf(&b, "s/%s/%s/g ", r.From, r.To)
	}
	fmt.Fprintf(&b, "%s > %s", src, dst)
	return b.String()
}
