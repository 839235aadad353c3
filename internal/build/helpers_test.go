package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/proc"
)

type actionFunc func(ctx context.Context, env dag.Env, n *dag.Node) ([]byte, error)

func (f actionFunc) Execute(ctx context.Context, env dag.Env, n *dag.Node) ([]byte, error) {
	return f(ctx, env, n)
}

// recorder counts action invocations per target, in call order.
type recorder struct {
	calls []string
}

func (r *recorder) count(target string) int {
	c := 0
	for _, t := range r.calls {
		if t == target {
			c++
		}
	}
	return c
}

// copyFirst copies the node's first source into its target.
func (r *recorder) copyFirst() dag.Action {
	return actionFunc(func(_ context.Context, env dag.Env, n *dag.Node) ([]byte, error) {
		r.calls = append(r.calls, n.Target())
		fmt.Fprintln(env.Console(), "copy "+n.Sources()[0].Target()+" "+n.Target())
		if env.DryRun() {
			return nil, nil
		}
		data, err := os.ReadFile(n.Sources()[0].Path(env.Top()))
		if err != nil {
			return nil, err
		}
		return nil, os.WriteFile(n.Path(env.Top()), data, 0o644)
	})
}

// fail records the call and returns an error without touching anything.
func (r *recorder) fail() dag.Action {
	return actionFunc(func(_ context.Context, _ dag.Env, n *dag.Node) ([]byte, error) {
		r.calls = append(r.calls, n.Target())
		return nil, errors.New("step exploded")
	})
}

// custom records the call and delegates to fn.
func (r *recorder) custom(fn func(env dag.Env, n *dag.Node) error) dag.Action {
	return actionFunc(func(_ context.Context, env dag.Env, n *dag.Node) ([]byte, error) {
		r.calls = append(r.calls, n.Target())
		return nil, fn(env, n)
	})
}

type fixture struct {
	t       *testing.T
	top     string
	reg     *dag.Registry
	console *bytes.Buffer
	// base is a whole-second timestamp an hour in the past.
	base time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:       t,
		top:     t.TempDir(),
		reg:     dag.NewRegistry(),
		console: &bytes.Buffer{},
		base:    time.Now().Add(-time.Hour).Truncate(time.Second),
	}
}

func (f *fixture) engine(opts Options) *Engine {
	return New(f.top, opts, proc.New(f.top, f.console), f.console)
}

// file writes name with content and stamps it at mtime.
func (f *fixture) file(name, content string, mtime time.Time) {
	f.t.Helper()
	path := filepath.Join(f.top, filepath.FromSlash(name))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(f.t, os.Chtimes(path, mtime, mtime))
}

func (f *fixture) source(name string) *dag.Node {
	f.t.Helper()
	n, err := f.reg.Source(name)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) target(name string, action dag.Action, sources ...*dag.Node) *dag.Node {
	f.t.Helper()
	n, err := f.reg.Register(name, sources, ' ', action)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) mtime(name string) time.Time {
	f.t.Helper()
	info, err := os.Stat(filepath.Join(f.top, filepath.FromSlash(name)))
	require.NoError(f.t, err)
	return info.ModTime()
}

type fileState struct {
	Content string
	ModTime time.Time
}

// snapshot captures every file's content and timestamp under the root.
func (f *fixture) snapshot() map[string]fileState {
	f.t.Helper()
	out := make(map[string]fileState)
	err := filepath.WalkDir(f.top, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.top, path)
		out[rel] = fileState{Content: string(data), ModTime: info.ModTime()}
		return nil
	})
	require.NoError(f.t, err)
	return out
}
