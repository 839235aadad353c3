package step

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/proc"
	"github.com/stretchr/testify/require"
)

// testEnv is a dag.Env backed by a real process runner rooted at top.
type testEnv struct {
	top     string
	dryRun  bool
	console bytes.Buffer
	runner  *proc.Runner
	execs   []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	top := t.TempDir()
	return &testEnv{top: top, runner: proc.New(top, nil)}
}

func (e *testEnv) Top() string        { return e.top }
func (e *testEnv) DryRun() bool       { return e.dryRun }
func (e *testEnv) Console() io.Writer { return &e.console }

func (e *testEnv) Exec(ctx context.Context, cmdline string) ([]byte, error) {
	e.execs = append(e.execs, cmdline)
	return e.runner.Run(ctx, cmdline)
}

// chain registers sources as plain files and target on top of them.
func chain(t *testing.T, sep byte, target string, sources ...string) *dag.Node {
	t.Helper()
	r := dag.NewRegistry()
	var srcs []*dag.Node
	for _, s := range sources {
		n, err := r.Source(s)
		require.NoError(t, err)
		srcs = append(srcs, n)
	}
	n, err := r.Register(target, srcs, sep, nil)
	require.NoError(t, err)
	return n
}
