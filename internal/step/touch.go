package step

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/gridmake/internal/dag"
)

// Touch recreates an empty target stamped with the current time. It backs
// phony umbrella targets such as "all".
type Touch struct{}

// Execute removes and recreates the target file.
func (Touch) Execute(_ context.Context, env dag.Env, n *dag.Node) ([]byte, error) {
	fmt.Fprintln(env.Console(), "touch "+n.Target())
	if env.DryRun() {
		return nil, nil
	}

	path := n.Path(env.Top())
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("unable to make file %s: %w", n.Target(), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("unable to make file %s: %w", n.Target(), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to make file %s: %w", n.Target(), err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("unable to make file %s: %w", n.Target(), err)
	}
	// A freshly created file can carry a stamp slightly in the past.
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return nil, fmt.Errorf("unable to stamp file %s: %w", n.Target(), err)
	}
	return nil, nil
}
