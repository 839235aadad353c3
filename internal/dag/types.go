package dag

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// Wildcard is the placeholder prefix used by command templates. Target
// identifiers must never contain it.
const Wildcard = '%'

// Action is the build step that produces a node's target from its sources.
// The engine invokes it only after deciding the target is stale.
type Action interface {
	// Execute runs the step and returns whatever output it captured.
	Execute(ctx context.Context, env Env, n *Node) ([]byte, error)
}

// Env exposes the facilities of the running build to an Action.
type Env interface {
	// Top is the absolute project root.
	Top() string
	// DryRun reports whether steps must only describe what they would do.
	DryRun() bool
	// Console receives operator-facing output such as echoed commands.
	Console() io.Writer
	// Exec runs a command line in the project root and returns its stdout.
	Exec(ctx context.Context, cmdline string) ([]byte, error)
}

// Node is a single build target: a path-like identifier relative to the
// project root, an ordered list of sources and an optional action. Nodes are
// immutable once registered.
type Node struct {
	target  string
	sources []*Node
	sep     byte
	action  Action

	flatOnce sync.Once
	flat     string
}

// Target returns the node's identifier.
func (n *Node) Target() string { return n.target }

// Sources returns the node's direct sources in declaration order.
func (n *Node) Sources() []*Node { return n.sources }

// Separator returns the character used when flattening sources for commands.
func (n *Node) Separator() byte { return n.sep }

// Action returns the node's build step, or nil for a plain source file.
func (n *Node) Action() Action { return n.action }

// IsSource reports whether the node has no dependencies and is therefore
// expected to exist on disk.
func (n *Node) IsSource() bool { return len(n.sources) == 0 }

// Path resolves the target under the project root.
func (n *Node) Path(top string) string {
	return filepath.Join(top, filepath.FromSlash(n.target))
}

// FlattenSources joins the source identifiers with sep.
func (n *Node) FlattenSources(sep byte) string {
	ids := make([]string, len(n.sources))
	for i, src := range n.sources {
		ids[i] = src.target
	}
	return strings.Join(ids, string(sep))
}

// FlattenSourcePaths joins the sources, each resolved under top, with sep.
func (n *Node) FlattenSourcePaths(top string, sep byte) string {
	paths := make([]string, len(n.sources))
	for i, src := range n.sources {
		paths[i] = src.Path(top)
	}
	return strings.Join(paths, string(sep))
}

// Describe returns the comma separated source list used in diagnostics. It
// is computed on first use and cached.
func (n *Node) Describe() string {
	n.flatOnce.Do(func() {
		n.flat = n.FlattenSources(',')
	})
	return n.flat
}

// String implements fmt.Stringer.
func (n *Node) String() string { return n.target }
