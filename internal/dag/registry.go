package dag

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is the name to node table for one build graph.
type Registry struct {
	nodes map[string]*Node
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]*Node)}
}

// Register creates the node for target and installs it in the table. Every
// source must already belong to this registry.
func (r *Registry) Register(target string, sources []*Node, sep byte, action Action) (*Node, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	if _, ok := r.nodes[target]; ok {
		return nil, &DuplicateTargetError{Target: target}
	}
	for _, src := range sources {
		if src == nil {
			return nil, &InvalidTargetError{Target: target, Reason: "nil source"}
		}
		if r.nodes[src.target] != src {
			return nil, &InvalidTargetError{Target: target, Reason: fmt.Sprintf("source %q is not registered", src.target)}
		}
	}
	if sep == 0 {
		sep = ' '
	}

	n := &Node{
		target:  target,
		sources: append([]*Node(nil), sources...),
		sep:     sep,
		action:  action,
	}
	r.nodes[target] = n
	return n, nil
}

// Source registers a plain file with no dependencies and no action.
func (r *Registry) Source(target string) (*Node, error) {
	return r.Register(target, nil, ' ', nil)
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name string) (*Node, error) {
	n, ok := r.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return n, nil
}

// Names returns the sorted target identifiers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int { return len(r.nodes) }

func validateTarget(target string) error {
	if strings.TrimSpace(target) == "" {
		return &InvalidTargetError{Target: target, Reason: "empty identifier"}
	}
	if strings.IndexByte(target, Wildcard) != -1 {
		return &InvalidTargetError{Target: target, Reason: "dependency target has a '%'"}
	}
	return nil
}
