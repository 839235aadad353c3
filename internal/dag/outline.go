package dag

import "fmt"

// Outline is a name-level view of the declared graph, built before any node
// is registered. It keeps insertion order so that registration is
// deterministic.
type Outline struct {
	ids   []string
	nodes map[string]*outlineNode
}

type outlineNode struct {
	id string
	// deps holds the nodes this node depends on, in declaration order.
	deps []*outlineNode
}

// NewOutline creates and returns an initialized, empty Outline.
func NewOutline() *Outline {
	return &Outline{nodes: make(map[string]*outlineNode)}
}

// AddNode adds a node with the given ID. Adding an existing ID is a no-op.
func (o *Outline) AddNode(id string) {
	if _, ok := o.nodes[id]; ok {
		return
	}
	o.nodes[id] = &outlineNode{id: id}
	o.ids = append(o.ids, id)
}

// Has reports whether id was added.
func (o *Outline) Has(id string) bool {
	_, ok := o.nodes[id]
	return ok
}

// AddEdge records that toID depends on fromID. Both nodes must exist.
func (o *Outline) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return &CycleError{Path: []string{fromID, fromID}}
	}
	fromNode, ok := o.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := o.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	toNode.deps = append(toNode.deps, fromNode)
	return nil
}

// Order returns every ID with each node's dependencies ahead of it. It fails
// with a *CycleError naming the offending path if the outline is not acyclic.
func (o *Outline) Order() ([]string, error) {
	// permanent: fully visited. temporary: on the current DFS stack.
	permanent := make(map[string]bool, len(o.nodes))
	temporary := make(map[string]bool)
	var stack []string
	order := make([]string, 0, len(o.nodes))

	var visit func(n *outlineNode) error
	visit = func(n *outlineNode) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return &CycleError{Path: cyclePath(stack, n.id)}
		}
		temporary[n.id] = true
		stack = append(stack, n.id)

		for _, dep := range n.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n.id)
		permanent[n.id] = true
		order = append(order, n.id)
		return nil
	}

	for _, id := range o.ids {
		if err := visit(o.nodes[id]); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cyclePath trims the DFS stack down to the loop that closes at id.
func cyclePath(stack []string, id string) []string {
	for i, s := range stack {
		if s == id {
			path := append([]string(nil), stack[i:]...)
			return append(path, id)
		}
	}
	return []string{id, id}
}
