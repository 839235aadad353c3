// Package dag holds the build graph: target nodes, their ordered source edges
// and the Registry that maps each target identifier to exactly one node.
//
// Graphs are assembled in two steps. Declarations are first collected by name
// into an Outline, which rejects cycles and yields a registration order with
// sources ahead of their dependents. Nodes are then registered in that order,
// each one referencing already-registered sources. Once populated the
// Registry is read-only, so it needs no locking.
package dag
