// Package hcl loads a build.hcl file and turns its declarations into a
// registered dag graph with step actions attached. It is responsible for
// parsing, locals evaluation, action construction and load-time cycle
// detection.
package hcl
