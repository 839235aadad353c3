// Package bootstrap keeps the build tool current with its own build file.
//
// A run has two phases. Phase one makes the node that produces the tool's
// own executable. If that rebuilt anything, the fresh executable is started
// with the original arguments, its output and exit code are relayed, and the
// current process stops there. Phase two, the requested build, runs only when
// phase one changed nothing or when the process is itself such a child.
package bootstrap
