// Package proc runs build steps as external processes.
//
// A child writing to both stdout and stderr can fill one pipe's OS buffer
// while the parent is blocked reading the other. Runner therefore drains both
// pipes concurrently, one goroutine per pipe, and joins them before reaping
// the process. On any failure the child is killed and everything it printed
// is flushed to the console before the error is returned.
package proc
