// Package cli parses the command line into the application's configuration:
// make-style single-dash flags interleaved with target names, and the exit
// codes for usage errors.
package cli
