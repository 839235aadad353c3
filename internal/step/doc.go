// Package step implements the build actions a target can carry: a shell
// command template, a touch for phony umbrella targets, a literal content
// transform and a command whose output is captured to a log file.
//
// Every action echoes what it is about to do on the build console and does
// nothing else under dry-run.
package step
