package build

import "time"

// Options selects the engine's run mode.
type Options struct {
	// Verbose reports up-to-date targets and every rebuild decision.
	Verbose bool
	// DryRun computes and prints decisions without touching the file
	// system or starting processes.
	DryRun bool
	// KeepGoing continues with sibling branches after a failure.
	KeepGoing bool
	// Clean deletes derived targets instead of building them.
	Clean bool
	// Color highlights engine messages on the console.
	Color bool
	// TieBreak controls what happens when a rebuilt target ends up with the
	// same timestamp as its newest source.
	TieBreak TieBreak
	// Protected targets are never deleted after a failed step.
	Protected []string
}

// TieBreak is a bounded retry policy for timestamp ties.
type TieBreak struct {
	// Enabled re-stamps tied targets until their timestamp is strictly
	// later than every source. Ties are accepted when false.
	Enabled bool
	// Attempts bounds the number of re-stamps.
	Attempts uint64
	// Interval is the pause between attempts.
	Interval time.Duration
}

// DefaultTieBreak is the policy used when ties are disallowed without
// further configuration.
var DefaultTieBreak = TieBreak{
	Enabled:  true,
	Attempts: 2000,
	Interval: time.Millisecond,
}
