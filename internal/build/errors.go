package build

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/gridmake/internal/dag"
)

// MissingSourceError reports a node with no sources whose file is absent.
type MissingSourceError struct {
	Target string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("source file %s does not exist", e.Target)
}

// StepFailedError wraps the failure of a node's action.
type StepFailedError struct {
	Target string
	Err    error
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("building %s: %v", e.Target, e.Err)
}

func (e *StepFailedError) Unwrap() error { return e.Err }

// InvariantKind names which post-build timestamp check failed.
type InvariantKind int

const (
	// SourceModified: a source's timestamp changed while building the target.
	SourceModified InvariantKind = iota
	// NotAdvanced: the target's timestamp did not move forward.
	NotAdvanced
	// FutureTimestamp: the target is stamped later than the wall clock.
	FutureTimestamp
	// BeforeSources: the target is stamped earlier than its newest source.
	BeforeSources
)

func (k InvariantKind) String() string {
	switch k {
	case SourceModified:
		return "source modified"
	case NotAdvanced:
		return "target not advanced"
	case FutureTimestamp:
		return "target in the future"
	case BeforeSources:
		return "target older than sources"
	default:
		return "unknown"
	}
}

// InvariantError is a timestamp invariant violation. It indicates a broken
// build description and is always fatal.
type InvariantError struct {
	Kind     InvariantKind
	Target   string
	Source   string
	Recorded time.Time
	Observed time.Time
}

func (e *InvariantError) Error() string {
	switch e.Kind {
	case SourceModified:
		return fmt.Sprintf("timestamp for source file %s apparently changed by building %s: last recorded time=%s and now the filesystem reports=%s",
			e.Source, e.Target, stamp(e.Recorded), stamp(e.Observed))
	case NotAdvanced:
		return fmt.Sprintf("timestamp for %s not changed by building %s", e.Target, e.Target)
	case FutureTimestamp:
		return fmt.Sprintf("timestamp for %s moving into the future by building: modtime=%s and now=%s",
			e.Target, stamp(e.Observed), stamp(e.Recorded))
	default:
		return fmt.Sprintf("timestamp for %s is older than its newest source: modtime=%s and latest source=%s",
			e.Target, stamp(e.Observed), stamp(e.Recorded))
	}
}

// AggregateError collects the branch failures seen under keep-going.
type AggregateError struct {
	// Target is the node whose sources failed, empty for the top level.
	Target string
	Errs   []error
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	if e.Target == "" {
		fmt.Fprintf(&b, "some build errors (%d)", len(e.Errs))
	} else {
		fmt.Fprintf(&b, "some build errors in sources of %s (%d)", e.Target, len(e.Errs))
	}
	for _, err := range e.Errs {
		b.WriteString("\n\t")
		b.WriteString(strings.ReplaceAll(err.Error(), "\n", "\n\t"))
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error { return e.Errs }

// IsFatal reports whether err must abort the run regardless of keep-going.
func IsFatal(err error) bool {
	var inv *InvariantError
	if errors.As(err, &inv) {
		return true
	}
	var cycle *dag.CycleError
	return errors.As(err, &cycle)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return t.Format(time.RFC3339Nano)
}
