package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Lookup for unknown target names.
var ErrNotFound = errors.New("target not found")

// DuplicateTargetError reports a second registration of the same identifier.
type DuplicateTargetError struct {
	Target string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("more than one dependency for target %q", e.Target)
}

// InvalidTargetError reports an identifier that can never name a target.
type InvalidTargetError struct {
	Target string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Target, e.Reason)
}

// CycleError reports a dependency cycle found while ordering declarations.
// Path starts and ends with the same identifier.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}
