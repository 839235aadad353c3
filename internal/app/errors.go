package app

import "fmt"

// UsageError is a problem with how the tool was invoked or with the build
// file, found before any building starts.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// ChildExitError carries the nonzero exit code of a relaunched child.
type ChildExitError struct {
	Code int
}

func (e *ChildExitError) Error() string {
	return fmt.Sprintf("relaunched build exited with status %d", e.Code)
}

func usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}
