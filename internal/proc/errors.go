package proc

import "fmt"

// Kind classifies a ProcessError.
type Kind int

const (
	// KindExit means the process ran and exited with a nonzero status.
	KindExit Kind = iota
	// KindSpawn means the command line could not be parsed or started.
	KindSpawn
	// KindWait means waiting on the process failed or was interrupted.
	KindWait
	// KindRead means draining one of the output pipes failed.
	KindRead
)

func (k Kind) String() string {
	switch k {
	case KindExit:
		return "exit"
	case KindSpawn:
		return "spawn"
	case KindWait:
		return "wait"
	case KindRead:
		return "read"
	default:
		return "unknown"
	}
}

// ProcessError describes a failed command.
type ProcessError struct {
	Kind     Kind
	Command  string
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	switch e.Kind {
	case KindExit:
		return fmt.Sprintf("status %d from %s", e.ExitCode, e.Command)
	case KindSpawn:
		return fmt.Sprintf("unable to start %s: %v", e.Command, e.Err)
	case KindWait:
		return fmt.Sprintf("interrupted while waiting on %s: %v", e.Command, e.Err)
	default:
		return fmt.Sprintf("I/O error from %s: %v", e.Command, e.Err)
	}
}

func (e *ProcessError) Unwrap() error { return e.Err }
