package bootstrap

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/specialistvlad/gridmake/internal/ctxlog"
	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/proc"
)

// EnvMarker is set in the environment of a relaunched child so that it
// skips straight to phase two.
const EnvMarker = "GRIDMAKE_BOOTSTRAPPED"

// Maker brings a node up to date and reports whether it changed.
type Maker interface {
	Make(ctx context.Context, n *dag.Node) (bool, error)
}

// Launcher runs the rebuilt executable to completion and returns its exit
// code.
type Launcher interface {
	Launch(ctx context.Context, path string, args []string) (int, error)
}

// Outcome is the result of phase one.
type Outcome struct {
	// Relaunched is true when a child ran the build; the caller must exit
	// with ExitCode without building anything itself.
	Relaunched bool
	ExitCode   int
}

// Guard runs phase one.
type Guard struct {
	// Self produces the tool's executable. A nil Self disables the guard.
	Self *dag.Node
	Top  string
	// Args are forwarded verbatim to the child.
	Args     []string
	Launcher Launcher
	// Child is true when this process was started by another guard.
	Child bool
	// DryRun reports a stale executable without relaunching, since nothing
	// was rebuilt.
	DryRun bool
}

// IsChild reports whether the current process was relaunched by a guard.
func IsChild() bool {
	return os.Getenv(EnvMarker) != ""
}

// Run makes Self and relaunches the tool if it changed.
func (g *Guard) Run(ctx context.Context, m Maker) (Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	if g.Self == nil {
		logger.Debug("No self target declared, skipping bootstrap.")
		return Outcome{}, nil
	}

	changed, err := m.Make(ctx, g.Self)
	if err != nil {
		return Outcome{}, err
	}
	if !changed {
		logger.Debug("Build tool is up to date.", "self", g.Self.Target())
		return Outcome{}, nil
	}
	if g.Child {
		logger.Warn("Build tool changed again inside a relaunched child; not relaunching twice.", "self", g.Self.Target())
		return Outcome{}, nil
	}
	if g.DryRun {
		logger.Info("Build tool is stale; a real run would relaunch it.", "self", g.Self.Target())
		return Outcome{}, nil
	}

	path := g.Self.Path(g.Top)
	logger.Info("Build tool rebuilt, relaunching.", "path", path, "args", g.Args)
	code, err := g.Launcher.Launch(ctx, path, g.Args)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Relaunched: true, ExitCode: code}, nil
}

// ExecLauncher starts the child as an operating system process sharing the
// given streams.
type ExecLauncher struct {
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Launch implements Launcher.
func (l *ExecLauncher) Launch(ctx context.Context, path string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = l.Dir
	cmd.Env = append(os.Environ(), EnvMarker+"=1")
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		return exitErr.ExitCode(), nil
	case errors.As(err, &exitErr):
		return 0, &proc.ProcessError{Kind: proc.KindWait, Command: path, ExitCode: -1, Err: err}
	default:
		return 0, &proc.ProcessError{Kind: proc.KindSpawn, Command: path, Err: err}
	}
}
