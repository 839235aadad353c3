package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/gridmake/internal/ctxlog"
)

// Runner executes command lines synchronously.
type Runner struct {
	// Dir is the working directory of every child. Empty means the
	// current directory.
	Dir string
	// Console receives the captured output of failing commands. Nil
	// discards it.
	Console io.Writer
	// Env, when non-nil, replaces the child's environment.
	Env []string
}

// New creates a Runner that starts children in dir.
func New(dir string, console io.Writer) *Runner {
	return &Runner{Dir: dir, Console: console}
}

// Run executes cmdline and returns its captured stdout. An empty command
// line succeeds without starting anything.
func (r *Runner) Run(ctx context.Context, cmdline string) ([]byte, error) {
	if strings.TrimSpace(cmdline) == "" {
		return nil, nil
	}
	logger := ctxlog.FromContext(ctx)

	args, err := splitArgs(cmdline)
	if err != nil {
		return nil, &ProcessError{Kind: KindSpawn, Command: cmdline, Err: err}
	}
	if len(args) == 0 {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessError{Kind: KindSpawn, Command: cmdline, Err: err}
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &ProcessError{Kind: KindSpawn, Command: cmdline, Err: err}
	}

	logger.Debug("Starting process.", "cmd", cmdline, "dir", r.Dir)
	if err := cmd.Start(); err != nil {
		return nil, &ProcessError{Kind: KindSpawn, Command: cmdline, Err: err}
	}

	succeeded := false
	defer func() {
		if !succeeded {
			_ = cmd.Process.Kill()
			r.flush(&stdout, &stderr)
		}
	}()

	// Each reader owns exactly one buffer until the group is joined.
	var readers errgroup.Group
	readers.Go(func() error { return drain(&stdout, out) })
	readers.Go(func() error { return drain(&stderr, errPipe) })

	readErr := readers.Wait()
	if readErr != nil {
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()

	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return nil, &ProcessError{Kind: KindWait, Command: cmdline, Err: ctx.Err()}
		case errors.As(waitErr, &exitErr):
			return nil, &ProcessError{Kind: KindExit, Command: cmdline, ExitCode: exitErr.ExitCode(), Err: waitErr}
		default:
			return nil, &ProcessError{Kind: KindWait, Command: cmdline, Err: waitErr}
		}
	}
	if readErr != nil {
		return nil, &ProcessError{Kind: KindRead, Command: cmdline, Err: readErr}
	}

	succeeded = true
	logger.Debug("Process finished.", "cmd", cmdline, "stdout_bytes", stdout.Len(), "stderr_bytes", stderr.Len())
	return stdout.Bytes(), nil
}

// splitArgs splits cmdline into argv. Commands run without a shell, so an
// unquoted operator such as > or && is refused rather than truncating the line.
func splitArgs(cmdline string) ([]string, error) {
	p := shellwords.NewParser()
	args, err := p.Parse(cmdline)
	if err != nil {
		return nil, err
	}
	if p.Position != -1 {
		return nil, fmt.Errorf("shell operator at offset %d: wrap the command in sh -c '...'", p.Position)
	}
	return args, nil
}

func drain(dst *bytes.Buffer, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("draining pipe: %w", err)
	}
	return nil
}

// flush dumps whatever a failed child printed, stdout first.
func (r *Runner) flush(stdout, stderr *bytes.Buffer) {
	if r.Console == nil {
		return
	}
	fmt.Fprintln(r.Console)
	_, _ = stdout.WriteTo(r.Console)
	_, _ = stderr.WriteTo(r.Console)
}
