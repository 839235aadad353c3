package step

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/gridmake/internal/dag"
)

// LogWriteError reports a failure to persist a captured run's output. The
// command itself succeeded.
type LogWriteError struct {
	Path string
	Err  error
}

func (e *LogWriteError) Error() string {
	return fmt.Sprintf("error while writing log %s: %v", e.Path, e.Err)
}

func (e *LogWriteError) Unwrap() error { return e.Err }

// Capture runs a command like Command and stores its stdout in a log file
// named after the target: the target itself when it already ends in ".log",
// otherwise the target plus ".log".
type Capture struct {
	cmd *Command
}

// NewCapture validates template and returns the action.
func NewCapture(template string) (*Capture, error) {
	cmd, err := NewCommand(template)
	if err != nil {
		return nil, err
	}
	return &Capture{cmd: cmd}, nil
}

// LogPath returns the log file for n under top.
func LogPath(top string, n *dag.Node) string {
	p := n.Path(top)
	if strings.HasSuffix(p, ".log") {
		return p
	}
	return p + ".log"
}

// Execute runs the command and writes its output to the log.
func (c *Capture) Execute(ctx context.Context, env dag.Env, n *dag.Node) ([]byte, error) {
	out, err := c.cmd.Execute(ctx, env, n)
	if err != nil || env.DryRun() {
		return out, err
	}

	path := LogPath(env.Top(), n)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return out, &LogWriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return out, &LogWriteError{Path: path, Err: err}
	}
	fmt.Fprintln(env.Console(), " > "+path)
	return out, nil
}
