package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gookit/color"

	"github.com/specialistvlad/gridmake/internal/ctxlog"
	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/fsutil"
)

// Runner executes a command line on behalf of a step.
type Runner interface {
	Run(ctx context.Context, cmdline string) ([]byte, error)
}

// visit is the per-run state of a node. Its presence in Engine.visits marks
// the node as processed for the current run.
type visit struct {
	active  bool
	modTime time.Time
	// err is the failure of the first visit, replayed to later dependents.
	err error
}

// Engine runs incremental builds over a registered graph. An Engine is not
// safe for concurrent use; one Make call tree runs at a time.
type Engine struct {
	opts      Options
	top       string
	runner    Runner
	console   io.Writer
	now       func() time.Time
	visits    map[*dag.Node]*visit
	protected map[string]bool
}

// New creates an engine rooted at top.
func New(top string, opts Options, runner Runner, console io.Writer) *Engine {
	if console == nil {
		console = io.Discard
	}
	protected := make(map[string]bool, len(opts.Protected))
	for _, t := range opts.Protected {
		protected[t] = true
	}
	return &Engine{
		opts:      opts,
		top:       top,
		runner:    runner,
		console:   console,
		now:       time.Now,
		visits:    make(map[*dag.Node]*visit),
		protected: protected,
	}
}

// Top implements dag.Env.
func (e *Engine) Top() string { return e.top }

// DryRun implements dag.Env.
func (e *Engine) DryRun() bool { return e.opts.DryRun }

// Console implements dag.Env.
func (e *Engine) Console() io.Writer { return e.console }

// Exec implements dag.Env.
func (e *Engine) Exec(ctx context.Context, cmdline string) ([]byte, error) {
	if e.runner == nil {
		return nil, errors.New("no process runner configured")
	}
	return e.runner.Run(ctx, cmdline)
}

// ModTime returns the timestamp cached for n in this run and whether n has
// been visited.
func (e *Engine) ModTime(n *dag.Node) (time.Time, bool) {
	v, ok := e.visits[n]
	if !ok {
		return time.Time{}, false
	}
	return v.modTime, true
}

// LatestSourceTime is the newest cached timestamp among n's direct sources,
// or the zero time if it has none.
func (e *Engine) LatestSourceTime(n *dag.Node) time.Time {
	var latest time.Time
	for _, src := range n.Sources() {
		if v, ok := e.visits[src]; ok && v.modTime.After(latest) {
			latest = v.modTime
		}
	}
	return latest
}

// Run makes every target in order. Under keep-going all targets are
// attempted and their failures are returned as one *AggregateError.
func (e *Engine) Run(ctx context.Context, targets []*dag.Node) error {
	logger := ctxlog.FromContext(ctx)
	var failures []error
	for _, n := range targets {
		if _, err := e.Make(ctx, n); err != nil {
			if !e.opts.KeepGoing || IsFatal(err) {
				return err
			}
			logger.Error("Target failed, continuing.", "target", n.Target(), "error", err)
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return &AggregateError{Errs: failures}
	}
	return nil
}

// Make brings n up to date and reports whether its target changed. A node
// that already failed in this run fails again without being retried.
func (e *Engine) Make(ctx context.Context, n *dag.Node) (bool, error) {
	if v, ok := e.visits[n]; ok {
		if v.active {
			return false, &dag.CycleError{Path: []string{n.Target(), n.Target()}}
		}
		return false, v.err
	}
	changed, err := e.makeNode(ctx, n)
	if err != nil {
		if v, ok := e.visits[n]; ok {
			v.err = err
		}
	}
	return changed, err
}

func (e *Engine) makeNode(ctx context.Context, n *dag.Node) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("target", n.Target())

	path := n.Path(e.top)
	modTime, err := fsutil.ModTime(path)
	if err != nil {
		return false, fmt.Errorf("reading timestamp of %s: %w", n.Target(), err)
	}
	v := &visit{active: true, modTime: modTime}
	e.visits[n] = v
	defer func() { v.active = false }()

	if err := e.makeSources(ctx, n); err != nil {
		return false, err
	}

	if e.opts.Clean {
		return e.clean(ctx, n, path, !modTime.IsZero())
	}

	if n.IsSource() && modTime.IsZero() {
		return false, &MissingSourceError{Target: n.Target()}
	}

	latest := e.LatestSourceTime(n)
	if !modTime.Before(latest) {
		if e.opts.Verbose {
			fmt.Fprintf(e.console, "%s > {%s} : already up to date\n", n.Target(), n.Describe())
		}
		logger.Debug("Target up to date.")
		return false, nil
	}

	if e.opts.Verbose {
		fmt.Fprintf(e.console, "%s <= {%s}\n", n.Target(), n.Describe())
	}
	logger.Debug("Target stale, running step.", "sources", n.Describe())

	if err := e.execute(ctx, n, path); err != nil {
		return false, err
	}

	if e.opts.DryRun {
		// Nothing was written; pretend the target is now newest so that
		// dependents report what a real run would do.
		simulated := e.now()
		if !simulated.After(latest) {
			simulated = latest.Add(time.Nanosecond)
		}
		v.modTime = simulated
		return true, nil
	}

	built, err := e.verify(n, path, modTime, latest)
	if err != nil {
		return false, err
	}
	if built.Equal(latest) && e.opts.TieBreak.Enabled {
		built, err = e.breakTie(ctx, n, path, latest)
		if err != nil {
			return false, err
		}
	}
	v.modTime = built
	logger.Debug("Target rebuilt.", "modtime", built)
	return true, nil
}

// makeSources recurses into every source of n.
func (e *Engine) makeSources(ctx context.Context, n *dag.Node) error {
	var failures []error
	for _, src := range n.Sources() {
		if _, err := e.Make(ctx, src); err != nil {
			if !e.opts.KeepGoing || IsFatal(err) {
				return err
			}
			ctxlog.FromContext(ctx).Error("Source failed, continuing with siblings.", "target", n.Target(), "source", src.Target(), "error", err)
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return &AggregateError{Target: n.Target(), Errs: failures}
	}
	return nil
}

func (e *Engine) clean(ctx context.Context, n *dag.Node, path string, exists bool) (bool, error) {
	if n.IsSource() || !exists {
		return false, nil
	}
	e.say(color.Yellow, "rm "+n.Target())
	if e.opts.DryRun {
		return true, nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("removing %s: %w", n.Target(), err)
	}
	ctxlog.FromContext(ctx).Debug("Target removed.", "target", n.Target())
	return true, nil
}

func (e *Engine) execute(ctx context.Context, n *dag.Node, path string) error {
	action := n.Action()
	if action == nil {
		return &StepFailedError{Target: n.Target(), Err: errors.New("no action to build target")}
	}

	if _, err := action.Execute(ctx, e, n); err != nil {
		if !e.opts.DryRun && !e.protected[n.Target()] {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				ctxlog.FromContext(ctx).Warn("Could not remove partial target.", "target", n.Target(), "error", rmErr)
			}
		}
		e.say(color.Red, "FAILED "+n.Target())
		return &StepFailedError{Target: n.Target(), Err: err}
	}
	return nil
}

// verify applies the post-build timestamp checks and returns the target's
// new timestamp.
func (e *Engine) verify(n *dag.Node, path string, before, latest time.Time) (time.Time, error) {
	for _, src := range n.Sources() {
		recorded := e.visits[src].modTime
		observed, err := fsutil.ModTime(src.Path(e.top))
		if err != nil {
			return time.Time{}, fmt.Errorf("reading timestamp of %s: %w", src.Target(), err)
		}
		if !observed.Equal(recorded) {
			return time.Time{}, &InvariantError{Kind: SourceModified, Target: n.Target(), Source: src.Target(), Recorded: recorded, Observed: observed}
		}
	}

	built, err := fsutil.ModTime(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading timestamp of %s: %w", n.Target(), err)
	}
	if !built.After(before) {
		return time.Time{}, &InvariantError{Kind: NotAdvanced, Target: n.Target(), Recorded: before, Observed: built}
	}
	if now := e.now(); built.After(now) {
		return time.Time{}, &InvariantError{Kind: FutureTimestamp, Target: n.Target(), Recorded: now, Observed: built}
	}
	if built.Before(latest) {
		return time.Time{}, &InvariantError{Kind: BeforeSources, Target: n.Target(), Recorded: latest, Observed: built}
	}
	return built, nil
}

func (e *Engine) say(c color.Color, msg string) {
	if e.opts.Color {
		msg = c.Sprint(msg)
	}
	fmt.Fprintln(e.console, msg)
}
