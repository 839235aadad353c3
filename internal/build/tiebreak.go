package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gookit/color"

	"github.com/specialistvlad/gridmake/internal/ctxlog"
	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/fsutil"
)

var errTied = errors.New("timestamp still tied with newest source")

// breakTie re-stamps the target with the current time until the file system
// reports a timestamp strictly after latest, or the policy runs out of
// attempts. A tie that survives every attempt is kept; it is still a valid
// build.
func (e *Engine) breakTie(ctx context.Context, n *dag.Node, path string, latest time.Time) (time.Time, error) {
	logger := ctxlog.FromContext(ctx).With("target", n.Target())
	policy := e.opts.TieBreak
	if policy.Interval <= 0 {
		policy.Interval = DefaultTieBreak.Interval
	}

	start := time.Now()
	stamped := latest
	op := func() error {
		now := e.now()
		if err := os.Chtimes(path, now, now); err != nil {
			return backoff.Permanent(err)
		}
		mt, err := fsutil.ModTime(path)
		if err != nil {
			return backoff.Permanent(err)
		}
		stamped = mt
		if !mt.After(latest) {
			return errTied
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Interval), policy.Attempts), ctx)
	err := backoff.Retry(op, b)
	switch {
	case err == nil:
		e.say(color.Gray, fmt.Sprintf("%s: had to wait %s for the timestamp to advance", n.Target(), time.Since(start).Round(time.Millisecond)))
		logger.Debug("Timestamp tie broken.", "modtime", stamped)
		return stamped, nil
	case errors.Is(err, errTied):
		logger.Warn("Timestamp tie persists after all attempts.", "attempts", policy.Attempts)
		return stamped, nil
	default:
		return time.Time{}, &StepFailedError{Target: n.Target(), Err: fmt.Errorf("re-stamping target: %w", err)}
	}
}
