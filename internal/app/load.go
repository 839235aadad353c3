package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agext/levenshtein"

	"github.com/specialistvlad/gridmake/internal/ctxlog"
	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/fsutil"
	"github.com/specialistvlad/gridmake/internal/hcl"
)

// findTop locates the project root: the nearest directory at or above the
// configured start that holds the build file.
func (a *App) findTop(ctx context.Context) (string, error) {
	start := a.config.Dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", usagef("cannot determine working directory: %w", err)
		}
		start = wd
	}
	top, err := fsutil.FindRoot(start, hcl.FileName)
	if err != nil {
		if errors.Is(err, fsutil.ErrMarkerNotFound) {
			return "", usagef("%s not found; %s marks the top of the project hierarchy", hcl.FileName, hcl.FileName)
		}
		return "", usagef("locating %s: %w", hcl.FileName, err)
	}
	ctxlog.FromContext(ctx).Debug("Project root found.", "top", top)
	return top, nil
}

// loadProject reads the build file under top.
func (a *App) loadProject(ctx context.Context, top string) (*hcl.Project, error) {
	project, err := a.loader.Load(ctx, filepath.Join(top, hcl.FileName))
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	ctxlog.FromContext(ctx).Info("Build file loaded.", "nodes", project.Registry.Len())
	return project, nil
}

// resolveTargets looks up every requested name, reporting all unknown ones
// together. With no names it falls back to the build file's defaults.
func (a *App) resolveTargets(project *hcl.Project) ([]*dag.Node, error) {
	if len(a.config.Targets) == 0 {
		if len(project.Defaults) == 0 {
			return nil, usagef("no targets specified and the build file declares no default")
		}
		return project.Defaults, nil
	}

	var (
		nodes   []*dag.Node
		unknown []error
	)
	for _, name := range a.config.Targets {
		n, err := project.Registry.Lookup(name)
		if err != nil {
			if s := suggestTarget(name, project.Registry.Names()); s != "" {
				err = fmt.Errorf("%w; did you mean %q?", err, s)
			}
			unknown = append(unknown, err)
			continue
		}
		nodes = append(nodes, n)
	}
	if len(unknown) > 0 {
		return nil, &UsageError{Err: errors.Join(unknown...)}
	}
	return nodes, nil
}

// suggestTarget returns the known name closest to name, or "" when none is
// within two edits.
func suggestTarget(name string, known []string) string {
	best, bestDist := "", 3
	for _, candidate := range known {
		if d := levenshtein.Distance(name, candidate, nil); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// leafSources returns the paths of every plain file the nodes depend on.
func leafSources(top string, nodes []*dag.Node) []string {
	seen := make(map[*dag.Node]bool)
	var out []string
	var walk func(n *dag.Node)
	walk = func(n *dag.Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		if n.IsSource() {
			out = append(out, n.Path(top))
			return
		}
		for _, src := range n.Sources() {
			walk(src)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out
}
