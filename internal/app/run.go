package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/gridmake/internal/bootstrap"
	"github.com/specialistvlad/gridmake/internal/build"
	"github.com/specialistvlad/gridmake/internal/ctxlog"
	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/hcl"
	"github.com/specialistvlad/gridmake/internal/proc"
	"github.com/specialistvlad/gridmake/internal/watch"
)

// Run executes the main application logic based on the App's configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "targets", a.config.Targets)

	top, err := a.findTop(ctx)
	if err != nil {
		return err
	}
	project, err := a.loadProject(ctx, top)
	if err != nil {
		return err
	}
	targets, err := a.resolveTargets(project)
	if err != nil {
		return err
	}
	if a.config.Verbose {
		fmt.Fprintf(a.outW, "Building in %s\n", top)
	}

	runner := proc.New(top, a.outW)

	guard := &bootstrap.Guard{
		Self:     project.Self,
		Top:      top,
		Args:     a.config.Args,
		Launcher: a.launcher,
		Child:    a.child,
		DryRun:   a.config.DryRun,
	}
	selfOpts := a.engineOptions(project)
	selfOpts.Clean = false
	selfOpts.KeepGoing = false
	outcome, err := guard.Run(ctx, build.New(top, selfOpts, runner, a.outW))
	if err != nil {
		return fmt.Errorf("rebuilding the build tool: %w", err)
	}
	if outcome.Relaunched {
		a.logger.Debug("Relaunched child finished.", "exit_code", outcome.ExitCode)
		if outcome.ExitCode != 0 {
			return &ChildExitError{Code: outcome.ExitCode}
		}
		return nil
	}

	engine := build.New(top, a.engineOptions(project), runner, a.outW)
	buildErr := engine.Run(ctx, targets)
	if !a.config.Watch {
		a.logger.Debug("App.Run method finished.", "error", buildErr)
		return buildErr
	}
	if buildErr != nil {
		a.logger.Error("Initial build failed.", "error", buildErr)
	}
	return a.watch(ctx, top, targets)
}

func (a *App) engineOptions(project *hcl.Project) build.Options {
	opts := build.Options{
		Verbose:   a.config.Verbose,
		DryRun:    a.config.DryRun,
		KeepGoing: a.config.KeepGoing,
		Clean:     a.config.Clean,
		Color:     a.config.Color,
		TieBreak:  project.TieBreak,
	}
	if project.Self != nil {
		opts.Protected = []string{project.Self.Target()}
	}
	return opts
}

// watch rebuilds the targets each time one of their plain source files or
// the build file changes. The build file is reloaded on every round so that
// edits to it take effect.
func (a *App) watch(ctx context.Context, top string, targets []*dag.Node) error {
	paths := append(leafSources(top, targets), filepath.Join(top, hcl.FileName))
	w, err := watch.New(watch.DefaultDebounce, paths...)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(a.outW, "Watching %d files for changes.\n", len(w.Files()))
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		project, err := a.loadProject(ctx, top)
		if err != nil {
			return err
		}
		targets, err := a.resolveTargets(project)
		if err != nil {
			return err
		}
		if err := w.Add(leafSources(top, targets)...); err != nil {
			return err
		}
		engine := build.New(top, a.engineOptions(project), proc.New(top, a.outW), a.outW)
		return engine.Run(ctx, targets)
	})
}
