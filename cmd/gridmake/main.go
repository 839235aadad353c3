package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/specialistvlad/gridmake/internal/app"
	"github.com/specialistvlad/gridmake/internal/cli"
)

// main is the entrypoint for the gridmake application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(exitCode(err))
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	appConfig.Color = isTerminal(outW)

	return app.NewApp(outW, errW, appConfig).Run(ctx)
}

// exitCode maps an error escaping run to the process exit status: 2 for
// usage and build file problems, the child's status after a relaunch, and 1
// for everything else.
func exitCode(err error) int {
	var (
		exitErr  *cli.ExitError
		usageErr *app.UsageError
		childErr *app.ChildExitError
	)
	switch {
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.As(err, &usageErr):
		return 2
	case errors.As(err, &childErr):
		return childErr.Code
	default:
		return 1
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
