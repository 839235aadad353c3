package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/gridmake/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. Flags and target names may be
// interleaved. It returns a populated Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridmake", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
gridmake - an incremental build engine driven by build.hcl.

Usage:
  gridmake [options] [TARGET...]

Arguments:
  TARGET
    Name of a target declared in build.hcl. With no targets the engine
    block's default list is built.

Options:
`)
		flagSet.PrintDefaults()
	}

	verbose := flagSet.Bool("v", false, "Verbose: report up-to-date targets and every rebuild decision.")
	dryRun := flagSet.Bool("n", false, "Dry run: print what would be done without running anything.")
	keepGoing := flagSet.Bool("k", false, "Keep going after a failed target and report all failures at the end.")
	clean := flagSet.Bool("clean", false, "Delete derived targets instead of building them.")
	watch := flagSet.Bool("watch", false, "After building, rebuild whenever a source file changes.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var targets []string
	rest := args
	for {
		if err := flagSet.Parse(rest); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, true, nil
			}
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		if flagSet.NArg() == 0 {
			break
		}
		targets = append(targets, flagSet.Arg(0))
		rest = flagSet.Args()[1:]
	}
	slog.Debug("Arguments parsed successfully.", "targets", targets)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	levelSet := false
	flagSet.Visit(func(f *flag.Flag) {
		if f.Name == "log-level" {
			levelSet = true
		}
	})
	if *verbose && !levelSet {
		logLevel = "info"
	}

	config, err := app.NewConfig(app.Config{
		Args:      append([]string(nil), args...),
		Targets:   targets,
		Verbose:   *verbose,
		DryRun:    *dryRun,
		KeepGoing: *keepGoing,
		Clean:     *clean,
		Watch:     *watch,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
