package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Args is the original argument list, forwarded on relaunch.
	Args    []string
	Targets []string

	Verbose   bool
	DryRun    bool
	KeepGoing bool
	Clean     bool
	Watch     bool
	// Color highlights engine messages; set when stdout is a terminal.
	Color bool

	// Dir is where the search for build.hcl starts. Empty means the
	// working directory.
	Dir string

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Clean && cfg.Watch {
		return nil, errors.New("-clean and -watch cannot be combined")
	}
	return &cfg, nil
}
