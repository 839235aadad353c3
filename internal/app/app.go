package app

import (
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/gridmake/internal/bootstrap"
	"github.com/specialistvlad/gridmake/internal/hcl"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   *hcl.Loader
	launcher bootstrap.Launcher
	child    bool
}

// Option customizes an App.
type Option func(*App)

// WithLauncher replaces the launcher used to relaunch a rebuilt tool.
func WithLauncher(l bootstrap.Launcher) Option {
	return func(a *App) { a.launcher = l }
}

// AsChild marks the App as running inside a relaunched process.
func AsChild(child bool) Option {
	return func(a *App) { a.child = child }
}

// NewApp is the constructor for the main application. Console output such
// as echoed commands goes to outW; structured logs go to logW.
func NewApp(outW, logW io.Writer, config *Config, opts ...Option) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: config,
		loader: hcl.NewLoader(),
		launcher: &bootstrap.ExecLauncher{
			Stdin:  os.Stdin,
			Stdout: outW,
			Stderr: logW,
		},
		child: bootstrap.IsChild(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
