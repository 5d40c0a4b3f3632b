// Package app wires the full harness pipeline: parse the scene, resolve the
// creation plan, build resources on a backend, replay jobs, verify outputs,
// and render the run report.
package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/vk/gfxprobe/internal/hal"
)

// ErrRunFailed is returned by Run when at least one job did not pass. The
// report has already been rendered when it is returned.
var ErrRunFailed = errors.New("one or more jobs failed")

// App encapsulates the harness's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config

	// openDevice lets tests substitute a fake backend; nil means the
	// registry decides.
	openDevice func() (hal.Device, error)
}

// Option customizes an App.
type Option func(*App)

// WithDevice makes the App run against the given device instead of opening
// one from the backend registry. The App still closes it after the run.
func WithDevice(device hal.Device) Option {
	return func(a *App) {
		a.openDevice = func() (hal.Device, error) { return device, nil }
	}
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, config *Config, opts ...Option) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: config,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
