package internal

import (
	"io"

	"github.com/hailam/tapedeck/internal/config"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithIO replaces the standard streams. Logs go to errw.
func WithIO(in io.Reader, out, errw io.Writer) Option {
	return func(a *application) {
		a.stdin = in
		a.stdout = out
		a.stderr = errw
	}
}
