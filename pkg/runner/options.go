package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/mortar/pkg/session"
)

const (
	// DefaultCPS is the typewriter speed in characters per second.
	DefaultCPS = 40.0
	// DefaultTick is the fixed step of the host loop.
	DefaultTick = 50 * time.Millisecond
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithHandler configures a custom IOHandler.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithCPS sets the typewriter speed. Zero or less reveals text at once.
func WithCPS(cps float64) Option {
	return func(r *Runner) {
		r.CPS = cps
	}
}

// WithTick sets the loop step.
func WithTick(tick time.Duration) Option {
	return func(r *Runner) {
		if tick > 0 {
			r.Tick = tick
		}
	}
}

// WithHeadless switches the default handler to NDJSON and reveals text at once.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithRenderer configures the body renderer used by the default text handler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithSession persists the dialogue under id after every command and on exit.
func WithSession(sessions *session.Manager, id string) Option {
	return func(r *Runner) {
		r.Sessions = sessions
		r.SessionID = id
	}
}
