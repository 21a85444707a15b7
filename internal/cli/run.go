package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/aretw0/mortar/internal/config"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config    *config.Config
	Path      string
	Node      string
	JSON      bool
	Debug     bool
	Watch     bool
	SessionID string
	Fresh     bool

	Stdin  io.Reader
	Stdout io.Writer
}

func (o RunOptions) stdin() io.Reader {
	if o.Stdin != nil {
		return o.Stdin
	}
	return os.Stdin
}

func (o RunOptions) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

// Execute handles the run command, dispatching to session or watch mode.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Watch && opts.JSON {
		return errors.New("--watch and --json cannot be used together")
	}
	if opts.Watch {
		return RunWatch(ctx, opts)
	}
	if opts.Fresh && opts.SessionID != "" {
		if err := ResetSession(ctx, opts.Config, opts.SessionID); err != nil {
			return err
		}
	}
	return RunSession(ctx, opts)
}
