package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/mortar"
	"github.com/aretw0/mortar/internal/presentation/tui"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/runner"
	"github.com/aretw0/mortar/pkg/session"
)

// RunSession runs one dialogue to completion, resuming the named session
// when it exists.
func RunSession(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	logger := createLogger(cfg.LogLevel, opts.Debug, !opts.JSON)

	engine, err := createEngine(cfg, logger, domain.LifecycleHooks{}, opts.Debug)
	if err != nil {
		return err
	}
	path, node, err := resolveEntry(ctx, engine.Loader(), cfg, opts.Path, opts.Node)
	if err != nil {
		return err
	}

	var manager *session.Manager
	if opts.SessionID != "" {
		store, locker, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		manager = session.NewManager(store, session.WithLocker(locker), session.WithLogger(logger))
	}

	if !opts.JSON {
		tui.PrintBanner(opts.stdout(), mortar.Version)
	}

	handler := createHandler(opts, logger)
	r := runner.NewRunner(createRunnerOptions(opts, logger, handler, manager)...)

	resumed, err := r.Begin(ctx, engine, path, node)
	if err != nil {
		return err
	}
	logSessionStatus(logger, opts, resumed, path, node)

	if err := r.Run(ctx, engine); err != nil {
		return err
	}
	logCompletion(logger, opts, engine.Active())
	return nil
}

func logSessionStatus(logger *slog.Logger, opts RunOptions, resumed bool, path, node string) {
	switch {
	case opts.SessionID == "":
		logger.Debug("Starting dialogue", "path", path, "node", node)
	case resumed:
		logger.Info("Resumed session", "session_id", opts.SessionID)
		if !opts.JSON {
			printSystemMessage(opts.stdout(), "Resuming session %q", opts.SessionID)
		}
	default:
		logger.Info("Created session", "session_id", opts.SessionID, "path", path, "node", node)
	}
}

func logCompletion(logger *slog.Logger, opts RunOptions, active bool) {
	if active {
		if opts.SessionID != "" && !opts.JSON {
			printSystemMessage(opts.stdout(), "Session %q saved", opts.SessionID)
		}
		return
	}
	logger.Debug("Dialogue finished")
}

// isRestoreFailure reports whether a stored session no longer fits the program.
func isRestoreFailure(err error) bool {
	return errors.Is(err, domain.ErrNodeNotFound) || errors.Is(err, domain.ErrProgramNotFound)
}
