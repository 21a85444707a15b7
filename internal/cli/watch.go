package cli

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/mortar"
	"github.com/aretw0/mortar/internal/presentation/tui"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/runner"
	"github.com/aretw0/mortar/pkg/session"
)

// watchInterval is how often the program file is hashed for changes.
var watchInterval = 500 * time.Millisecond

// RunWatch runs a dialogue in development mode. Edits to the program file
// reload the engine and resume the same session at the node it was on.
func RunWatch(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	logger := createLogger(cfg.LogLevel, opts.Debug, false)
	tui.PrintBanner(opts.stdout(), mortar.Version)

	probe, err := createEngine(cfg, logger, domain.LifecycleHooks{}, false)
	if err != nil {
		return err
	}
	path, node, err := resolveEntry(ctx, probe.Loader(), cfg, opts.Path, opts.Node)
	if err != nil {
		return err
	}
	file, err := programFile(cfg, path)
	if err != nil {
		return err
	}

	// Scoped by program so two projects do not share a session.
	if opts.SessionID == "" {
		sum := sha256.Sum256([]byte(file))
		opts.SessionID = fmt.Sprintf("watch-%x", sum[:4])
	}

	store, locker, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	manager := session.NewManager(store, session.WithLocker(locker), session.WithLogger(logger))
	if opts.Fresh {
		if err := manager.Delete(ctx, opts.SessionID); err != nil {
			return err
		}
	}

	logger.Info("Starting watcher", "file", file, "session_id", opts.SessionID)
	printSystemMessage(opts.stdout(), "Watching %s (session %q)", path, opts.SessionID)

	// One handler for every iteration so only one reader consumes stdin.
	handler := createHandler(opts, logger)

	for {
		reload, err := watchIteration(ctx, opts, logger, manager, handler, file, path, node)
		if err != nil {
			return err
		}
		if !reload {
			return nil
		}
		logger.Info("Watcher restarting")
	}
}

// watchIteration runs the dialogue until it ends, ctx is cancelled, or the
// file changes. It reports whether the caller should reload.
func watchIteration(ctx context.Context, opts RunOptions, logger *slog.Logger, manager *session.Manager, handler runner.IOHandler, file, path, node string) (bool, error) {
	iterCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseline, _ := hashFile(file)
	changed := make(chan struct{})
	go func() {
		if waitForChange(iterCtx, file, baseline) {
			close(changed)
			cancel()
		}
	}()

	engine, err := createEngine(opts.Config, logger, domain.LifecycleHooks{}, opts.Debug)
	if err != nil {
		return false, err
	}
	r := runner.NewRunner(createRunnerOptions(opts, logger, handler, manager)...)

	resumed, err := r.Begin(iterCtx, engine, path, node)
	if err != nil && isRestoreFailure(err) {
		logger.Warn("Session no longer fits the program, starting over", "err", err)
		printSystemMessage(opts.stdout(), "Session reset: %v", err)
		if derr := manager.Delete(ctx, opts.SessionID); derr != nil {
			return false, derr
		}
		resumed, err = r.Begin(iterCtx, engine, path, node)
	}
	if err != nil {
		// Wait for a fix instead of exiting.
		logger.Error("Failed to start dialogue", "err", err)
		printSystemMessage(opts.stdout(), "Error: %v", err)
		select {
		case <-ctx.Done():
			return false, nil
		case <-changed:
			return true, nil
		}
	}
	if resumed {
		printSystemMessage(opts.stdout(), "Resuming session %q", opts.SessionID)
	}

	if err := r.Run(iterCtx, engine); err != nil {
		return false, err
	}

	select {
	case <-changed:
		printSystemMessage(opts.stdout(), "Change detected in %s", path)
		return true, nil
	default:
	}
	if ctx.Err() != nil {
		return false, nil
	}
	if !engine.Active() {
		printSystemMessage(opts.stdout(), "Dialogue ended. Edit the file to restart.")
		select {
		case <-ctx.Done():
			return false, nil
		case <-changed:
			return true, nil
		}
	}
	return false, nil
}

// waitForChange blocks until the content hash of file differs from baseline.
func waitForChange(ctx context.Context, file string, baseline []byte) bool {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			sum, err := hashFile(file)
			if err != nil {
				continue
			}
			if string(sum) != string(baseline) {
				return true
			}
		}
	}
}

func hashFile(file string) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
