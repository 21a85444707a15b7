package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/mortar/internal/config"
	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/internal/presentation/tui"
	"github.com/aretw0/mortar/pkg/adapters/file"
	"github.com/aretw0/mortar/pkg/adapters/redis"
	"github.com/aretw0/mortar/pkg/persistence/middleware"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/aretw0/mortar/pkg/runner"
	"github.com/aretw0/mortar/pkg/session"
	"golang.org/x/term"
)

// createLogger configures the application logger. Interactive runs stay
// silent unless debugging so logs do not interleave with the dialogue.
func createLogger(level string, debug, quiet bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	if quiet {
		return logging.NewNop()
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return logging.New(lvl)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// openStore returns the Redis store and locker when redis.addr is set and
// the file store otherwise, wrapped in the configured redaction and
// encryption. close releases the backend.
func openStore(ctx context.Context, cfg *config.Config) (ports.SnapshotStore, ports.DistributedLocker, func() error, error) {
	mws, err := storeMiddleware(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Redis.Addr == "" {
		store := middleware.Chain(file.NewStore(cfg.Sessions.Dir), mws...)
		return store, nil, func() error { return nil }, nil
	}

	var opts []redis.Option
	if cfg.Redis.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
	}
	if cfg.Redis.TTL > 0 {
		opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
	}
	store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	locker := redis.NewLocker(store.Client(), store.Prefix())
	return middleware.Chain(store, mws...), locker, store.Close, nil
}

// storeMiddleware masks before it encrypts so redacted values never reach
// the ciphertext.
func storeMiddleware(cfg *config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Sessions.Redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Sessions.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, fallback, err := cfg.Sessions.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// ResetSession clears the stored session so the next run starts fresh.
func ResetSession(ctx context.Context, cfg *config.Config, sessionID string) error {
	store, _, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return store.Delete(ctx, sessionID)
}

// isTerminal reports whether v is an interactive terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// createHandler picks the IO handler for a run. Terminals get glamour
// rendering sized to the window.
func createHandler(opts RunOptions, logger *slog.Logger) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.stdin(), opts.stdout())
	}
	var handlerOpts []runner.TextHandlerOption
	if f, ok := opts.stdout().(*os.File); ok && isTerminal(f) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			width = 0
		}
		if render, err := tui.NewRenderer(width); err == nil {
			handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(render))
		} else {
			logger.Warn("Markdown rendering disabled", "err", err)
		}
	}
	return runner.NewTextHandler(opts.stdin(), opts.stdout(), handlerOpts...)
}

// createRunnerOptions prepares the functional options for the Runner.
// Piped input and JSON mode reveal text at once.
func createRunnerOptions(opts RunOptions, logger *slog.Logger, handler runner.IOHandler, manager *session.Manager) []runner.Option {
	cfg := opts.Config
	headless := opts.JSON || !isTerminal(opts.stdin())
	ropts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHandler(handler),
		runner.WithHeadless(headless),
		runner.WithCPS(cfg.Typewriter.CPS),
		runner.WithTick(cfg.Tick),
	}
	if opts.SessionID != "" && manager != nil {
		ropts = append(ropts, runner.WithSession(manager, opts.SessionID))
	}
	return ropts
}
