package mortar

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/internal/runtime"
	"github.com/aretw0/mortar/pkg/adapters/file"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/aretw0/mortar/pkg/registry"
	"github.com/aretw0/mortar/pkg/value"
)

// Version is the library and CLI version. Release builds set it with -ldflags.
var Version = "0.1.0-dev"

// HeaderFunc formats the header shown above a node's text.
type HeaderFunc = runtime.HeaderFunc

// Engine is the high-level entry point for the Mortar library.
// It wraps the internal runtime and drives one dialogue session at a time.
// Engine is not safe for concurrent use; see pkg/session for serializing access.
type Engine struct {
	runtime  *runtime.Engine
	loader   ports.ProgramLoader
	registry *registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	header   HeaderFunc
	Name     string
}

var _ ports.Dialogue = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom ProgramLoader, bypassing the default file loader.
func WithLoader(l ports.ProgramLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithRegistry sets the host functions available to conditions and placeholders.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHeader overrides the "[path / node]" header.
func WithHeader(fn HeaderFunc) Option {
	return func(e *Engine) {
		e.header = fn
	}
}

// New initializes a new Mortar Engine.
// By default, programs are read from assetsDir with the file loader.
// If WithLoader is provided, assetsDir may be empty and only labels the engine.
func New(assetsDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if assetsDir == "" {
			return nil, fmt.Errorf("assetsDir is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(assetsDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)
		eng.loader = file.NewLoader(absPath)
	} else if assetsDir != "" {
		eng.Name = filepath.Base(assetsDir)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("assets", eng.Name)
	}

	eng.runtime = runtime.NewEngine(eng.loader,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithRegistry(eng.registry),
		runtime.WithHeader(eng.header),
	)
	return eng, nil
}

// Start begins a session at node in the program at path.
// It returns a *domain.NotFoundError when the program or node is unknown;
// an unknown program is retried on every Poll until Stop.
func (e *Engine) Start(ctx context.Context, path, node string) error {
	return e.runtime.Start(ctx, path, node)
}

// Advance moves past the current text.
func (e *Engine) Advance(ctx context.Context) domain.AdvanceOutcome {
	return e.runtime.Advance(ctx)
}

// Select highlights a choice of the current level without confirming it.
func (e *Engine) Select(index int) error {
	return e.runtime.Select(index)
}

// Confirm resolves the selected choice.
func (e *Engine) Confirm(ctx context.Context) (domain.ConfirmOutcome, error) {
	return e.runtime.Confirm(ctx)
}

// Stop ends the session and cancels pending runs and starts.
func (e *Engine) Stop(ctx context.Context) {
	e.runtime.Stop(ctx)
}

// Render returns what the host should display now.
func (e *Engine) Render(ctx context.Context) (domain.Rendered, bool) {
	return e.runtime.Render(ctx)
}

// SetProgress reports how many characters of the body are visible.
func (e *Engine) SetProgress(cursor float64) {
	e.runtime.SetProgress(cursor)
}

// Replay rewinds the current text so its events fire again as the cursor
// moves. It reports false when nothing is displayed.
func (e *Engine) Replay() bool {
	return e.runtime.Replay()
}

// Poll advances time by elapsed and returns the actions due.
func (e *Engine) Poll(ctx context.Context, elapsed time.Duration) []domain.DispatchedAction {
	return e.runtime.Poll(ctx, elapsed)
}

// Active reports whether a session is running.
func (e *Engine) Active() bool {
	return e.runtime.Active()
}

// Variable reads a session variable.
func (e *Engine) Variable(name string) (value.Value, bool) {
	return e.runtime.Variable(name)
}

// SetVariable writes a session variable.
func (e *Engine) SetVariable(name string, v value.Value) {
	e.runtime.SetVariable(name, v)
}

// Snapshot captures the session for persistence.
func (e *Engine) Snapshot() (*domain.Snapshot, error) {
	return e.runtime.Snapshot()
}

// Restore replaces the current session with a persisted one.
func (e *Engine) Restore(ctx context.Context, snap *domain.Snapshot) error {
	return e.runtime.Restore(ctx, snap)
}

// Loader returns the ProgramLoader used by the engine.
func (e *Engine) Loader() ports.ProgramLoader {
	return e.loader
}
