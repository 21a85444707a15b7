package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/aretw0/mortar/pkg/registry"
	"github.com/aretw0/mortar/pkg/value"
)

// maxAutoAdvance bounds how many hidden texts are skipped in one refresh.
const maxAutoAdvance = 256

// HeaderFunc formats the header shown above a node's text.
type HeaderFunc func(path, node string) string

// DefaultHeader renders "[path / node]" followed by a blank line.
func DefaultHeader(path, node string) string {
	return fmt.Sprintf("[%s / %s]\n\n", path, node)
}

// Engine drives a single dialogue session. It is not safe for concurrent
// use: the host serializes navigation calls.
type Engine struct {
	loader ports.ProgramLoader
	fns    *registry.Registry
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	header HeaderFunc

	program *domain.Program
	state   *DialogueState
	vars    *Variables
	seq     *Sequencer
	view    *view
	cursor  float64
	outbox  []domain.DispatchedAction

	pendingStart        *startRequest
	skipNextConditional bool
	announced           map[string]bool
}

type startRequest struct {
	path string
	node string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRegistry sets the host function registry used by conditions and placeholders.
func WithRegistry(fns *registry.Registry) EngineOption {
	return func(e *Engine) {
		if fns != nil {
			e.fns = fns
		}
	}
}

// WithHeader overrides the header format.
func WithHeader(fn HeaderFunc) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.header = fn
		}
	}
}

// NewEngine creates an idle engine reading programs from loader.
func NewEngine(loader ports.ProgramLoader, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:    loader,
		fns:       registry.New(),
		logger:    logging.NewNop(),
		header:    DefaultHeader,
		announced: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.seq = NewSequencer(e.logger)
	return e
}

// Start begins a session at node in the program at path. When the loader
// does not know the program yet, the request is remembered and retried on
// every Poll until it succeeds or Stop is called. An unknown node leaves the
// current session untouched.
func (e *Engine) Start(ctx context.Context, path, node string) error {
	return e.start(ctx, path, node, false)
}

func (e *Engine) start(ctx context.Context, path, node string, retry bool) error {
	e.pendingStart = nil

	program, err := e.loader.Load(ctx, path)
	if err != nil {
		if !errors.Is(err, domain.ErrProgramNotFound) {
			e.logger.Warn("Failed to load program", "path", path, "err", err)
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		e.pendingStart = &startRequest{path: path, node: node}
		if !retry {
			e.logger.Warn("Program not available, start deferred", "path", path, "node", node)
		}
		return &domain.NotFoundError{Path: path, Node: node, Err: err}
	}

	n, ok := program.Node(node)
	if !ok {
		e.logger.Warn("Start node not found", "path", path, "node", node)
		return &domain.NotFoundError{Path: path, Node: node, Err: domain.ErrNodeNotFound}
	}

	keepVars := e.state != nil && e.state.Path == path
	e.enter(ctx, program, path, *n, keepVars)
	return nil
}

func (e *Engine) enter(ctx context.Context, program *domain.Program, path string, node domain.Node, keepVars bool) {
	if e.state != nil {
		e.leave(ctx)
	}
	e.seq.Cancel()
	e.program = program
	if e.vars == nil || !keepVars {
		e.vars = NewVariables(program, e.logger)
	}
	e.announceConstants(program, path)

	e.state = NewDialogueState(path, node)
	e.view = nil
	e.cursor = 0
	e.skipNextConditional = false

	e.logger.Debug("Entering node", "path", path, "node", node.Name, "session_id", e.state.SessionID)
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: e.eventBase(domain.EventNodeEnter),
			Path:      path,
			Node:      node.Name,
		})
	}
	e.flushRuns(ctx)
}

func (e *Engine) leave(ctx context.Context) {
	if e.hooks.OnNodeLeave != nil {
		e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			EventBase: e.eventBase(domain.EventNodeLeave),
			Path:      e.state.Path,
			Node:      e.state.Node.Name,
		})
	}
}

// end closes the session; variables do not survive it.
func (e *Engine) end(ctx context.Context) {
	if e.state == nil {
		return
	}
	e.leave(ctx)
	e.logger.Debug("Dialogue ended", "path", e.state.Path, "node", e.state.Node.Name)
	e.state = nil
	e.vars = nil
	e.view = nil
	e.seq.Cancel()
	e.skipNextConditional = false
}

// jump replaces the session with node in the same program. The program is
// reloaded so hot-swapped content is picked up.
func (e *Engine) jump(ctx context.Context, node string) domain.AdvanceOutcome {
	path := e.state.Path
	program := e.program
	if fresh, err := e.loader.Load(ctx, path); err == nil {
		program = fresh
	}
	n, ok := program.Node(node)
	if !ok {
		e.logger.Warn("Jump target not found, ending dialogue", "path", path, "node", node)
		e.end(ctx)
		return domain.AdvanceOutcome{Kind: domain.AdvanceEnded}
	}
	e.enter(ctx, program, path, *n, true)
	return domain.AdvanceOutcome{Kind: domain.AdvanceJump, Node: node}
}

// Stop ends the session and forgets any deferred start.
func (e *Engine) Stop(ctx context.Context) {
	e.pendingStart = nil
	e.end(ctx)
	e.seq.Cancel()
}

// Active reports whether a session is running.
func (e *Engine) Active() bool {
	return e.state != nil
}

// Advance requests the next text.
func (e *Engine) Advance(ctx context.Context) domain.AdvanceOutcome {
	if e.state == nil {
		e.logger.Debug("Advance without active dialogue")
		return domain.AdvanceOutcome{Kind: domain.AdvanceEnded}
	}
	if e.seq.Executing() {
		return domain.AdvanceOutcome{Kind: domain.AdvanceBusy}
	}
	return e.follow(ctx, e.state.Advance())
}

// follow applies the side effects of a navigation outcome.
func (e *Engine) follow(ctx context.Context, out domain.AdvanceOutcome) domain.AdvanceOutcome {
	switch out.Kind {
	case domain.Advanced:
		e.flushRuns(ctx)
	case domain.AdvanceJump:
		return e.jump(ctx, out.Node)
	case domain.AdvanceEnded:
		e.end(ctx)
	}
	return out
}

// Select marks a choice for confirmation.
func (e *Engine) Select(index int) error {
	if e.state == nil {
		return domain.ErrNoSession
	}
	if e.seq.Executing() {
		e.logger.Debug("Select while a run sequence executes", "index", index)
		return domain.ErrBusy
	}
	if !e.state.AtChoicePoint() {
		e.logger.Warn("Select while no choices are shown", "index", index)
		return fmt.Errorf("%w: no choices shown", domain.ErrInvalidSelection)
	}
	choices := e.state.CurrentChoices()
	if index >= 0 && index < len(choices) && !e.vars.Evaluate(choices[index].Condition, e.fns) {
		e.logger.Warn("Selected choice is disabled", "index", index)
		return fmt.Errorf("%w: choice %d is disabled", domain.ErrInvalidSelection, index)
	}
	if err := e.state.Select(index); err != nil {
		e.logger.Warn("Invalid choice selection", "index", index, "err", err)
		return err
	}
	if e.view != nil {
		e.view.rendered.Selected = index
	}
	return nil
}

// Confirm commits the selected choice.
func (e *Engine) Confirm(ctx context.Context) (domain.ConfirmOutcome, error) {
	if e.state == nil {
		return domain.ConfirmOutcome{}, domain.ErrNoSession
	}
	if e.seq.Executing() {
		e.logger.Debug("Confirm while a run sequence executes")
		return domain.ConfirmOutcome{}, domain.ErrBusy
	}
	node := e.state.Node.Name
	res, err := e.state.Confirm()
	if err != nil {
		e.logger.Warn("Confirm failed", "node", node, "err", err)
		return domain.ConfirmOutcome{}, err
	}

	var out domain.ConfirmOutcome
	switch res.Kind {
	case ResolveReturn, ResolveEnd:
		e.end(ctx)
		out = domain.ConfirmOutcome{Kind: domain.ConfirmEnded}
	case ResolveBreak:
		out = confirmFromAdvance(e.follow(ctx, res.Advance))
	case ResolveNested:
		if e.view != nil {
			e.view.rendered.Choices = e.choiceViews()
			e.view.rendered.Selected = -1
		}
		out = domain.ConfirmOutcome{Kind: domain.ConfirmNested}
	case ResolveNext:
		out = confirmFromAdvance(e.jump(ctx, res.Node))
	}

	if e.hooks.OnChoice != nil {
		e.hooks.OnChoice(ctx, &domain.ChoiceEvent{
			EventBase: e.eventBase(domain.EventChoice),
			Node:      node,
			Index:     res.Index,
			Text:      res.Choice.Text,
			Outcome:   out.Kind,
		})
	}
	return out, nil
}

func confirmFromAdvance(out domain.AdvanceOutcome) domain.ConfirmOutcome {
	switch out.Kind {
	case domain.AdvanceJump:
		return domain.ConfirmOutcome{Kind: domain.ConfirmJump, Node: out.Node}
	case domain.AdvanceEnded:
		return domain.ConfirmOutcome{Kind: domain.ConfirmEnded}
	default:
		return domain.ConfirmOutcome{Kind: domain.ConfirmContinued}
	}
}

// Replay rewinds the current text so the host can reveal it again: the
// cursor returns to zero and its text events may fire once more. Assignments
// of the text are not re-run.
func (e *Engine) Replay() bool {
	if e.state == nil || e.seq.Executing() || !e.viewCurrent() || e.view.tracker == nil {
		return false
	}
	e.view.tracker.Reset()
	e.cursor = 0
	e.logger.Debug("Replaying text", "node", e.state.Node.Name, "text_index", e.state.TextIndex)
	return true
}

// SetProgress moves the progress cursor (e.g. characters revealed so far).
// Text events at or before the cursor fire on the next Poll.
func (e *Engine) SetProgress(cursor float64) {
	e.cursor = cursor
}

// Poll advances pacing by elapsed and returns every action due now: run
// sequence steps first, then text events crossed by the progress cursor.
func (e *Engine) Poll(ctx context.Context, elapsed time.Duration) []domain.DispatchedAction {
	if req := e.pendingStart; req != nil {
		_ = e.start(ctx, req.path, req.node, true)
	}

	if e.state != nil {
		e.emit(ctx, e.seq.Tick(e.state.SessionID, elapsed))
		if !e.seq.Executing() {
			e.flushRuns(ctx)
		}
		e.refresh(ctx)
		if e.state != nil && e.view != nil && e.view.tracker != nil && !e.seq.Executing() {
			e.emitText(ctx, e.view.tracker.TriggerAt(e.cursor))
		}
	}

	out := e.outbox
	e.outbox = nil
	return out
}

// flushRuns schedules the run items waiting after the last text advance.
func (e *Engine) flushRuns(ctx context.Context) {
	if e.state == nil {
		return
	}
	pos, ok := e.state.TakePendingRun()
	if !ok {
		return
	}
	var items []domain.ContentItem
	for _, idx := range e.state.CollectRuns(pos) {
		if e.state.MarkExecuted(idx) {
			items = append(items, e.state.Node.Content[idx])
		}
	}
	if len(items) == 0 {
		return
	}
	e.emit(ctx, e.seq.Schedule(e.state.SessionID, e.program, e.state.Node.Name, items))
}

func (e *Engine) emit(ctx context.Context, actions []domain.DispatchedAction) {
	for _, a := range actions {
		e.outbox = append(e.outbox, a)
		if e.hooks.OnAction != nil {
			e.hooks.OnAction(ctx, &domain.ActionEvent{
				EventBase: e.eventBase(domain.EventAction),
				Node:      a.Node,
				Name:      a.Name,
				Args:      a.Args,
				Source:    a.Source,
			})
		}
	}
}

func (e *Engine) emitText(ctx context.Context, actions []domain.Action) {
	if len(actions) == 0 {
		return
	}
	out := make([]domain.DispatchedAction, 0, len(actions))
	for _, a := range actions {
		out = append(out, domain.DispatchedAction{
			Name:   a.Type,
			Args:   unquoteArgs(a.Args),
			Source: domain.SourceText,
			Node:   e.state.Node.Name,
		})
	}
	e.emit(ctx, out)
}

func (e *Engine) eventBase(t domain.EventType) domain.EventBase {
	base := domain.EventBase{Timestamp: time.Now(), Type: t}
	if e.state != nil {
		base.SessionID = e.state.SessionID
	}
	return base
}

func (e *Engine) announceConstants(program *domain.Program, path string) {
	if e.announced[path] {
		return
	}
	e.announced[path] = true
	for _, c := range program.Constants {
		if c.Public {
			e.logger.Info("Public constant", "path", path, "name", c.Name, "type", c.Type, "value", c.Value)
		}
	}
}

// Variable reads a session variable.
func (e *Engine) Variable(name string) (value.Value, bool) {
	if e.vars == nil {
		return nil, false
	}
	return e.vars.Get(name)
}

// SetVariable writes a session variable. It has no effect without a session.
func (e *Engine) SetVariable(name string, v value.Value) {
	if e.vars == nil {
		return
	}
	e.vars.Set(name, v)
}

// Snapshot captures the session for persistence.
func (e *Engine) Snapshot() (*domain.Snapshot, error) {
	if e.state == nil {
		return nil, domain.ErrNoSession
	}
	snap := e.state.Snapshot()
	snap.Variables = e.vars.Snapshot()
	return &snap, nil
}

// Restore replaces the current session with a persisted one.
func (e *Engine) Restore(ctx context.Context, snap *domain.Snapshot) error {
	program, err := e.loader.Load(ctx, snap.Path)
	if err != nil {
		return &domain.NotFoundError{Path: snap.Path, Node: snap.Node, Err: err}
	}
	n, ok := program.Node(snap.Node)
	if !ok {
		return &domain.NotFoundError{Path: snap.Path, Node: snap.Node, Err: domain.ErrNodeNotFound}
	}

	if e.state != nil {
		e.leave(ctx)
	}
	e.pendingStart = nil
	e.seq.Cancel()
	e.program = program
	e.vars = NewVariables(program, e.logger)
	e.vars.Restore(snap.Variables)
	e.state = RestoreDialogueState(*snap, *n)
	e.view = nil
	e.cursor = 0
	e.skipNextConditional = false

	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: e.eventBase(domain.EventNodeEnter),
			Path:      snap.Path,
			Node:      snap.Node,
		})
	}
	return nil
}
