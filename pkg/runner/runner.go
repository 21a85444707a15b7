package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/aretw0/mortar/pkg/session"
)

// Runner drives a dialogue from a terminal or a pipe. Each tick polls the
// engine, moves the typewriter cursor and emits a Frame when something changed.
type Runner struct {
	Handler   IOHandler
	Logger    *slog.Logger
	Renderer  ContentRenderer
	CPS       float64
	Tick      time.Duration
	Headless  bool
	Sessions  *session.Manager
	SessionID string

	key     string
	cursor  float64
	visible int
}

type commandResult struct {
	cmd Command
	err error
}

// NewRunner creates a runner. Without WithHandler it talks to stdin/stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
		CPS:    DefaultCPS,
		Tick:   DefaultTick,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		if r.Headless {
			r.Handler = NewJSONHandler(os.Stdin, os.Stdout)
		} else {
			r.Handler = NewTextHandler(os.Stdin, os.Stdout, WithTextHandlerRenderer(r.Renderer))
		}
	}
	return r
}

// Begin resumes the configured session when a snapshot exists and starts
// path/node otherwise.
func (r *Runner) Begin(ctx context.Context, d ports.Dialogue, path, node string) (bool, error) {
	if snap, ok := d.(session.Snapshotter); ok && r.Sessions != nil && r.SessionID != "" {
		err := r.Sessions.WithLock(ctx, r.SessionID, func(ctx context.Context) error {
			return r.Sessions.Resume(ctx, r.SessionID, snap)
		})
		switch {
		case err == nil:
			r.Logger.Info("Resumed session", "session_id", r.SessionID)
			return true, nil
		case !errors.Is(err, domain.ErrSessionNotFound):
			return false, err
		}
	}
	return false, d.Start(ctx, path, node)
}

// Run loops until the dialogue ends, input is exhausted or ctx is cancelled.
// An interrupted run keeps its session so it can be resumed.
func (r *Runner) Run(ctx context.Context, d ports.Dialogue) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()
	ctx = signals.Context()

	if done, err := r.Step(ctx, d, 0); err != nil || done {
		return err
	}

	inputs := r.pump(ctx)
	ticker := time.NewTicker(r.Tick)
	defer ticker.Stop()
	last := time.Now()

	for {
		var (
			done bool
			err  error
		)
		select {
		case <-ctx.Done():
			r.Logger.Info("Run interrupted", "session_id", r.SessionID)
			return r.persist(context.WithoutCancel(ctx), d)
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			done, err = r.Step(ctx, d, elapsed)
		case in, ok := <-inputs:
			if !ok {
				return r.persist(ctx, d)
			}
			if in.err != nil {
				if errors.Is(in.err, io.EOF) || signals.Interrupted() {
					r.Logger.Debug("Input closed", "err", in.err)
					return r.persist(context.WithoutCancel(ctx), d)
				}
				return fmt.Errorf("failed to read input: %w", in.err)
			}
			done, err = r.Apply(ctx, d, in.cmd)
		}
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *Runner) pump(ctx context.Context) <-chan commandResult {
	ch := make(chan commandResult)
	go func() {
		defer close(ch)
		for {
			cmd, err := r.Handler.Input(ctx)
			select {
			case ch <- commandResult{cmd: cmd, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// Step runs one fixed step: the typewriter cursor moves by CPS*elapsed, the
// engine is polled and a Frame is emitted if the view, the visible prefix or
// the dispatched actions changed. It reports true once the dialogue is over.
func (r *Runner) Step(ctx context.Context, d ports.Dialogue, elapsed time.Duration) (bool, error) {
	fresh := false
	if view, ok := d.Render(ctx); ok {
		fresh = r.track(view)
		typed := elapsed
		if fresh {
			typed = 0
		}
		r.reveal(d, view, typed)
	}

	actions := d.Poll(ctx, elapsed)
	view, ok := d.Render(ctx)
	if !ok {
		if len(actions) > 0 {
			if err := r.Handler.Output(ctx, Frame{Actions: actions}); err != nil {
				return true, err
			}
		}
		return true, nil
	}

	if r.track(view) {
		fresh = true
		r.reveal(d, view, 0)
	}
	visible := int(r.cursor)
	if !fresh && visible == r.visible && len(actions) == 0 {
		return false, nil
	}
	r.visible = visible
	return false, r.Handler.Output(ctx, Frame{View: view, Visible: visible, Fresh: fresh, Actions: actions})
}

// Apply executes one player command and steps once so its effect is shown.
func (r *Runner) Apply(ctx context.Context, d ports.Dialogue, cmd Command) (bool, error) {
	ended, err := r.apply(ctx, d, cmd)
	if err != nil {
		return true, err
	}
	done, err := r.Step(ctx, d, 0)
	if err != nil {
		return true, err
	}
	if err := r.persist(ctx, d); err != nil {
		return true, err
	}
	return ended || done, nil
}

func (r *Runner) apply(ctx context.Context, d ports.Dialogue, cmd Command) (bool, error) {
	switch cmd.Kind {
	case CommandQuit:
		d.Stop(ctx)
		return true, nil

	case CommandNext:
		view, ok := d.Render(ctx)
		if !ok {
			return true, nil
		}
		if total := float64(utf8.RuneCountInString(view.Body)); !view.Busy && r.cursor < total {
			r.cursor = total
			d.SetProgress(r.cursor)
			return false, nil
		}
		out := d.Advance(ctx)
		switch out.Kind {
		case domain.AdvanceEnded:
			return true, nil
		case domain.AdvanceWaitingOnChoice:
			return false, r.Handler.SystemOutput(ctx, "Choose an option: "+choiceHint(view.Choices))
		case domain.AdvanceBusy:
			return false, nil
		}
		r.key = ""
		return false, nil

	case CommandChoose:
		if err := d.Select(cmd.Index); err != nil {
			return false, r.Handler.SystemOutput(ctx, fmt.Sprintf("Option %d is not available", cmd.Index+1))
		}
		out, err := d.Confirm(ctx)
		if err != nil {
			return false, r.Handler.SystemOutput(ctx, err.Error())
		}
		if out.Kind == domain.ConfirmEnded {
			return true, nil
		}
		r.key = ""
		return false, nil
	}
	return false, nil
}

// track reports whether view differs from the one on screen and resets the
// typewriter when it does.
func (r *Runner) track(view domain.Rendered) bool {
	labels := make([]string, 0, len(view.Choices))
	for _, c := range view.Choices {
		labels = append(labels, c.Text)
	}
	key := fmt.Sprintf("%s\x00%s\x00%d\x00%t\x00%s\x00%s",
		view.Path, view.Node, view.TextIndex, view.Busy, view.Body, strings.Join(labels, "\x00"))
	if key == r.key {
		return false
	}
	r.key = key
	r.cursor = 0
	r.visible = -1
	return true
}

func (r *Runner) reveal(d ports.Dialogue, view domain.Rendered, elapsed time.Duration) {
	if view.Busy {
		return
	}
	total := float64(utf8.RuneCountInString(view.Body))
	if r.Headless || r.CPS <= 0 {
		r.cursor = total
	} else {
		r.cursor = min(r.cursor+r.CPS*elapsed.Seconds(), total)
	}
	d.SetProgress(r.cursor)
}

func (r *Runner) persist(ctx context.Context, d ports.Dialogue) error {
	if r.Sessions == nil || r.SessionID == "" {
		return nil
	}
	snap, ok := d.(session.Snapshotter)
	if !ok {
		return nil
	}
	err := r.Sessions.WithLock(ctx, r.SessionID, func(ctx context.Context) error {
		return r.Sessions.Persist(ctx, r.SessionID, snap)
	})
	if err != nil {
		return fmt.Errorf("failed to persist session %s: %w", r.SessionID, err)
	}
	return nil
}

func choiceHint(choices []domain.ChoiceView) string {
	var labels []string
	for i, c := range choices {
		if c.Enabled {
			labels = append(labels, fmt.Sprint(i+1))
		}
	}
	return strings.Join(labels, ", ")
}
