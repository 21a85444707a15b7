package runtime

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/pkg/domain"
)

// step is one entry of a flattened run sequence. Actions are copied from the
// program when the sequence is built, so a reload cannot change a running one.
type step struct {
	name     string
	wait     bool
	action   domain.Action
	duration time.Duration
	ignore   bool
}

// pendingRun is a sequence waiting for its pacing delay to elapse.
type pendingRun struct {
	session   string
	node      string
	steps     []step
	remaining time.Duration
}

// Sequencer paces run items and timelines across polls. It never owns a
// timer: the host feeds it elapsed time.
type Sequencer struct {
	pending *pendingRun
	logger  *slog.Logger
}

// NewSequencer creates an idle sequencer.
func NewSequencer(logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sequencer{logger: logger}
}

// Executing reports whether a sequence is waiting to resume. Text is gated
// while it is true.
func (s *Sequencer) Executing() bool {
	return s.pending != nil
}

// Cancel drops any in-flight sequence.
func (s *Sequencer) Cancel() {
	s.pending = nil
}

// Schedule flattens the run items into one sequence, dispatches everything
// due immediately, and keeps the rest pending for session. Any previous
// sequence is replaced.
func (s *Sequencer) Schedule(session string, program *domain.Program, node string, items []domain.ContentItem) []domain.DispatchedAction {
	steps := s.flatten(program, items)
	if len(steps) == 0 {
		return nil
	}
	p := &pendingRun{session: session, node: node, steps: steps}
	s.pending = nil
	return s.drain(p)
}

// Tick advances the pending sequence by elapsed. A sequence scheduled for a
// different session is stale and discarded without dispatching.
func (s *Sequencer) Tick(session string, elapsed time.Duration) []domain.DispatchedAction {
	p := s.pending
	if p == nil {
		return nil
	}
	if p.session != session {
		s.logger.Debug("Discarding stale run sequence", "session_id", p.session)
		s.pending = nil
		return nil
	}
	p.remaining -= elapsed
	if p.remaining > 0 {
		return nil
	}
	s.pending = nil
	return s.drain(p)
}

// drain dispatches the head of p and every following step reachable without
// a delay, parking p when a positive delay is needed.
func (s *Sequencer) drain(p *pendingRun) []domain.DispatchedAction {
	var out []domain.DispatchedAction
	for len(p.steps) > 0 {
		head := p.steps[0]
		if !head.wait {
			out = append(out, domain.DispatchedAction{
				Name:   head.action.Type,
				Args:   unquoteArgs(head.action.Args),
				Source: domain.SourceRun,
				Node:   p.node,
			})
		}
		rest := p.steps[1:]
		if len(rest) == 0 {
			break
		}
		p.steps = rest
		if delay := pacing(head, rest[0]); delay > 0 {
			p.remaining = delay
			s.pending = p
			return out
		}
	}
	return out
}

// pacing is the delay between head and next. A wait contributes its own
// duration; a step flagged ignore_duration neither waits nor is waited for.
func pacing(head, next step) time.Duration {
	switch {
	case head.wait:
		return head.duration
	case head.ignore, next.ignore:
		return 0
	default:
		return head.duration
	}
}

// flatten expands run items into steps. A run_event that names a timeline,
// or a run_timeline that names an event, still resolves.
func (s *Sequencer) flatten(program *domain.Program, items []domain.ContentItem) []step {
	var steps []step
	for _, item := range items {
		st, isEvent := s.eventStep(program, item.Name, item.IgnoreDuration)
		tl, isTimeline := program.Timeline(item.Name)
		switch {
		case isEvent && (item.Type == domain.ContentRunEvent || !isTimeline):
			steps = append(steps, st)
		case isTimeline:
			steps = append(steps, s.timelineSteps(program, tl)...)
		default:
			s.logger.Warn("Run target not found", "name", item.Name)
		}
	}
	return steps
}

func (s *Sequencer) timelineSteps(program *domain.Program, tl *domain.TimelineDef) []step {
	var steps []step
	for _, stmt := range tl.Statements {
		switch stmt.Type {
		case domain.TimelineRun:
			st, ok := s.eventStep(program, stmt.EventName, stmt.IgnoreDuration)
			if !ok {
				s.logger.Warn("Timeline event not found", "timeline", tl.Name, "name", stmt.EventName)
				continue
			}
			steps = append(steps, st)
		case domain.TimelineWait:
			if stmt.Duration == nil {
				continue
			}
			steps = append(steps, step{name: "wait", wait: true, duration: seconds(*stmt.Duration)})
		}
	}
	return steps
}

// eventStep paces a run with the event's declared duration unless the step
// ignores it.
func (s *Sequencer) eventStep(program *domain.Program, name string, ignore bool) (step, bool) {
	def, ok := program.EventDef(name)
	if !ok {
		return step{}, false
	}
	st := step{name: name, action: def.Action.Clone(), ignore: ignore}
	if !ignore && def.Duration != nil {
		st.duration = seconds(*def.Duration)
	}
	return st, true
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}

// unquoteArgs strips the double quotes string literals keep in compiled actions.
func unquoteArgs(args []string) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.Trim(a, `"`)
	}
	return out
}
