package runtime

import (
	"context"
	"strconv"

	"github.com/aretw0/mortar/pkg/domain"
)

// view is the rendered form of one text activation.
type view struct {
	session  string
	version  int
	rendered domain.Rendered
	tracker  *EventTracker
	// auto means the text is hidden and the engine advances past it.
	auto bool
}

// Render returns the current header, body, events and choices. The second
// return is false when no session is active. While a run sequence executes
// the body is empty and Busy is set.
func (e *Engine) Render(ctx context.Context) (domain.Rendered, bool) {
	if e.state == nil {
		return domain.Rendered{}, false
	}
	if e.seq.Executing() {
		return domain.Rendered{
			Path:      e.state.Path,
			Node:      e.state.Node.Name,
			TextIndex: e.state.TextIndex,
			Header:    e.header(e.state.Path, e.state.Node.Name),
			Selected:  -1,
			Busy:      true,
		}, true
	}
	e.refresh(ctx)
	if e.state == nil || e.view == nil {
		return domain.Rendered{}, false
	}
	out := e.view.rendered
	out.Events = domain.CloneEvents(out.Events)
	out.Choices = append([]domain.ChoiceView(nil), out.Choices...)
	return out, true
}

func (e *Engine) viewCurrent() bool {
	return e.view != nil && e.view.session == e.state.SessionID && e.view.version == e.state.Version()
}

// refresh activates the current text if needed and skips over hidden texts.
func (e *Engine) refresh(ctx context.Context) {
	for i := 0; i < maxAutoAdvance; i++ {
		if e.state == nil || e.seq.Executing() {
			return
		}
		if !e.viewCurrent() {
			e.view = e.activate()
			e.cursor = 0
		}
		if !e.view.auto {
			return
		}
		out := e.follow(ctx, e.state.Advance())
		if out.Kind == domain.AdvanceWaitingOnChoice {
			e.view.auto = false
			return
		}
	}
	e.logger.Warn("Too many hidden texts in a row", "node", e.state.Node.Name)
}

// activate runs the current text item exactly once: condition, assignments,
// interpolation and event remapping.
func (e *Engine) activate() *view {
	st := e.state
	v := &view{session: st.SessionID, version: st.Version()}
	r := domain.Rendered{
		Path:      st.Path,
		Node:      st.Node.Name,
		TextIndex: st.TextIndex,
		Header:    e.header(st.Path, st.Node.Name),
		Selected:  st.Selected(),
	}
	choicesShown := st.AtChoicePoint()
	if choicesShown {
		r.Choices = e.choiceViews()
	}

	item, contentIdx, ok := st.CurrentText()
	switch {
	case !ok:
		v.auto = !choicesShown
	case st.ChoiceBeforeText():
	case e.skipNextConditional && item.Condition != nil:
		e.skipNextConditional = false
		v.auto = !choicesShown
	case !e.vars.Evaluate(item.Condition, e.fns):
		e.skipNextConditional = false
		v.auto = !choicesShown
	default:
		e.skipNextConditional = false
		executed := e.vars.Execute(item.PreStatements)
		interp := e.vars.Interpolate(item, e.fns)
		if interp.Text == "" {
			if executed && item.Condition != nil {
				e.skipNextConditional = true
			}
			v.auto = !choicesShown
			break
		}
		events := e.vars.RemapEvents(item.Events, interp.IndexMap)
		events = append(events, interp.BranchEvents...)
		events = append(events, e.overrideEvents(contentIdx)...)
		v.tracker = NewEventTracker(events)
		r.Body = interp.Text
		r.Events = v.tracker.Events()
	}

	v.rendered = r
	return v
}

// overrideEvents turns a run_event pinned with index_override directly before
// the text into a text event.
func (e *Engine) overrideEvents(contentIdx int) []domain.Event {
	if contentIdx < 1 {
		return nil
	}
	prev := e.state.Node.Content[contentIdx-1]
	if prev.Type != domain.ContentRunEvent || prev.IndexOverride == nil {
		return nil
	}
	def, ok := e.program.EventDef(prev.Name)
	if !ok {
		e.vars.warnOnce("event", prev.Name, "Run target not found")
		return nil
	}

	var index float64
	if prev.IndexOverride.Type == "variable" {
		index, _ = e.vars.numberVariable(prev.IndexOverride.Value)
	} else if f, err := strconv.ParseFloat(prev.IndexOverride.Value, 64); err == nil {
		index = f
	}
	return []domain.Event{{Index: index, Actions: []domain.Action{def.Action.Clone()}}}
}

func (e *Engine) choiceViews() []domain.ChoiceView {
	choices := e.state.CurrentChoices()
	out := make([]domain.ChoiceView, 0, len(choices))
	for i, ch := range choices {
		out = append(out, domain.ChoiceView{
			Index:   i,
			Text:    ch.Text,
			Enabled: e.vars.Evaluate(ch.Condition, e.fns),
		})
	}
	return out
}
