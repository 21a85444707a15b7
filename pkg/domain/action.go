package domain

// ActionSource tells the host where a dispatched action came from.
type ActionSource string

const (
	// SourceRun marks actions dispatched by the run/timeline sequencer.
	SourceRun ActionSource = "run"
	// SourceText marks actions fired by the progress cursor crossing a text event.
	SourceText ActionSource = "text"
)

// DispatchedAction is what the host realises: play a sound, shake the camera...
// The runtime never interprets Name or Args.
type DispatchedAction struct {
	Name   string       `json:"name"`
	Args   []string     `json:"args,omitempty"`
	Source ActionSource `json:"source"`
	Node   string       `json:"node,omitempty"`
}

// AdvanceKind is the result category of an advance request.
type AdvanceKind int

const (
	// AdvanceEnded means the session is over (no successor, or "return").
	AdvanceEnded AdvanceKind = iota
	// Advanced means a new text item is current.
	Advanced
	// AdvanceWaitingOnChoice means choices must be resolved before moving on.
	AdvanceWaitingOnChoice
	// AdvanceJump means the session moved to another node.
	AdvanceJump
	// AdvanceBusy means a run sequence is executing and text is gated.
	AdvanceBusy
)

func (k AdvanceKind) String() string {
	switch k {
	case Advanced:
		return "advanced"
	case AdvanceWaitingOnChoice:
		return "waiting_on_choice"
	case AdvanceJump:
		return "jump"
	case AdvanceBusy:
		return "busy"
	default:
		return "ended"
	}
}

// AdvanceOutcome reports what advance did. Node is set for jumps.
type AdvanceOutcome struct {
	Kind AdvanceKind `json:"kind"`
	Node string      `json:"node,omitempty"`
}

// ConfirmKind is the result category of confirming a choice.
type ConfirmKind int

const (
	// ConfirmEnded means the choice ended the session.
	ConfirmEnded ConfirmKind = iota
	// ConfirmNested means a nested choice level is now displayed.
	ConfirmNested
	// ConfirmJump means the session moved to another node.
	ConfirmJump
	// ConfirmContinued means a break resumed the node's remaining text.
	ConfirmContinued
)

func (k ConfirmKind) String() string {
	switch k {
	case ConfirmNested:
		return "nested"
	case ConfirmJump:
		return "jump"
	case ConfirmContinued:
		return "continued"
	default:
		return "ended"
	}
}

// ConfirmOutcome reports what a confirmed choice did.
type ConfirmOutcome struct {
	Kind ConfirmKind `json:"kind"`
	Node string      `json:"node,omitempty"`
}

// ChoiceView is a choice option as presented to the player.
type ChoiceView struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

// Rendered is the presentation-ready view of the current text.
// Events are expressed in rendered-text coordinates.
type Rendered struct {
	Path      string       `json:"path"`
	Node      string       `json:"node"`
	TextIndex int          `json:"text_index"`
	Header    string       `json:"header"`
	Body      string       `json:"body"`
	Events    []Event      `json:"events,omitempty"`
	Choices   []ChoiceView `json:"choices,omitempty"`
	// Selected is the pending selection awaiting confirmation, or -1.
	Selected int `json:"selected"`
	// Busy is true while a run sequence gates text.
	Busy bool `json:"busy,omitempty"`
}
