package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventAction    EventType = "action"
	EventChoice    EventType = "choice"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	Path string `json:"path"`
	Node string `json:"node"`
}

// ActionEvent represents an action handed to the host.
type ActionEvent struct {
	EventBase
	Node   string       `json:"node"`
	Name   string       `json:"name"`
	Args   []string     `json:"args,omitempty"`
	Source ActionSource `json:"source"`
}

// ChoiceEvent represents a confirmed choice.
type ChoiceEvent struct {
	EventBase
	Node    string      `json:"node"`
	Index   int         `json:"index"`
	Text    string      `json:"text"`
	Outcome ConfirmKind `json:"outcome"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnAction    func(context.Context, *ActionEvent)
	OnChoice    func(context.Context, *ChoiceEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave: chain(h.OnNodeLeave, other.OnNodeLeave),
		OnAction:    chain(h.OnAction, other.OnAction),
		OnChoice:    chain(h.OnChoice, other.OnChoice),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e T) {
		a(ctx, e)
		b(ctx, e)
	}
}
