package dsl

import (
	"strings"

	"github.com/aretw0/mortar/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
// Modifiers such as When, Assign and At apply to the most recent text.
type NodeBuilder struct {
	node     domain.Node
	lastText int
}

// Text appends a text item. "{name}" and "{fn(a, b)}" become placeholders.
func (n *NodeBuilder) Text(content string) *NodeBuilder {
	item := domain.ContentItem{Type: domain.ContentText, Value: content}
	if parts := Segment(content); hasPlaceholder(parts) {
		item.InterpolatedParts = parts
	}
	n.node.Content = append(n.node.Content, item)
	n.lastText = len(n.node.Content) - 1
	return n
}

func (n *NodeBuilder) current() *domain.ContentItem {
	if len(n.node.Content) == 0 || n.node.Content[n.lastText].Type != domain.ContentText {
		panic("dsl: modifier used before Text")
	}
	return &n.node.Content[n.lastText]
}

// When guards the most recent text with a condition.
func (n *NodeBuilder) When(cond *domain.Condition) *NodeBuilder {
	n.current().Condition = cond
	return n
}

// Assign adds an assignment executed when the most recent text activates.
func (n *NodeBuilder) Assign(variable, value string) *NodeBuilder {
	item := n.current()
	item.PreStatements = append(item.PreStatements, domain.Statement{
		Type:     domain.StatementAssign,
		Variable: variable,
		Value:    value,
	})
	return n
}

// At binds an action to a source character index of the most recent text.
func (n *NodeBuilder) At(index float64, action string, args ...string) *NodeBuilder {
	item := n.current()
	item.Events = append(item.Events, domain.Event{
		Index:   index,
		Actions: []domain.Action{{Type: action, Args: args}},
	})
	return n
}

// AtVar binds an action to the index held by a Number variable.
func (n *NodeBuilder) AtVar(variable, action string, args ...string) *NodeBuilder {
	item := n.current()
	item.Events = append(item.Events, domain.Event{
		IndexVariable: variable,
		Actions:       []domain.Action{{Type: action, Args: args}},
	})
	return n
}

// RunEvent appends a run_event item.
func (n *NodeBuilder) RunEvent(name string) *NodeBuilder {
	n.node.Content = append(n.node.Content, domain.ContentItem{Type: domain.ContentRunEvent, Name: name})
	return n
}

// RunEventNow appends a run_event item flagged ignore_duration.
func (n *NodeBuilder) RunEventNow(name string) *NodeBuilder {
	n.node.Content = append(n.node.Content, domain.ContentItem{Type: domain.ContentRunEvent, Name: name, IgnoreDuration: true})
	return n
}

// RunEventAt appends a run_event pinned to a position of the following text.
// kind is "value" or "variable".
func (n *NodeBuilder) RunEventAt(name, kind, at string) *NodeBuilder {
	n.node.Content = append(n.node.Content, domain.ContentItem{
		Type:          domain.ContentRunEvent,
		Name:          name,
		IndexOverride: &domain.IndexOverride{Type: kind, Value: at},
	})
	return n
}

// RunTimeline appends a run_timeline item.
func (n *NodeBuilder) RunTimeline(name string) *NodeBuilder {
	n.node.Content = append(n.node.Content, domain.ContentItem{Type: domain.ContentRunTimeline, Name: name})
	return n
}

// Choice appends a choice item.
func (n *NodeBuilder) Choice(options ...domain.Choice) *NodeBuilder {
	n.node.Content = append(n.node.Content, domain.ContentItem{Type: domain.ContentChoice, Options: options})
	return n
}

// Go sets the successor node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.node.Next = target
	return n
}

// Terminal marks the node as the end of the dialogue.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.node.Next = ""
	return n
}

// Build returns a copy of the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}

// Segment splits a template into text and placeholder parts. Unclosed
// braces are kept as text.
func Segment(s string) []domain.StringPart {
	var parts []domain.StringPart
	for s != "" {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			break
		}
		if open > 0 {
			parts = append(parts, domain.StringPart{Type: domain.PartText, Content: s[:open]})
		}
		parts = append(parts, placeholder(s[open:open+end+1]))
		s = s[open+end+1:]
	}
	if s != "" {
		parts = append(parts, domain.StringPart{Type: domain.PartText, Content: s})
	}
	return parts
}

func placeholder(content string) domain.StringPart {
	part := domain.StringPart{Type: domain.PartPlaceholder, Content: content}
	inner := strings.TrimSpace(content[1 : len(content)-1])
	open := strings.IndexByte(inner, '(')
	if open <= 0 || !strings.HasSuffix(inner, ")") {
		return part
	}
	part.FunctionName = strings.TrimSpace(inner[:open])
	for _, arg := range strings.Split(inner[open+1:len(inner)-1], ",") {
		if arg = strings.TrimSpace(arg); arg != "" {
			part.Args = append(part.Args, arg)
		}
	}
	return part
}

func hasPlaceholder(parts []domain.StringPart) bool {
	for _, p := range parts {
		if p.Type == domain.PartPlaceholder {
			return true
		}
	}
	return false
}
