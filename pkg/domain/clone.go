package domain

// Clone returns a deep copy of the node so a session can keep it while the
// program is reloaded underneath.
func (n Node) Clone() Node {
	out := Node{Name: n.Name, Next: n.Next}
	if n.Content != nil {
		out.Content = make([]ContentItem, len(n.Content))
		for i, item := range n.Content {
			out.Content[i] = item.clone()
		}
	}
	return out
}

func (c ContentItem) clone() ContentItem {
	out := c
	out.InterpolatedParts = cloneParts(c.InterpolatedParts)
	out.Condition = c.Condition.Clone()
	if c.PreStatements != nil {
		out.PreStatements = append([]Statement(nil), c.PreStatements...)
	}
	out.Events = CloneEvents(c.Events)
	out.Options = cloneChoices(c.Options)
	if c.IndexOverride != nil {
		override := *c.IndexOverride
		out.IndexOverride = &override
	}
	return out
}

// Clone deep-copies a condition tree. A nil receiver yields nil.
func (c *Condition) Clone() *Condition {
	if c == nil {
		return nil
	}
	out := *c
	out.Left = c.Left.Clone()
	out.Right = c.Right.Clone()
	out.Operand = c.Operand.Clone()
	if c.Args != nil {
		out.Args = append([]string(nil), c.Args...)
	}
	return &out
}

// CloneEvents deep-copies an event list, including action arguments.
func CloneEvents(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = e
		out[i].Actions = make([]Action, len(e.Actions))
		for j, a := range e.Actions {
			out[i].Actions[j] = a.Clone()
		}
	}
	return out
}

// Clone copies the action and its arguments.
func (a Action) Clone() Action {
	out := a
	if a.Args != nil {
		out.Args = append([]string(nil), a.Args...)
	}
	return out
}

func cloneParts(parts []StringPart) []StringPart {
	if parts == nil {
		return nil
	}
	out := make([]StringPart, len(parts))
	for i, p := range parts {
		out[i] = p
		if p.Args != nil {
			out[i].Args = append([]string(nil), p.Args...)
		}
	}
	return out
}

func cloneChoices(choices []Choice) []Choice {
	if choices == nil {
		return nil
	}
	out := make([]Choice, len(choices))
	for i, ch := range choices {
		out[i] = ch
		out[i].Condition = ch.Condition.Clone()
		out[i].Choice = cloneChoices(ch.Choice)
	}
	return out
}
