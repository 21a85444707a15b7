package dsl

import "github.com/aretw0/mortar/pkg/domain"

// Option is a choice that jumps to next ("" ends the dialogue).
func Option(text, next string) domain.Choice {
	return domain.Choice{Text: text, Next: next}
}

// Break is a choice that leaves the choice block and resumes the node.
func Break(text string) domain.Choice {
	return domain.Choice{Text: text, Action: domain.ChoiceActionBreak}
}

// Return is a choice that ends the dialogue.
func Return(text string) domain.Choice {
	return domain.Choice{Text: text, Action: domain.ChoiceActionReturn}
}

// Nested is a choice that opens a nested choice level.
func Nested(text string, options ...domain.Choice) domain.Choice {
	return domain.Choice{Text: text, Choice: options}
}

// If guards a choice with a condition.
func If(cond *domain.Condition, c domain.Choice) domain.Choice {
	c.Condition = cond
	return c
}

// Ident references a variable.
func Ident(name string) *domain.Condition {
	return &domain.Condition{Type: domain.ConditionIdentifier, Value: name}
}

// Lit is a literal operand.
func Lit(raw string) *domain.Condition {
	return &domain.Condition{Type: domain.ConditionLiteral, Value: raw}
}

// Member is an enum member operand such as "Mood.Happy".
func Member(raw string) *domain.Condition {
	return &domain.Condition{Type: domain.ConditionEnumMember, Value: raw}
}

// Cmp is a binary expression.
func Cmp(left *domain.Condition, op string, right *domain.Condition) *domain.Condition {
	return &domain.Condition{Type: domain.ConditionBinary, Operator: op, Left: left, Right: right}
}

// Not negates an expression.
func Not(operand *domain.Condition) *domain.Condition {
	return &domain.Condition{Type: domain.ConditionUnary, Operator: "!", Operand: operand}
}

// Call is a function-call expression.
func Call(fn string, args ...string) *domain.Condition {
	return &domain.Condition{Type: domain.ConditionFuncCall, FunctionName: fn, Args: args}
}
