package runtime

import (
	"math"
	"strconv"

	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/registry"
	"github.com/aretw0/mortar/pkg/value"
)

// epsilon is the tolerance for numeric equality.
const epsilon = 1e-9

// Evaluate reduces a condition tree to a boolean. It never fails: every
// unresolved name or type mismatch logs once and evaluates to false.
// A nil condition is true.
func (v *Variables) Evaluate(cond *domain.Condition, fns *registry.Registry) bool {
	if cond == nil {
		return true
	}

	switch cond.Type {
	case domain.ConditionLiteral:
		switch cond.Value {
		case "true":
			return true
		case "false":
			return false
		}
		v.warnOnce("literal", cond.Value, "Non-boolean literal in condition")
		return false

	case domain.ConditionIdentifier:
		val, ok := v.values[cond.Value]
		if !ok {
			v.warnOnce("variable", cond.Value, "Unresolved variable in condition")
			return false
		}
		b, ok := value.AsBool(val)
		if !ok {
			v.warnOnce("variable", cond.Value, "Variable is not a Boolean", "type", val.Kind().String())
			return false
		}
		return b

	case domain.ConditionUnary:
		if cond.Operator != "!" {
			v.warnOnce("operator", cond.Operator, "Unsupported unary operator")
			return false
		}
		return !v.Evaluate(cond.Operand, fns)

	case domain.ConditionFuncCall:
		result, ok := v.call(cond.FunctionName, cond.Args, fns)
		if !ok {
			return false
		}
		return value.Truthy(result)

	case domain.ConditionBinary:
		return v.evaluateBinary(cond, fns)
	}

	v.warnOnce("condition", string(cond.Type), "Unsupported condition type")
	return false
}

func (v *Variables) evaluateBinary(cond *domain.Condition, fns *registry.Registry) bool {
	switch cond.Operator {
	case "&&":
		return v.Evaluate(cond.Left, fns) && v.Evaluate(cond.Right, fns)
	case "||":
		return v.Evaluate(cond.Left, fns) || v.Evaluate(cond.Right, fns)
	case ">", "<", ">=", "<=", "==", "!=":
	default:
		v.warnOnce("operator", cond.Operator, "Unsupported binary operator")
		return false
	}

	left, lok := v.number(cond.Left, fns)
	right, rok := v.number(cond.Right, fns)
	if lok && rok {
		switch cond.Operator {
		case ">":
			return left > right
		case "<":
			return left < right
		case ">=":
			return left >= right
		case "<=":
			return left <= right
		case "==":
			return math.Abs(left-right) < epsilon
		default:
			return math.Abs(left-right) >= epsilon
		}
	}

	// Equality between non-numbers compares display strings (enum members).
	if cond.Operator == "==" || cond.Operator == "!=" {
		ls, lok := v.text(cond.Left, fns)
		rs, rok := v.text(cond.Right, fns)
		if !lok || !rok {
			return false
		}
		if cond.Operator == "==" {
			return ls == rs
		}
		return ls != rs
	}

	v.warnOnce("operator", cond.Operator, "Non-numeric operands for comparison")
	return false
}

// number resolves a comparison operand as a float.
func (v *Variables) number(cond *domain.Condition, fns *registry.Registry) (float64, bool) {
	if cond == nil {
		return 0, false
	}
	switch cond.Type {
	case domain.ConditionLiteral:
		f, err := strconv.ParseFloat(cond.Value, 64)
		return f, err == nil
	case domain.ConditionIdentifier:
		if f, err := strconv.ParseFloat(cond.Value, 64); err == nil {
			return f, true
		}
		val, ok := v.values[cond.Value]
		if !ok {
			v.warnOnce("variable", cond.Value, "Unresolved variable in comparison")
			return 0, false
		}
		return value.AsNumber(val)
	case domain.ConditionFuncCall:
		result, ok := v.call(cond.FunctionName, cond.Args, fns)
		if !ok {
			return 0, false
		}
		return value.AsNumber(result)
	}
	return 0, false
}

// text resolves an equality operand as its display string.
func (v *Variables) text(cond *domain.Condition, fns *registry.Registry) (string, bool) {
	if cond == nil {
		return "", false
	}
	switch cond.Type {
	case domain.ConditionLiteral:
		return value.Parse(cond.Value).String(), true
	case domain.ConditionEnumMember:
		return cond.Value, true
	case domain.ConditionIdentifier:
		val, ok := v.values[cond.Value]
		if !ok {
			v.warnOnce("variable", cond.Value, "Unresolved variable in comparison")
			return "", false
		}
		return val.String(), true
	case domain.ConditionFuncCall:
		result, ok := v.call(cond.FunctionName, cond.Args, fns)
		if !ok {
			return "", false
		}
		return result.String(), true
	}
	return "", false
}

// call invokes a registered function; arguments naming a variable pass its
// value, everything else is parsed as a literal.
func (v *Variables) call(name string, args []string, fns *registry.Registry) (value.Value, bool) {
	values := make([]value.Value, 0, len(args))
	for _, arg := range args {
		if val, ok := v.values[arg]; ok {
			values = append(values, val)
			continue
		}
		values = append(values, value.Parse(arg))
	}
	result, ok := fns.Call(name, values...)
	if !ok {
		v.warnOnce("function", name, "Unresolved function")
		return nil, false
	}
	return result, true
}
