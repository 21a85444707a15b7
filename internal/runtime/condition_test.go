package runtime_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/internal/runtime"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/dsl"
	"github.com/aretw0/mortar/pkg/registry"
	"github.com/aretw0/mortar/pkg/value"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate_NumericComparison(t *testing.T) {
	cond := dsl.Cmp(dsl.Ident("score"), ">", dsl.Lit("100"))

	t.Run("above threshold", func(t *testing.T) {
		vars := runtime.NewVariables(nil, nil)
		vars.Set("score", value.Number(150))
		assert.True(t, vars.Evaluate(cond, nil))
	})

	t.Run("below threshold", func(t *testing.T) {
		vars := runtime.NewVariables(nil, nil)
		vars.Set("score", value.Number(50))
		assert.False(t, vars.Evaluate(cond, nil))
	})

	t.Run("undefined logs a warning", func(t *testing.T) {
		var buf bytes.Buffer
		vars := runtime.NewVariables(nil, logging.NewWithWriter(&buf, slog.LevelDebug))
		assert.False(t, vars.Evaluate(cond, nil))
		assert.Contains(t, buf.String(), "score")
		assert.Contains(t, buf.String(), "level=WARN")
	})
}

func TestEvaluate_Operators(t *testing.T) {
	vars := runtime.NewVariables(nil, nil)
	vars.Set("n", value.Number(3))
	vars.Set("yes", value.Boolean(true))
	vars.Set("no", value.Boolean(false))
	vars.Set("mood", value.String("Mood.Happy"))
	vars.Set("word", value.String("abc"))

	tests := []struct {
		name string
		cond *domain.Condition
		want bool
	}{
		{"nil is true", nil, true},
		{"literal true", dsl.Lit("true"), true},
		{"literal false", dsl.Lit("false"), false},
		{"literal other", dsl.Lit("maybe"), false},
		{"identifier bool", dsl.Ident("yes"), true},
		{"identifier non bool", dsl.Ident("n"), false},
		{"not", dsl.Not(dsl.Ident("no")), true},
		{"and", dsl.Cmp(dsl.Ident("yes"), "&&", dsl.Ident("no")), false},
		{"or", dsl.Cmp(dsl.Ident("yes"), "||", dsl.Ident("no")), true},
		{"ge", dsl.Cmp(dsl.Ident("n"), ">=", dsl.Lit("3")), true},
		{"le", dsl.Cmp(dsl.Ident("n"), "<=", dsl.Lit("2")), false},
		{"lt", dsl.Cmp(dsl.Ident("n"), "<", dsl.Lit("4")), true},
		{"eq epsilon", dsl.Cmp(dsl.Ident("n"), "==", dsl.Lit("3.0000000000001")), true},
		{"ne", dsl.Cmp(dsl.Ident("n"), "!=", dsl.Lit("3")), false},
		{"numeric identifier text", dsl.Cmp(dsl.Ident("n"), "==", dsl.Ident("3")), true},
		{"enum equality", dsl.Cmp(dsl.Ident("mood"), "==", dsl.Member("Mood.Happy")), true},
		{"enum inequality", dsl.Cmp(dsl.Ident("mood"), "!=", dsl.Member("Mood.Sad")), true},
		{"string ordering is false", dsl.Cmp(dsl.Ident("word"), ">", dsl.Lit("a")), false},
		{"unknown binary operator", dsl.Cmp(dsl.Ident("n"), "%", dsl.Lit("2")), false},
		{"unknown unary operator", &domain.Condition{Type: domain.ConditionUnary, Operator: "-", Operand: dsl.Ident("yes")}, false},
		{"unknown type", &domain.Condition{Type: "ternary"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vars.Evaluate(tt.cond, nil))
		})
	}
}

func TestEvaluate_FunctionCalls(t *testing.T) {
	fns := registry.New()
	fns.RegisterPredicate("is_even", func(args []value.Value) bool {
		n, _ := value.AsNumber(args[0])
		return int(n)%2 == 0
	})
	fns.Register("double", func(args []value.Value) value.Value {
		n, _ := value.AsNumber(args[0])
		return value.Number(n * 2)
	})

	vars := runtime.NewVariables(nil, nil)
	vars.Set("gold", value.Number(4))

	assert.True(t, vars.Evaluate(dsl.Call("is_even", "gold"), fns), "variable argument")
	assert.False(t, vars.Evaluate(dsl.Call("is_even", "3"), fns), "literal argument")
	assert.True(t, vars.Evaluate(dsl.Cmp(dsl.Call("double", "gold"), ">", dsl.Lit("7")), fns))
	assert.False(t, vars.Evaluate(dsl.Call("missing"), fns), "unbound function")
	assert.False(t, vars.Evaluate(dsl.Call("missing"), nil), "no registry")
}
