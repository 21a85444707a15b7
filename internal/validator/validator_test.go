package validator_test

import (
	"context"
	"testing"

	"github.com/aretw0/mortar/internal/validator"
	"github.com/aretw0/mortar/pkg/adapters/memory"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, b *dsl.Builder) *domain.Program {
	t.Helper()
	p, err := b.Program()
	require.NoError(t, err)
	return p
}

func validProgram() *dsl.Builder {
	b := dsl.New("valid.mortared")
	b.Var("met", "Boolean", false)
	b.Event("bell", "ring")
	b.Timeline("intro").Run("bell").Wait(1)
	b.Add("Start").
		Text("Hi").When(dsl.Ident("met")).
		RunEvent("bell").
		Choice(
			dsl.Option("Go", "Next"),
			dsl.Nested("More", dsl.Option("Deep", "Deep"), dsl.Break("Back")),
			dsl.Return("Leave"),
		)
	b.Add("Next").RunTimeline("intro").Text("Next").Go("Deep")
	b.Add("Deep").Text("Deep").Go("return")
	return b
}

func TestValidate_Valid(t *testing.T) {
	report := validator.Validate(build(t, validProgram()))
	assert.Empty(t, report.Issues)
	assert.NoError(t, report.Err())
}

func TestValidate_Errors(t *testing.T) {
	b := dsl.New("broken.mortared")
	b.Timeline("dusk").Run("ghost_event")
	b.Add("Start").
		RunEvent("missing").
		RunTimeline("nowhere").
		Text("Hi").
		Choice(dsl.Option("Go", "Ghost"), dsl.Nested("Sub", dsl.Option("Deeper", "Abyss"))).
		Go("Void")

	report := validator.Validate(build(t, b))
	errs := report.Errors()
	require.Len(t, errs, 6)

	var messages []string
	for _, e := range errs {
		messages = append(messages, e.String())
	}
	assert.Contains(t, messages, `error: node "Start": next points to unknown node "Void"`)
	assert.Contains(t, messages, `error: node "Start": content 0 runs unknown event "missing"`)
	assert.Contains(t, messages, `error: node "Start": content 1 runs unknown timeline "nowhere"`)
	assert.Contains(t, messages, `error: node "Start": choice "Go" points to unknown node "Ghost"`)
	assert.Contains(t, messages, `error: node "Start": choice "Deeper" points to unknown node "Abyss"`)
	assert.Contains(t, messages, `error: timeline "dusk" step 0 runs unknown event "ghost_event"`)

	err := report.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.mortared: found 6 errors")
}

func TestValidate_Warnings(t *testing.T) {
	b := dsl.New("warn.mortared")
	b.Add("Start").Text("Hi").When(dsl.Cmp(dsl.Ident("gold"), ">", dsl.Lit("3")))
	b.Add("Island").Text("Nobody comes here")

	report := validator.Validate(build(t, b))
	assert.NoError(t, report.Err())
	warnings := report.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "Start", warnings[0].Node)
	assert.Contains(t, warnings[0].Message, `"gold"`)
	assert.Equal(t, "Island", warnings[1].Node)
}

func TestValidate_Structure(t *testing.T) {
	report := validator.Validate(&domain.Program{Path: "empty.mortared"})
	assert.Error(t, report.Err())

	dup := &domain.Program{Path: "dup.mortared", Nodes: []domain.Node{{Name: "A"}, {Name: "A"}}}
	report = validator.Validate(dup)
	require.Len(t, report.Errors(), 1)
	assert.Equal(t, "duplicate node name", report.Errors()[0].Message)
}

func TestValidateAll(t *testing.T) {
	good := build(t, validProgram())
	bad := &domain.Program{Path: "bad.mortared", Nodes: []domain.Node{{Name: "A", Next: "B"}}}
	loader := memory.NewLoader(good, bad)

	reports, err := validator.ValidateAll(context.Background(), loader, []string{"valid.mortared", "bad.mortared", "ghost.mortared"})
	assert.ErrorIs(t, err, validator.ErrInvalid)
	require.Len(t, reports, 3)
	assert.Empty(t, reports[0].Issues)
	assert.Len(t, reports[1].Errors(), 1)
	assert.Len(t, reports[2].Errors(), 1)
	assert.Equal(t, "ghost.mortared", reports[2].Path)

	_, err = validator.ValidateAll(context.Background(), loader, []string{"valid.mortared"})
	assert.NoError(t, err)
}
