package runtime_test

import (
	"testing"

	"github.com/aretw0/mortar/internal/runtime"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/dsl"
	"github.com/aretw0/mortar/pkg/registry"
	"github.com/aretw0/mortar/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textItem(template string, events ...domain.Event) *domain.ContentItem {
	return &domain.ContentItem{
		Type:              domain.ContentText,
		Value:             template,
		InterpolatedParts: dsl.Segment(template),
		Events:            events,
	}
}

func at(index float64, action string) domain.Event {
	return domain.Event{Index: index, Actions: []domain.Action{{Type: action}}}
}

func TestInterpolate_PlaceholderRemapsEvents(t *testing.T) {
	vars := runtime.NewVariables(nil, nil)
	vars.Set("name", value.String("Alice"))

	item := textItem("Hello {name}!", at(6, "start"), at(12, "bang"))
	interp := vars.Interpolate(item, nil)
	require.Equal(t, "Hello Alice!", interp.Text)

	events := vars.RemapEvents(item.Events, interp.IndexMap)
	require.Len(t, events, 2)
	assert.Equal(t, 6.0, events[0].Index)
	assert.Equal(t, 11.0, events[1].Index)
}

func TestInterpolate_NoPlaceholdersIsIdentity(t *testing.T) {
	vars := runtime.NewVariables(nil, nil)
	item := &domain.ContentItem{Type: domain.ContentText, Value: "plain", Events: []domain.Event{at(3.5, "x")}}

	interp := vars.Interpolate(item, nil)
	assert.Equal(t, "plain", interp.Text)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, interp.IndexMap)

	events := vars.RemapEvents(item.Events, interp.IndexMap)
	assert.Equal(t, 3.5, events[0].Index)
}

func TestInterpolate_IndexMapIsMonotonic(t *testing.T) {
	vars := runtime.NewVariables(nil, nil)
	vars.Set("a", value.String("longer text"))
	vars.Set("b", value.String(""))

	interp := vars.Interpolate(textItem("x{a}y{b}z"), nil)
	assert.Equal(t, "xlonger textyz", interp.Text)
	for i := 1; i < len(interp.IndexMap); i++ {
		assert.GreaterOrEqual(t, interp.IndexMap[i], interp.IndexMap[i-1])
	}
	assert.Equal(t, 14, interp.IndexMap[len(interp.IndexMap)-1])
}

func TestInterpolate_EventsPastTheEnd(t *testing.T) {
	vars := runtime.NewVariables(nil, nil)
	vars.Set("n", value.String("ab"))

	item := textItem("{n}.", at(10, "late"))
	interp := vars.Interpolate(item, nil)
	events := vars.RemapEvents(item.Events, interp.IndexMap)
	// Source length 4, rendered length 3.
	assert.Equal(t, 9.0, events[0].Index)
}

func TestInterpolate_IndexVariable(t *testing.T) {
	vars := runtime.NewVariables(nil, nil)
	vars.Set("pos", value.Number(2))
	vars.Set("bad", value.String("x"))

	item := &domain.ContentItem{Type: domain.ContentText, Value: "abcd", Events: []domain.Event{
		{IndexVariable: "pos", Actions: []domain.Action{{Type: "a"}}},
		{Index: 1, IndexVariable: "bad", Actions: []domain.Action{{Type: "b"}}},
	}}
	interp := vars.Interpolate(item, nil)
	events := vars.RemapEvents(item.Events, interp.IndexMap)
	assert.Equal(t, 2.0, events[0].Index)
	assert.Equal(t, 1.0, events[1].Index, "non-number variable keeps the declared index")
}

func TestInterpolate_ResolutionOrder(t *testing.T) {
	fns := registry.New()
	fns.Register("who", func([]value.Value) value.Value { return value.String("Bob") })
	fns.Register("shout", func(args []value.Value) value.Value {
		return value.String(args[0].String() + "!")
	})

	vars := runtime.NewVariables(nil, nil)
	vars.Set("name", value.String("Alice"))
	vars.Set("who", value.String("shadowed"))

	assert.Equal(t, "Alice", vars.Interpolate(textItem("{name}"), fns).Text)
	assert.Equal(t, "shadowed", vars.Interpolate(textItem("{who}"), fns).Text, "variables before functions")
	assert.Equal(t, "Alice!", vars.Interpolate(textItem("{shout(name)}"), fns).Text)
	assert.Equal(t, "hi!", vars.Interpolate(textItem("{shout(hi)}"), fns).Text)
	assert.Equal(t, "[]", vars.Interpolate(textItem("[{ghost}]"), fns).Text, "unresolved renders empty")

	other := runtime.NewVariables(nil, nil)
	assert.Equal(t, "Bob", other.Interpolate(textItem("{who}"), fns).Text, "zero-argument function")
}

func TestInterpolate_NormalizesSubstitutions(t *testing.T) {
	vars := runtime.NewVariables(nil, nil)
	// "e" followed by a combining acute accent composes to one rune.
	vars.Set("cafe", value.String("cafe\u0301"))

	interp := vars.Interpolate(textItem("{cafe}!"), nil)
	assert.Equal(t, "caf\u00e9!", interp.Text)
	assert.Equal(t, 5, interp.IndexMap[len(interp.IndexMap)-1])
}

func TestInterpolate_Branches(t *testing.T) {
	program := &domain.Program{
		Enums: []domain.Enum{{Name: "Place", Variants: []string{"Forest", "Town"}}},
		Variables: []domain.Variable{
			{Name: "place", Type: "Place"},
			{Name: "night", Type: "Boolean", Value: true},
			{Name: "day", Type: "Boolean"},
			{Name: "where", Type: "Branch", Value: map[string]any{
				"enum_type": "place",
				"cases": []any{
					map[string]any{"condition": "Forest", "text": "the woods"},
					map[string]any{"condition": "Town", "text": "the square"},
				},
			}},
			{Name: "sky", Type: "Branch", Value: map[string]any{
				"cases": []any{
					map[string]any{"condition": "day", "text": "sun"},
					map[string]any{"condition": "night", "text": "moon", "events": []any{
						map[string]any{"index": 1.0, "actions": []any{map[string]any{"type": "twinkle"}}},
					}},
				},
			}},
		},
	}
	vars := runtime.NewVariables(program, nil)

	interp := vars.Interpolate(textItem("In {where}."), nil)
	assert.Equal(t, "In the woods.", interp.Text)
	assert.Empty(t, interp.BranchEvents)

	vars.Assign("place", "Place.Town")
	assert.Equal(t, "In the square.", vars.Interpolate(textItem("In {where}."), nil).Text)

	interp = vars.Interpolate(textItem("A {sky}"), nil)
	assert.Equal(t, "A moon", interp.Text)
	require.Len(t, interp.BranchEvents, 1)
	assert.Equal(t, 3.0, interp.BranchEvents[0].Index, "offset by the placeholder position")
	text, ok := vars.BranchText("sky")
	assert.True(t, ok)
	assert.Equal(t, "moon", text)
}
