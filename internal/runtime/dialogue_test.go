package runtime_test

import (
	"testing"

	"github.com/aretw0/mortar/internal/runtime"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNode(t *testing.T, build func(n *dsl.NodeBuilder)) domain.Node {
	t.Helper()
	nb := dsl.New("test").Add("N")
	build(nb)
	return nb.Build()
}

func TestDialogueState_AdvanceThroughTexts(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) {
		n.Text("First text").Text("Second text")
	})
	st := runtime.NewDialogueState("test", node)
	require.NotEmpty(t, st.SessionID)
	assert.Equal(t, 2, st.TextCount())

	item, _, ok := st.CurrentText()
	require.True(t, ok)
	assert.Equal(t, "First text", item.Value)

	assert.Equal(t, domain.Advanced, st.Advance().Kind)
	item, _, _ = st.CurrentText()
	assert.Equal(t, "Second text", item.Value)
	assert.Equal(t, 1, st.Version())

	assert.Equal(t, domain.AdvanceEnded, st.Advance().Kind)
}

func TestDialogueState_ExitJumpsToNext(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) { n.Text("x").Go("Other") })
	st := runtime.NewDialogueState("test", node)
	out := st.Advance()
	assert.Equal(t, domain.AdvanceJump, out.Kind)
	assert.Equal(t, "Other", out.Node)

	node = buildNode(t, func(n *dsl.NodeBuilder) { n.Text("x").Go(domain.NextReturn) })
	st = runtime.NewDialogueState("test", node)
	assert.Equal(t, domain.AdvanceEnded, st.Advance().Kind)
}

func TestDialogueState_OwnsNodeCopy(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) { n.Text("original") })
	st := runtime.NewDialogueState("test", node)
	node.Content[0].Value = "mutated"

	item, _, _ := st.CurrentText()
	assert.Equal(t, "original", item.Value)
}

func TestDialogueState_WaitsOnChoice(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) {
		n.Text("a").Text("b").Choice(dsl.Option("x", "X"))
	})
	st := runtime.NewDialogueState("test", node)

	assert.False(t, st.AtChoicePoint())

	assert.Equal(t, domain.Advanced, st.Advance().Kind)
	assert.True(t, st.AtChoicePoint())
	assert.Equal(t, domain.AdvanceWaitingOnChoice, st.Advance().Kind)
	assert.Equal(t, domain.AdvanceWaitingOnChoice, st.Advance().Kind)
}

func TestDialogueState_ConfirmPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		choice domain.Choice
		want   runtime.ResolutionKind
	}{
		{"action return beats next", domain.Choice{Text: "r", Action: domain.ChoiceActionReturn, Next: "X"}, runtime.ResolveReturn},
		{"action break beats nested", domain.Choice{Text: "b", Action: domain.ChoiceActionBreak, Choice: []domain.Choice{{Text: "n"}}}, runtime.ResolveBreak},
		{"nested beats next", domain.Choice{Text: "n", Next: "X", Choice: []domain.Choice{{Text: "deep"}}}, runtime.ResolveNested},
		{"next return ends", domain.Choice{Text: "n", Next: domain.NextReturn}, runtime.ResolveReturn},
		{"next jumps", domain.Choice{Text: "n", Next: "X"}, runtime.ResolveNext},
		{"nothing ends", domain.Choice{Text: "n"}, runtime.ResolveEnd},
		{"unknown action falls through", domain.Choice{Text: "n", Action: "dance", Next: "X"}, runtime.ResolveNext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := buildNode(t, func(n *dsl.NodeBuilder) { n.Text("q").Choice(tt.choice) })
			st := runtime.NewDialogueState("test", node)
			require.NoError(t, st.Select(0))
			res, err := st.Confirm()
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Kind)
			assert.Equal(t, -1, st.Selected())
		})
	}
}

func TestDialogueState_BreakClearsChoices(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) {
		n.Text("Intro").
			Choice(dsl.Nested("More", dsl.Break("Stop")), dsl.Option("Go", "X")).
			Text("After")
	})
	st := runtime.NewDialogueState("test", node)

	require.NoError(t, st.Select(0))
	res, err := st.Confirm()
	require.NoError(t, err)
	require.Equal(t, runtime.ResolveNested, res.Kind)
	assert.Equal(t, []int{0}, st.ChoiceStack)
	require.Len(t, st.CurrentChoices(), 1)

	require.NoError(t, st.Select(0))
	res, err = st.Confirm()
	require.NoError(t, err)
	assert.Equal(t, runtime.ResolveBreak, res.Kind)
	assert.Equal(t, domain.Advanced, res.Advance.Kind)

	assert.Empty(t, st.ChoiceStack)
	assert.True(t, st.ChoicesBroken)
	assert.False(t, st.HasChoices())
	assert.Nil(t, st.CurrentChoices())
	item, _, _ := st.CurrentText()
	assert.Equal(t, "After", item.Value)
}

func TestDialogueState_ChoiceBeforeText(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) {
		n.Choice(dsl.Break("Skip")).Text("After")
	})
	st := runtime.NewDialogueState("test", node)
	assert.True(t, st.ChoiceBeforeText())
	assert.True(t, st.AtChoicePoint())

	require.NoError(t, st.Select(0))
	res, err := st.Confirm()
	require.NoError(t, err)
	assert.Equal(t, domain.Advanced, res.Advance.Kind)
	assert.False(t, st.ChoiceBeforeText())
	assert.Equal(t, 0, st.TextIndex)
	assert.Equal(t, 1, st.Version())
}

func TestDialogueState_SelectErrors(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) { n.Text("q").Choice(dsl.Option("a", "")) })
	st := runtime.NewDialogueState("test", node)

	assert.ErrorIs(t, st.Select(-1), domain.ErrInvalidSelection)
	assert.ErrorIs(t, st.Select(1), domain.ErrInvalidSelection)
	_, err := st.Confirm()
	assert.ErrorIs(t, err, domain.ErrNoSelection)
}

func TestDialogueState_RunBookkeeping(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) {
		n.RunEvent("lead").
			Text("one").
			RunEvent("mid").
			RunEventAt("pinned", "value", "2").
			Text("two").
			RunTimeline("tail")
	})
	st := runtime.NewDialogueState("test", node)

	pos, ok := st.TakePendingRun()
	require.True(t, ok)
	assert.Equal(t, 0, pos)
	_, ok = st.TakePendingRun()
	assert.False(t, ok, "taking clears the marker")

	assert.Equal(t, []int{0}, st.CollectRuns(0))
	assert.Equal(t, []int{2}, st.CollectRuns(2), "pinned run events are not sequenced")

	assert.True(t, st.MarkExecuted(2))
	assert.False(t, st.MarkExecuted(2))
	assert.Empty(t, st.CollectRuns(2))

	assert.Equal(t, domain.Advanced, st.Advance().Kind)
	pos, _ = st.TakePendingRun()
	assert.Equal(t, 2, pos)

	// Trailing run after the last text delays the exit by one advance.
	assert.Equal(t, domain.Advanced, st.Advance().Kind)
	assert.Equal(t, 1, st.TextIndex)
	pos, _ = st.TakePendingRun()
	assert.Equal(t, []int{5}, st.CollectRuns(pos))
	st.MarkExecuted(5)
	assert.Equal(t, domain.AdvanceEnded, st.Advance().Kind)
}

func TestDialogueState_OpenChoiceHoldsLaterRuns(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) {
		n.Text("q").RunEvent("before").Choice(dsl.Break("On")).RunEvent("after").Text("end")
	})
	st := runtime.NewDialogueState("test", node)
	assert.Equal(t, []int{1}, st.CollectRuns(1), "the open choice ends the scan")

	assert.Equal(t, domain.Advanced, st.Advance().Kind)
	pos, _ := st.TakePendingRun()
	assert.Equal(t, []int{1}, st.CollectRuns(pos))
	st.MarkExecuted(1)
	assert.Equal(t, domain.AdvanceWaitingOnChoice, st.Advance().Kind)

	require.NoError(t, st.Select(0))
	res, err := st.Confirm()
	require.NoError(t, err)
	assert.Equal(t, domain.Advanced, res.Advance.Kind)
	pos, _ = st.TakePendingRun()
	assert.Equal(t, []int{3}, st.CollectRuns(pos))
}

func TestDialogueState_SnapshotRoundTrip(t *testing.T) {
	node := buildNode(t, func(n *dsl.NodeBuilder) {
		n.Text("a").RunEvent("e").Text("b").Choice(dsl.Nested("n", dsl.Option("x", "")))
	})
	st := runtime.NewDialogueState("test", node)
	st.Advance()
	st.MarkExecuted(1)
	require.NoError(t, st.Select(0))
	_, err := st.Confirm()
	require.NoError(t, err)
	require.NoError(t, st.Select(0))

	snap := st.Snapshot()
	assert.Equal(t, "N", snap.Node)
	assert.Equal(t, 1, snap.TextIndex)
	assert.Equal(t, []int{0}, snap.ChoiceStack)
	assert.Equal(t, []int{1}, snap.Executed)
	require.NotNil(t, snap.SelectedChoice)

	restored := runtime.RestoreDialogueState(snap, node)
	assert.Equal(t, st.SessionID, restored.SessionID)
	assert.Equal(t, 1, restored.TextIndex)
	assert.Equal(t, 0, restored.Selected())
	assert.True(t, restored.IsExecuted(1))
	_, pending := restored.TakePendingRun()
	assert.False(t, pending)
}
