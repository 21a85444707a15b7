package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/mortar/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSnapshot := func(id string) *domain.Snapshot {
		return &domain.Snapshot{
			SessionID: id,
			Path:      "demo.mortared",
			Node:      "Start",
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		selected := 1
		snap := newSnapshot(sessionID)
		snap.TextIndex = 2
		snap.ChoiceStack = []int{0}
		snap.SelectedChoice = &selected
		snap.Executed = []int{1, 3}
		snap.Variables = map[string]any{
			"name":  "Alice",
			"score": 42.0,
			"met":   true,
		}

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Node, loaded.Node)
		assert.Equal(t, 2, loaded.TextIndex)
		assert.Equal(t, []int{0}, loaded.ChoiceStack)
		require.NotNil(t, loaded.SelectedChoice)
		assert.Equal(t, 1, *loaded.SelectedChoice)
		assert.Equal(t, []int{1, 3}, loaded.Executed)
		assert.Equal(t, "Alice", loaded.Variables["name"])
		assert.Equal(t, true, loaded.Variables["met"])
		// Numbers go through JSON in most stores; only check existence.
		assert.NotNil(t, loaded.Variables["score"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newSnapshot(id1))
		_ = store.Save(ctx, id2, newSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
