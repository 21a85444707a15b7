package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/mortar/pkg/adapters/memory"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	snap := &domain.Snapshot{Node: "A", Variables: map[string]any{"x": 1.0}, Executed: []int{0}}
	require.NoError(t, store.Save(ctx, "s", snap))

	snap.Variables["x"] = 2.0
	snap.Executed[0] = 9

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1.0, loaded.Variables["x"])
	assert.Equal(t, []int{0}, loaded.Executed)
}
