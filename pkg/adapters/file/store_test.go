package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/mortar/pkg/adapters/file"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SnapshotStore = (*file.Store)(nil)

func TestStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.NewStore(t.TempDir()))
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.NewStore(dir)

	require.NoError(t, store.Save(ctx, "s1", &domain.Snapshot{Node: "A"}))
	require.NoError(t, store.Save(ctx, "s1", &domain.Snapshot{Node: "B"}))

	snap, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "B", snap.Node)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_InvalidIDs(t *testing.T) {
	ctx := context.Background()
	store := file.NewStore(t.TempDir())

	assert.Error(t, store.Save(ctx, "", &domain.Snapshot{}))
	assert.Error(t, store.Save(ctx, "../escape", &domain.Snapshot{}))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ".."))
}

func TestStore_DeleteMissing(t *testing.T) {
	store := file.NewStore(t.TempDir())
	assert.NoError(t, store.Delete(context.Background(), "ghost"))
}

func TestStore_ListEmpty(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "sessions"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".mortar", "sessions"), file.NewStore("").BasePath)
}
