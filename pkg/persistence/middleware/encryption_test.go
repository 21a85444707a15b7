package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/persistence/middleware"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, store ports.SnapshotStore, cfg middleware.EncryptionConfig) ports.SnapshotStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := NewMockStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	snap := &domain.Snapshot{
		SessionID: "test-session",
		Path:      "demo.mortared",
		Node:      "Vault",
		TextIndex: 3,
		Variables: map[string]any{"secret": "my-secret-sauce"},
	}
	require.NoError(t, secure.Save(ctx, "test-session", snap))

	stored, err := underlying.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.NotContains(t, stored.Variables, "secret")
	assert.Contains(t, stored.Variables, middleware.EncryptedVariable)
	assert.Empty(t, stored.Node)
	assert.Equal(t, "demo.mortared", stored.Path)

	loaded, err := secure.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.Equal(t, "Vault", loaded.Node)
	assert.Equal(t, 3, loaded.TextIndex)
	assert.Equal(t, "my-secret-sauce", loaded.Variables["secret"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	snap := &domain.Snapshot{Node: "Start", Variables: map[string]any{"data": "old"}}
	require.NoError(t, oldStore.Save(ctx, "rotation", snap))

	newStore := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "rotation")
	require.NoError(t, err)
	assert.Equal(t, "old", loaded.Variables["data"])

	loaded.Variables["data"] = "new"
	require.NoError(t, newStore.Save(ctx, "rotation", loaded))

	_, err = oldStore.Load(ctx, "rotation")
	assert.Error(t, err, "old key alone must not read new-key envelopes")
}

func TestEncryptionMiddleware_RejectsPlainSnapshot(t *testing.T) {
	underlying := NewMockStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", &domain.Snapshot{Node: "Start"}))

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secure.Load(ctx, "plain")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, encrypted(t, NewMockStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}
