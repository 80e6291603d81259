package payload_test

import (
	"context"
	"testing"

	"github.com/0xarkstar/IPRAYS-PUBLIC/client/payload"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore(t *testing.T) {
	ctx := context.Background()

	store, err := payload.NewStore(t.TempDir())
	require.NoError(t, err)

	data := []byte("#ff4500 a message that goes with the pixel")

	t.Run("UploadIsContentAddressed", func(t *testing.T) {
		ref, declared, err := store.Upload(ctx, data)
		require.NoError(t, err)

		assert.Equal(t, crypto.Keccak256Hash(data).Hex(), ref)
		assert.Equal(t, crypto.Keccak256Hash(data), declared.ContentHash)
		assert.Equal(t, uint64(0), declared.Offset)
		assert.Equal(t, uint64(len(data)), declared.Length)
	})

	t.Run("ReadRange", func(t *testing.T) {
		_, declared, err := store.Upload(ctx, data)
		require.NoError(t, err)

		full, err := store.ReadRange(declared.ContentHash, 0, declared.Length)
		require.NoError(t, err)
		assert.Equal(t, data, full)

		head, err := store.ReadRange(declared.ContentHash, 0, 7)
		require.NoError(t, err)
		assert.Equal(t, []byte("#ff4500"), head)

		tail, err := store.ReadRange(declared.ContentHash, 8, 0)
		require.NoError(t, err)
		assert.Equal(t, data[8:], tail)
	})

	t.Run("ReadAll", func(t *testing.T) {
		ref, _, err := store.Upload(ctx, data)
		require.NoError(t, err)

		got, err := store.ReadAll(ref)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("RangeBeyondPayload", func(t *testing.T) {
		_, declared, err := store.Upload(ctx, data)
		require.NoError(t, err)

		_, err = store.ReadRange(declared.ContentHash, 0, declared.Length+1)
		assert.Error(t, err)

		_, err = store.ReadRange(declared.ContentHash, declared.Length+1, 0)
		assert.Error(t, err)
	})

	t.Run("MissingHash", func(t *testing.T) {
		_, err := store.ReadRange(crypto.Keccak256Hash([]byte("never uploaded")), 0, 0)
		assert.Error(t, err)
	})
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	store := payload.NewMemStore()
	data := []byte("#00ff00 in memory")

	ref, declared, err := store.Upload(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(data).Hex(), ref)

	got, err := store.ReadRange(declared.ContentHash, 0, declared.Length)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	all, err := store.ReadAll(ref)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	_, err = store.ReadRange(crypto.Keccak256Hash([]byte("missing")), 0, 0)
	assert.Error(t, err)
}
