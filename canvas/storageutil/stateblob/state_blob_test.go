package stateblob_test

import (
	"testing"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/stateblob"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type mockStateAccess struct {
	storage map[common.Address]map[common.Hash]common.Hash
}

func newMockStateAccess() *mockStateAccess {
	return &mockStateAccess{
		storage: make(map[common.Address]map[common.Hash]common.Hash),
	}
}

func (m *mockStateAccess) GetState(addr common.Address, key common.Hash) common.Hash {
	if m.storage[addr] == nil {
		return common.Hash{}
	}
	return m.storage[addr][key]
}

func (m *mockStateAccess) SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	if value == (common.Hash{}) {
		delete(m.storage[addr], key)
		if len(m.storage[addr]) == 0 {
			delete(m.storage, addr)
		}
	} else {
		m.storage[addr][key] = value
	}
	return value
}

func (m *mockStateAccess) IsEmpty() bool {
	return len(m.storage) == 0
}

func TestBlobRoundTrip(t *testing.T) {
	t.Run("small payload (≤31 bytes)", func(t *testing.T) {
		db := newMockStateAccess()
		key := common.HexToHash("0x1234")
		value := []byte("small payload")

		stateblob.SetBlob(db, key, value)
		require.Equal(t, value, stateblob.GetBlob(db, key))

		stateblob.DeleteBlob(db, key)
		require.Empty(t, stateblob.GetBlob(db, key))
		require.True(t, db.IsEmpty())
	})

	t.Run("large payload (>31 bytes)", func(t *testing.T) {
		db := newMockStateAccess()
		key := common.HexToHash("0x5678")
		value := []byte("this is a large payload that definitely exceeds thirty one bytes in length")

		stateblob.SetBlob(db, key, value)
		require.Equal(t, value, stateblob.GetBlob(db, key))

		stateblob.DeleteBlob(db, key)
		require.Empty(t, stateblob.GetBlob(db, key))
		require.True(t, db.IsEmpty())
	})

	t.Run("empty payload", func(t *testing.T) {
		db := newMockStateAccess()
		key := common.HexToHash("0x9abc")

		stateblob.SetBlob(db, key, []byte{})
		require.Empty(t, stateblob.GetBlob(db, key))
		require.True(t, db.IsEmpty())
	})

	t.Run("exactly 31 bytes", func(t *testing.T) {
		db := newMockStateAccess()
		key := common.HexToHash("0xdef0")
		value := []byte("this-is-exactly-31-bytes-long!!")
		require.Equal(t, 31, len(value))

		stateblob.SetBlob(db, key, value)
		require.Equal(t, value, stateblob.GetBlob(db, key))
	})

	t.Run("exactly 32 bytes", func(t *testing.T) {
		db := newMockStateAccess()
		key := common.HexToHash("0xdef1")
		value := []byte("this-is-exactly-32-bytes-long!!!")
		require.Equal(t, 32, len(value))

		stateblob.SetBlob(db, key, value)
		require.Equal(t, value, stateblob.GetBlob(db, key))

		stateblob.DeleteBlob(db, key)
		require.Empty(t, stateblob.GetBlob(db, key))
		require.True(t, db.IsEmpty())
	})

	t.Run("overwrite shrinks", func(t *testing.T) {
		db := newMockStateAccess()
		key := common.HexToHash("0xaa")

		long := []byte("a long payload that spills over into a couple of follow-on slots easily")
		stateblob.SetBlob(db, key, long)
		stateblob.DeleteBlob(db, key)

		short := []byte("short")
		stateblob.SetBlob(db, key, short)
		require.Equal(t, short, stateblob.GetBlob(db, key))
	})
}
