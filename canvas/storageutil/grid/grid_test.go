package grid_test

import (
	"testing"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/grid"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
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
	} else {
		m.storage[addr][key] = value
	}
	return value
}

func TestPixelStorage(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		db := newMockStateAccess()

		rec := &grid.PixelRecord{
			X:          100,
			Y:          200,
			Color:      [3]byte{0xff, 0x45, 0x00},
			PlacedBy:   common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Timestamp:  1700000000,
			DataRef:    "0xabc123",
			IsVerified: true,
		}
		require.NoError(t, grid.StorePixel(db, rec))

		got, err := grid.GetPixel(db, 100, 200)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec, got)
	})

	t.Run("UnplacedIsNil", func(t *testing.T) {
		db := newMockStateAccess()

		got, err := grid.GetPixel(db, 5, 5)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("OverwriteWins", func(t *testing.T) {
		db := newMockStateAccess()

		first := &grid.PixelRecord{X: 1, Y: 2, Color: [3]byte{1, 2, 3}, Timestamp: 10}
		second := &grid.PixelRecord{X: 1, Y: 2, Color: [3]byte{9, 9, 9}, Timestamp: 20}
		require.NoError(t, grid.StorePixel(db, first))
		require.NoError(t, grid.StorePixel(db, second))

		got, err := grid.GetPixel(db, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, second, got)
	})

	t.Run("NeighbouringCoordsDoNotCollide", func(t *testing.T) {
		db := newMockStateAccess()

		a := &grid.PixelRecord{X: 0, Y: 1, Color: [3]byte{1, 0, 0}}
		b := &grid.PixelRecord{X: 1, Y: 0, Color: [3]byte{0, 1, 0}}
		require.NoError(t, grid.StorePixel(db, a))
		require.NoError(t, grid.StorePixel(db, b))

		gotA, err := grid.GetPixel(db, 0, 1)
		require.NoError(t, err)
		gotB, err := grid.GetPixel(db, 1, 0)
		require.NoError(t, err)

		assert.Equal(t, a.Color, gotA.Color)
		assert.Equal(t, b.Color, gotB.Color)
	})
}
