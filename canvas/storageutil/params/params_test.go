package params_test

import (
	"testing"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
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

func TestParams(t *testing.T) {
	t.Run("Initialize", func(t *testing.T) {
		db := newMockStateAccess()
		admin := common.HexToAddress("0x1111111111111111111111111111111111111111")
		treasury := common.HexToAddress("0x2222222222222222222222222222222222222222")
		price := uint256.NewInt(1000)

		params.Initialize(db, admin, treasury, price)

		assert.Equal(t, admin, params.Admin(db))
		assert.Equal(t, treasury, params.Treasury(db))
		assert.Equal(t, price, params.PixelPrice(db))
	})

	t.Run("Defaults", func(t *testing.T) {
		db := newMockStateAccess()

		assert.Equal(t, uint64(params.DefaultMaxVerifiedPayload), params.MaxVerifiedPayload(db))
		assert.Zero(t, params.MinPlacementInterval(db))
		assert.False(t, params.Paused(db))
		assert.Zero(t, params.TotalPlaced(db))
		assert.True(t, params.PixelPrice(db).IsZero())
	})

	t.Run("MaxVerifiedPayloadConfigured", func(t *testing.T) {
		db := newMockStateAccess()
		params.SetMaxVerifiedPayload(db, 4096)
		assert.Equal(t, uint64(4096), params.MaxVerifiedPayload(db))
	})

	t.Run("PausedToggles", func(t *testing.T) {
		db := newMockStateAccess()

		params.SetPaused(db, true)
		assert.True(t, params.Paused(db))

		params.SetPaused(db, false)
		assert.False(t, params.Paused(db))
	})

	t.Run("TotalPlacedIncrements", func(t *testing.T) {
		db := newMockStateAccess()

		assert.Equal(t, uint64(1), params.IncrementTotalPlaced(db))
		assert.Equal(t, uint64(2), params.IncrementTotalPlaced(db))
		assert.Equal(t, uint64(2), params.TotalPlaced(db))
	})

	t.Run("DistinctSlots", func(t *testing.T) {
		slots := []common.Hash{
			params.SlotAdmin,
			params.SlotPixelPrice,
			params.SlotTreasury,
			params.SlotAutoWithdrawThreshold,
			params.SlotMinPlacementInterval,
			params.SlotMaxVerifiedPayload,
			params.SlotPaused,
			params.SlotTotalPlaced,
		}
		seen := map[common.Hash]bool{}
		for _, s := range slots {
			assert.False(t, seen[s])
			seen[s] = true
		}
	})
}
