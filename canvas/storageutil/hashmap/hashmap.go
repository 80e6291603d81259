// Package hashmap provides a keccak-salted mapping from 32-byte keys to
// 32-byte values in the processor's storage, the same slot-derivation scheme
// Solidity uses for mapping types.
package hashmap

import (
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type Map struct {
	db   storageutil.StateAccess
	salt []byte
}

func NewMap(db storageutil.StateAccess, salts ...[]byte) *Map {
	combined := []byte{}
	for _, s := range salts {
		combined = append(combined, s...)
	}
	return &Map{db: db, salt: combined}
}

// SlotFor returns the storage slot a key maps to. Exported so read-only
// clients can fetch the same slot over eth_getStorageAt.
func SlotFor(salt []byte, key common.Hash) common.Hash {
	return crypto.Keccak256Hash(salt, key.Bytes())
}

func (m *Map) Get(key common.Hash) common.Hash {
	return m.db.GetState(address.CanvasProcessorAddress, SlotFor(m.salt, key))
}

func (m *Map) Set(key common.Hash, value common.Hash) {
	m.db.SetState(address.CanvasProcessorAddress, SlotFor(m.salt, key), value)
}
