// Package verified persists the payloads consumed by verified-data
// placements, keyed by data reference. The processed flag is write-once,
// which is what prevents a payload from being replayed.
package verified

import (
	"fmt"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/hashmap"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/stateblob"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	processedSalt = []byte("ipraysVerifiedProcessed")
	payloadSalt   = []byte("ipraysVerifiedPayload")
	hashSalt      = []byte("ipraysVerifiedHash")
)

type StateAccess = storageutil.StateAccess

func refKey(dataRef string) common.Hash {
	return crypto.Keccak256Hash([]byte(dataRef))
}

// ProcessedSlotFor returns the slot of the processed flag for a data
// reference, for remote reads.
func ProcessedSlotFor(dataRef string) common.Hash {
	return hashmap.SlotFor(processedSalt, refKey(dataRef))
}

// IsProcessed reports whether a data reference has already been consumed.
func IsProcessed(access StateAccess, dataRef string) bool {
	m := hashmap.NewMap(access, processedSalt)
	return m.Get(refKey(dataRef)) != (common.Hash{})
}

// Store persists the raw payload and its keccak hash and marks the
// reference processed. It fails if the reference was consumed before.
func Store(access StateAccess, dataRef string, raw []byte) error {
	if IsProcessed(access, dataRef) {
		return fmt.Errorf("data reference %q already processed", dataRef)
	}

	key := refKey(dataRef)

	stateblob.SetBlob(access, crypto.Keccak256Hash(payloadSalt, key[:]), raw)

	h := crypto.Keccak256Hash(raw)
	hashes := hashmap.NewMap(access, hashSalt)
	hashes.Set(key, h)

	m := hashmap.NewMap(access, processedSalt)
	m.Set(key, common.BytesToHash([]byte{1}))

	return nil
}

// GetData returns the stored raw payload, empty if the reference was never
// processed.
func GetData(access StateAccess, dataRef string) []byte {
	key := refKey(dataRef)
	return stateblob.GetBlob(access, crypto.Keccak256Hash(payloadSalt, key[:]))
}

// GetHash returns the keccak hash recorded for the reference.
func GetHash(access StateAccess, dataRef string) common.Hash {
	hashes := hashmap.NewMap(access, hashSalt)
	return hashes.Get(refKey(dataRef))
}
