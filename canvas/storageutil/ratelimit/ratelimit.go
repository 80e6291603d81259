// Package ratelimit tracks the last placement timestamp per address. The
// minimum interval itself lives in params; this package only answers whether
// a sender may place again at a given time.
package ratelimit

import (
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/hashmap"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var LastPlacementSalt = []byte("ipraysLastPlacement")

type StateAccess = storageutil.StateAccess

func addressKey(a common.Address) common.Hash {
	h := common.Hash{}
	copy(h[12:], a[:])
	return h
}

// SlotFor returns the storage slot holding an address's last placement
// timestamp, for remote reads.
func SlotFor(a common.Address) common.Hash {
	return hashmap.SlotFor(LastPlacementSalt, addressKey(a))
}

// LastPlacementAt returns the timestamp of the sender's last successful
// placement, zero if it never placed.
func LastPlacementAt(access StateAccess, sender common.Address) uint64 {
	m := hashmap.NewMap(access, LastPlacementSalt)
	v := new(uint256.Int).SetBytes32(m.Get(addressKey(sender)).Bytes())
	return v.Uint64()
}

// RecordPlacement stores now as the sender's last placement timestamp. It is
// written in the same state transition as the pixel itself, so the check and
// the update are atomic under ledger serialization.
func RecordPlacement(access StateAccess, sender common.Address, now uint64) {
	m := hashmap.NewMap(access, LastPlacementSalt)
	m.Set(addressKey(sender), uint256.NewInt(now).Bytes32())
}

// Remaining returns how many seconds must still elapse before the sender may
// place again. Zero means the sender is clear.
func Remaining(access StateAccess, sender common.Address, now uint64) uint64 {
	interval := params.MinPlacementInterval(access)
	if interval == 0 {
		return 0
	}
	last := LastPlacementAt(access, sender)
	if last == 0 || now >= last+interval {
		return 0
	}
	return last + interval - now
}
