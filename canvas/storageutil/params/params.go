// Package params holds the admin-configurable canvas parameters in fixed,
// named storage slots of the processor account.
package params

import (
	"encoding/binary"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	// MaxPlacementInterval caps setMinPlacementInterval at one day.
	MaxPlacementInterval = 86400

	// HardMaxVerifiedPayload is the ceiling an admin can never raise the
	// verified payload limit above.
	HardMaxVerifiedPayload = 8192

	// DefaultMaxVerifiedPayload is the verified payload limit before any
	// admin configuration.
	DefaultMaxVerifiedPayload = 1024

	// MinVerifiedPayload is the smallest payload that can possibly carry a
	// "#RRGGBB" color.
	MinVerifiedPayload = 7
)

var paramSalt = []byte("ipraysParam")

// SlotFor derives the storage slot of a named parameter. Exported so
// read-only clients can fetch parameters over eth_getStorageAt.
func SlotFor(name string) common.Hash {
	return crypto.Keccak256Hash(paramSalt, []byte(name))
}

var (
	SlotAdmin                 = SlotFor("admin")
	SlotPixelPrice            = SlotFor("pixelPrice")
	SlotTreasury              = SlotFor("treasury")
	SlotAutoWithdrawThreshold = SlotFor("autoWithdrawThreshold")
	SlotMinPlacementInterval  = SlotFor("minPlacementInterval")
	SlotMaxVerifiedPayload    = SlotFor("maxVerifiedPayload")
	SlotPaused                = SlotFor("paused")
	SlotTotalPlaced           = SlotFor("totalPlaced")
)

type StateAccess = storageutil.StateAccess

func getWord(db StateAccess, slot common.Hash) common.Hash {
	return db.GetState(address.CanvasProcessorAddress, slot)
}

func setWord(db StateAccess, slot, value common.Hash) {
	db.SetState(address.CanvasProcessorAddress, slot, value)
}

func getUint64(db StateAccess, slot common.Hash) uint64 {
	w := getWord(db, slot)
	return binary.BigEndian.Uint64(w[24:])
}

func setUint64(db StateAccess, slot common.Hash, v uint64) {
	var w common.Hash
	binary.BigEndian.PutUint64(w[24:], v)
	setWord(db, slot, w)
}

func Admin(db StateAccess) common.Address {
	return common.BytesToAddress(getWord(db, SlotAdmin).Bytes())
}

func SetAdmin(db StateAccess, a common.Address) {
	setWord(db, SlotAdmin, common.BytesToHash(a.Bytes()))
}

func PixelPrice(db StateAccess) *uint256.Int {
	w := getWord(db, SlotPixelPrice)
	return new(uint256.Int).SetBytes(w[:])
}

func SetPixelPrice(db StateAccess, price *uint256.Int) {
	setWord(db, SlotPixelPrice, price.Bytes32())
}

func Treasury(db StateAccess) common.Address {
	return common.BytesToAddress(getWord(db, SlotTreasury).Bytes())
}

func SetTreasury(db StateAccess, a common.Address) {
	setWord(db, SlotTreasury, common.BytesToHash(a.Bytes()))
}

func AutoWithdrawThreshold(db StateAccess) *uint256.Int {
	w := getWord(db, SlotAutoWithdrawThreshold)
	return new(uint256.Int).SetBytes(w[:])
}

func SetAutoWithdrawThreshold(db StateAccess, t *uint256.Int) {
	setWord(db, SlotAutoWithdrawThreshold, t.Bytes32())
}

func MinPlacementInterval(db StateAccess) uint64 {
	return getUint64(db, SlotMinPlacementInterval)
}

func SetMinPlacementInterval(db StateAccess, seconds uint64) {
	setUint64(db, SlotMinPlacementInterval, seconds)
}

func MaxVerifiedPayload(db StateAccess) uint64 {
	v := getUint64(db, SlotMaxVerifiedPayload)
	if v == 0 {
		return DefaultMaxVerifiedPayload
	}
	return v
}

func SetMaxVerifiedPayload(db StateAccess, length uint64) {
	setUint64(db, SlotMaxVerifiedPayload, length)
}

func Paused(db StateAccess) bool {
	return getUint64(db, SlotPaused) != 0
}

func SetPaused(db StateAccess, paused bool) {
	v := uint64(0)
	if paused {
		v = 1
	}
	setUint64(db, SlotPaused, v)
}

func TotalPlaced(db StateAccess) uint64 {
	return getUint64(db, SlotTotalPlaced)
}

func IncrementTotalPlaced(db StateAccess) uint64 {
	n := TotalPlaced(db) + 1
	setUint64(db, SlotTotalPlaced, n)
	return n
}

// Initialize writes the admin address and the initial economic parameters.
// This is a genesis-time concern of the hosting node.
func Initialize(db StateAccess, admin, treasury common.Address, pixelPrice *uint256.Int) {
	SetAdmin(db, admin)
	SetTreasury(db, treasury)
	SetPixelPrice(db, pixelPrice)
}
