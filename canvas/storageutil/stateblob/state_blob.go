package stateblob

import (
	"encoding/binary"
	"iter"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Variable-length byte blobs on top of 32-byte storage slots, using the
// Solidity short/long string layout: values up to 31 bytes live in the head
// slot with length*2 in the last byte, longer values put length*2+1 in the
// head slot and the data in the slots that follow it.

type StateAccess = storageutil.StateAccess

var canvasAddress = address.CanvasProcessorAddress

var emptyHash = common.Hash{}

// SetBlob writes value under key, spilling into consecutive slots as needed.
func SetBlob(db StateAccess, key common.Hash, value []byte) {
	slot := new(uint256.Int).SetBytes(key[:])

	for word := range wordsOf(value) {
		db.SetState(canvasAddress, slot.Bytes32(), word)
		slot.AddUint64(slot, 1)
	}
}

func wordsOf(value []byte) iter.Seq[common.Hash] {
	return func(yield func(common.Hash) bool) {
		if len(value) <= 31 {
			word := common.RightPadBytes(value, 32)
			word[31] = byte(len(value) * 2)
			yield(common.BytesToHash(word))
			return
		}

		// Long form: head slot holds 2*len+1, data follows.
		head := uint256.NewInt(uint64(len(value)*2 + 1))
		if !yield(common.BytesToHash(head.Bytes())) {
			return
		}

		for start := 0; start < len(value); start += 32 {
			end := min(start+32, len(value))
			if !yield(common.BytesToHash(common.RightPadBytes(value[start:end], 32))) {
				return
			}
		}
	}
}

// GetBlob reads the blob stored under key. A never-written key yields an
// empty slice.
func GetBlob(db StateAccess, key common.Hash) []byte {
	head := db.GetState(canvasAddress, key)
	if head == emptyHash {
		return []byte{}
	}

	if head[31]&0x01 == 0 {
		length := head[31] / 2
		return head[:length]
	}

	slot := new(uint256.Int).SetBytes(key[:])

	marker := binary.BigEndian.Uint64(head[24:])
	dataLength := (marker - 1) / 2

	value := make([]byte, 0, dataLength)
	remaining := dataLength

	slot.AddUint64(slot, 1)
	for remaining > 0 {
		word := db.GetState(canvasAddress, slot.Bytes32())
		n := min(remaining, 32)
		value = append(value, word[:n]...)
		remaining -= n
		slot.AddUint64(slot, 1)
	}

	return value
}

// DeleteBlob clears every slot the blob under key occupies.
func DeleteBlob(db StateAccess, key common.Hash) {
	head := db.GetState(canvasAddress, key)
	if head == emptyHash {
		return
	}

	db.SetState(canvasAddress, key, emptyHash)

	if head[31]&0x01 == 0 {
		return
	}

	marker := binary.BigEndian.Uint64(head[24:])
	dataLength := (marker - 1) / 2
	slots := (dataLength + 31) / 32

	slot := new(uint256.Int).SetBytes(key[:])
	slot.AddUint64(slot, 1)
	for range slots {
		db.SetState(canvasAddress, slot.Bytes32(), emptyHash)
		slot.AddUint64(slot, 1)
	}
}
